package results

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	resultsPath    = "/games/handle-results/chinczyk"
	roomStatusPath = "/rooms/update-room-status"
)

// HTTPSink posts reports to the results service at EXPORT_RESULTS_URL.
type HTTPSink struct {
	baseURL string
	client  *http.Client
	log     logrus.FieldLogger
}

// NewHTTPSink returns a sink posting under baseURL. An empty baseURL makes every
// export a logged no-op.
func NewHTTPSink(baseURL string, logger logrus.FieldLogger) *HTTPSink {
	return &HTTPSink{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     logger,
	}
}

func (s *HTTPSink) Name() string { return "http" }

func (s *HTTPSink) Export(ctx context.Context, r Report) error {
	if s.baseURL == "" {
		s.log.WithField("kind", r.Kind).Warn("EXPORT_RESULTS_URL is not set, report not sent")
		return nil
	}

	path := resultsPath
	if r.Kind == KindRoomStatus {
		path = roomStatusPath
	}
	body, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s report: %w", r.Kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s returned status code %d: %s", path, resp.StatusCode, string(respBody))
	}
	return nil
}
