package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	SubjectResults    = "chinczyk.results"
	SubjectRoomStatus = "chinczyk.rooms.status"
)

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes every report on a subject per kind.
type NATSSink struct {
	conn publisher
}

func NewNATSSink(conn publisher) *NATSSink {
	return &NATSSink{conn: conn}
}

// ConnectNATS dials url with reconnects enabled and connection events logged.
func ConnectNATS(url string, logger logrus.FieldLogger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("chinczyk"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.WithError(err).Error("NATS error")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Export(_ context.Context, r Report) error {
	subject := SubjectResults
	if r.Kind == KindRoomStatus {
		subject = SubjectRoomStatus
	}
	data, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s report: %w", r.Kind, err)
	}
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
