// Package results delivers match results and room occupancy to external
// consumers. Delivery is best-effort: rooms enqueue reports without blocking and
// every failure is logged and dropped.
package results

import (
	"context"
	"time"

	"github.com/jason-s-yu/chinczyk/internal/models"
	"github.com/sirupsen/logrus"
)

// Kind names the two report types.
type Kind string

const (
	KindResults    Kind = "results"
	KindRoomStatus Kind = "room_status"
)

// Report is one queued notification. Payload is a models.MatchResult or a
// models.RoomStatus depending on Kind.
type Report struct {
	Kind    Kind
	Payload any
}

// Sink is one delivery target.
type Sink interface {
	Name() string
	Export(ctx context.Context, r Report) error
}

const (
	DefaultQueueSize = 256
	exportTimeout    = 5 * time.Second
)

// Exporter fans reports out to its sinks from a single worker goroutine.
type Exporter struct {
	sinks []Sink
	queue chan Report
	log   logrus.FieldLogger
}

func NewExporter(logger logrus.FieldLogger, queueSize int, sinks ...Sink) *Exporter {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Exporter{
		sinks: sinks,
		queue: make(chan Report, queueSize),
		log:   logger.WithField("component", "results"),
	}
}

func (e *Exporter) ReportResults(m models.MatchResult) {
	e.enqueue(Report{Kind: KindResults, Payload: m})
}

func (e *Exporter) ReportRoomStatus(s models.RoomStatus) {
	e.enqueue(Report{Kind: KindRoomStatus, Payload: s})
}

func (e *Exporter) enqueue(r Report) {
	select {
	case e.queue <- r:
	default:
		e.log.WithField("kind", r.Kind).Warn("export queue full, dropping report")
	}
}

// Run delivers queued reports until ctx is done, then flushes what is left.
func (e *Exporter) Run(ctx context.Context) error {
	e.log.WithField("sinks", len(e.sinks)).Info("results exporter started")
	for {
		select {
		case r := <-e.queue:
			e.deliver(context.Background(), r)
		case <-ctx.Done():
			e.drain()
			return nil
		}
	}
}

func (e *Exporter) drain() {
	for {
		select {
		case r := <-e.queue:
			e.deliver(context.Background(), r)
		default:
			return
		}
	}
}

func (e *Exporter) deliver(ctx context.Context, r Report) {
	for _, s := range e.sinks {
		sctx, cancel := context.WithTimeout(ctx, exportTimeout)
		if err := s.Export(sctx, r); err != nil {
			e.log.WithError(err).WithFields(logrus.Fields{
				"sink": s.Name(),
				"kind": r.Kind,
			}).Warn("export failed")
		}
		cancel()
	}
}
