package shairport

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/oshokin/doorbell-panel/internal/domain/event"
	"github.com/oshokin/doorbell-panel/internal/logger"
)

// SourceName is the source tag on events published by this adapter.
const SourceName = "shairport"

// retryDelay paces reopen attempts after a read failure.
const retryDelay = 5 * time.Second

// publisher feeds translated events into the merged stream.
type publisher interface {
	Publish(ev event.Event)
}

// errNoPublisher is returned when the source is built without an event sink.
var errNoPublisher = errors.New("event publisher must be provided")

// Source is the AirPlay metadata feed adapter.
type Source struct {
	// path is the metadata FIFO location.
	path string
	// events receives the translated events.
	events publisher
}

// New prepares the adapter; Run starts consuming the pipe.
func New(path string, events publisher) (*Source, error) {
	if events == nil {
		return nil, errNoPublisher
	}

	return &Source{
		path:   path,
		events: events,
	}, nil
}

// Run reads the metadata pipe until the context is canceled, reopening it
// with a backoff after failures. Opening a FIFO blocks until shairport-sync
// attaches a writer; that block is the normal idle condition, not an error.
func (s *Source) Run(ctx context.Context) {
	ctx = logger.WithName(ctx, SourceName)

	reported := false

	for ctx.Err() == nil {
		pipe, err := os.Open(s.path)
		if err != nil {
			if !reported {
				logger.WarnKV(ctx, "Metadata pipe unavailable", "path", s.path, "error", err)
				s.publishStatus(false)

				reported = true
			}

			if !sleep(ctx, retryDelay) {
				return
			}

			continue
		}

		if reported {
			s.publishStatus(true)

			reported = false
		}

		logger.InfoKV(ctx, "Reading metadata pipe", "path", s.path)

		err = decodeStream(pipe, func(m *event.Metadata) {
			s.events.Publish(event.Event{
				Kind:     event.KindMetadata,
				Source:   SourceName,
				Metadata: m,
			})
		})

		_ = pipe.Close()

		if ctx.Err() != nil {
			return
		}

		if err != nil {
			logger.WarnKV(ctx, "Metadata stream error, reopening", "error", err)
		}

		if !sleep(ctx, retryDelay) {
			return
		}
	}
}

// publishStatus reports availability changes onto the merged stream.
func (s *Source) publishStatus(available bool) {
	s.events.Publish(event.Event{
		Kind:   event.KindSourceStatus,
		Source: SourceName,
		Status: &event.SourceStatus{Name: SourceName, Available: available},
	})
}

// sleep waits for the delay unless the context ends first.
func sleep(ctx context.Context, delay time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}
