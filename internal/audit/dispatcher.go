package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/booking-engine/internal/events"
	"github.com/BruksfildServices01/booking-engine/internal/metrics"
)

type Event struct {
	BusinessID uint
	UserID     *uint
	Action     string
	Entity     string
	EntityID   *uint
	Metadata   any
}

// Sink persists an audit event.
type Sink interface {
	Log(ctx context.Context, ev Event) error
}

type Dispatcher struct {
	sink      Sink
	publisher events.Publisher
	log       zerolog.Logger

	queue  chan Event
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the worker. publisher may be nil when no broker is
// configured.
func NewDispatcher(sink Sink, publisher events.Publisher, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		sink:      sink,
		publisher: publisher,
		log:       log,
		queue:     make(chan Event, 100),
		done:      make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if d.sink != nil {
			if err := d.sink.Log(ctx, ev); err != nil {
				d.log.Error().Err(err).Str("action", ev.Action).Msg("audit write failed")
			}
		}

		if d.publisher != nil {
			env := events.NewEnvelope(ev.Action, ev.BusinessID, ev.EntityID, ev.Metadata)
			if err := d.publisher.Publish(ctx, env); err != nil {
				d.log.Warn().Err(err).Str("action", ev.Action).Msg("event publish failed")
			}
		}

		cancel()
	}
}

// Dispatch never blocks the request path: when the queue is full or the
// dispatcher is closed the event is dropped.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.IncAuditDropped()
		d.log.Warn().Str("action", ev.Action).Msg("audit dispatcher closed, dropping event")
		return
	}

	select {
	case d.queue <- ev:
	default:
		metrics.IncAuditDropped()
		d.log.Warn().Str("action", ev.Action).Msg("audit queue full, dropping event")
	}
}

// Close drains the queue and waits for the worker. Events dispatched
// afterwards are dropped.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		<-d.done
		if d.publisher != nil {
			if err := d.publisher.Close(); err != nil {
				d.log.Warn().Err(err).Msg("event publisher close failed")
			}
		}
	})
}
