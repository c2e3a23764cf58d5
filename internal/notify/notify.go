// Package notify delivers task events to interested users without ever
// blocking or failing the mutation that raised them.
package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"todoTracker/internal/logger"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

type Kind string

const (
	KindAssigned  Kind = "assigned"
	KindShared    Kind = "shared"
	KindWatching  Kind = "watching"
	KindMentioned Kind = "mentioned"
	KindCommented Kind = "commented"
	KindReminder  Kind = "reminder"
)

type Event struct {
	Kind       Kind      `json:"kind"`
	TaskID     uuid.UUID `json:"task_id"`
	TaskTitle  string    `json:"task_title"`
	ActorID    string    `json:"actor_id"`
	Recipients []string  `json:"recipients"`
	At         time.Time `json:"at"`
}

// Sender talks to the outside world (mail, push, chat...).
type Sender interface {
	Send(ctx context.Context, e Event) error
}

// Metrics counts dispatcher outcomes.
type Metrics struct {
	Published atomic.Int64
	Delivered atomic.Int64
	Failed    atomic.Int64
	Dropped   atomic.Int64
}

type Dispatcher struct {
	sender  Sender
	queue   chan Event
	workers int
	timeout time.Duration
	metrics *Metrics

	wg     conc.WaitGroup
	mtx    sync.RWMutex
	closed bool
}

func NewDispatcher(sender Sender, buffer, workers int) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	if workers <= 0 {
		workers = 2
	}
	return &Dispatcher{
		sender:  sender,
		queue:   make(chan Event, buffer),
		workers: workers,
		timeout: 10 * time.Second,
		metrics: &Metrics{},
	}
}

func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Start launches the workers. They drain the queue until Close.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Go(func() {
			for e := range d.queue {
				d.deliver(ctx, e)
			}
		})
	}
	logger.Info("Notify: dispatcher started", zap.Int("workers", d.workers))
}

// Publish enqueues the event and returns at once. A full queue or a closed
// dispatcher drops it.
func (d *Dispatcher) Publish(e Event) {
	if len(e.Recipients) == 0 {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	d.mtx.RLock()
	defer d.mtx.RUnlock()
	if d.closed {
		d.metrics.Dropped.Add(1)
		return
	}

	select {
	case d.queue <- e:
		d.metrics.Published.Add(1)
	default:
		d.metrics.Dropped.Add(1)
		logger.Warn("Notify: queue is full, event dropped",
			zap.String("kind", string(e.Kind)),
			zap.String("task_id", e.TaskID.String()))
	}
}

// Close stops accepting events and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mtx.Lock()
	if d.closed {
		d.mtx.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mtx.Unlock()

	d.wg.Wait()
	logger.Info("Notify: dispatcher stopped",
		zap.Int64("delivered", d.metrics.Delivered.Load()),
		zap.Int64("failed", d.metrics.Failed.Load()),
		zap.Int64("dropped", d.metrics.Dropped.Load()))
}

func (d *Dispatcher) deliver(ctx context.Context, e Event) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var (
		pc  panics.Catcher
		err error
	)
	pc.Try(func() {
		err = d.sender.Send(ctx, e)
	})
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}

	if err != nil {
		d.metrics.Failed.Add(1)
		logger.Warn("Notify: delivery failed",
			zap.String("kind", string(e.Kind)),
			zap.String("task_id", e.TaskID.String()),
			zap.Error(err))
		return
	}
	d.metrics.Delivered.Add(1)
}

// LogSender writes events to the log. It stands in for real delivery.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, e Event) error {
	logger.Info("Notify: event",
		zap.String("kind", string(e.Kind)),
		zap.String("task_id", e.TaskID.String()),
		zap.String("task_title", e.TaskTitle),
		zap.String("actor_id", e.ActorID),
		zap.Strings("recipients", e.Recipients))
	return nil
}
