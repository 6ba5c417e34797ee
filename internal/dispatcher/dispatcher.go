// Package dispatcher routes named editor commands such as ":UNIT:MOVE:" to
// handlers. Handlers run on the caller's goroutine unless registered with
// Buffered, which hands events to a per-command worker.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrClosed is returned when dispatching to a buffered command after Close.
var ErrClosed = errors.New("dispatcher closed")

// Event is one named command with its string arguments.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Failure is implemented by results that carry a user-facing rejection,
// e.g. core.Result. A rejection is not a handler error.
type Failure interface {
	Error() error
}

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*options)

type options struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered runs the handler on a worker fed by a queue of the given size.
// Dispatch returns "queued" without waiting for the result.
func Buffered(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(o *options) {
		o.blocking = true
	}
}

// Logged logs each event with its duration and outcome.
func Logged() Option {
	return func(o *options) {
		o.logged = true
	}
}

// Outcomes recorded on the commands counter.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Dispatcher routes events to registered handlers. Register every command
// before the first Dispatch.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	commands  metric.Int64Counter
	dropped   metric.Int64Counter
	queueSize metric.Int64ObservableGauge

	mu      sync.RWMutex
	queues  map[string]chan Event
	closed  bool
	workers sync.WaitGroup
}

// New creates a Dispatcher reporting to the global OTel meter, which is a
// no-op until a provider is installed.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		queues:   make(map[string]chan Event),
		logger:   logger,
	}
	m := meter()

	var err error
	d.commands, err = m.Int64Counter(
		"formation.commands",
		metric.WithDescription("Commands handled, by command and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating commands counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"formation.queue.dropped",
		metric.WithDescription("Events dropped because a command queue was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	d.queueSize, err = m.Int64ObservableGauge(
		"formation.queue.size",
		metric.WithDescription("Events waiting in a command queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	_, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		d.mu.RLock()
		defer d.mu.RUnlock()
		for cmd, q := range d.queues {
			o.ObserveInt64(d.queueSize, int64(len(q)), metric.WithAttributes(attribute.String("command", cmd)))
		}
		return nil
	}, d.queueSize)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	return d, nil
}

// Register adds a handler for command. A later registration replaces an
// earlier one.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	h = d.counted(command, h)
	if o.logged {
		h = d.withLogging(command, h)
	}
	if o.bufferSize > 0 {
		h = d.withQueue(command, o.bufferSize, o.blocking, h)
	}
	d.handlers[command] = h
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.handlers[e.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.handlers[command]
	return ok
}

// Close stops accepting buffered events and waits until every queued
// event has been handled. Sync handlers keep working.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()
	d.workers.Wait()
}

func outcome(result any, err error) (string, error) {
	if err != nil {
		return OutcomeFailed, err
	}
	if f, ok := result.(Failure); ok {
		if rej := f.Error(); rej != nil {
			return OutcomeRejected, rej
		}
	}
	return OutcomeOK, nil
}

func (d *Dispatcher) counted(command string, h HandlerFunc) HandlerFunc {
	cmdAttr := attribute.String("command", command)
	return func(e Event) (any, error) {
		result, err := h(e)
		out, _ := outcome(result, err)
		d.commands.Add(context.Background(), 1, metric.WithAttributes(cmdAttr, attribute.String("outcome", out)))
		return result, err
	}
}

func (d *Dispatcher) withQueue(command string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	q := make(chan Event, size)

	d.mu.Lock()
	d.queues[command] = q
	d.mu.Unlock()

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for e := range q {
			if _, err := h(e); err != nil {
				d.logger.Error("queued command failed", "command", command, "error", err)
			}
		}
	}()

	return func(e Event) (any, error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return nil, ErrClosed
		}
		if blocking {
			q <- e
			return "queued", nil
		}
		select {
		case q <- e:
			return "queued", nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", command)))
			return nil, fmt.Errorf("queue full: %s", command)
		}
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		result, err := h(e)

		switch out, cause := outcome(result, err); out {
		case OutcomeFailed:
			d.logger.Error("command failed", "command", command, "args", e.Args, "duration", time.Since(start), "error", cause)
		case OutcomeRejected:
			d.logger.Info("command rejected", "command", command, "args", e.Args, "reason", cause)
		default:
			d.logger.Debug("command complete", "command", command, "args", e.Args, "duration", time.Since(start))
		}
		return result, err
	}
}
