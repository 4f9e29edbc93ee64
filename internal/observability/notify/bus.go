package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultAsyncTimeout bounds one detached delivery when BusOptions.AsyncTimeout is zero.
const DefaultAsyncTimeout = 30 * time.Second

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
// Async sinks are delivered in the background so Publish never waits on them.
type SinkRegistration struct {
	Name  string
	Sink  Sink
	Async bool
}

// BusOptions configures a Bus.
type BusOptions struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// AsyncTimeout bounds each background delivery to an async sink.
	AsyncTimeout time.Duration
}

// Bus dispatches session events to all subscribed sinks.
// Publish returns once every synchronous sink has been called; async sinks
// (outbound webhooks) run detached with their own deadline.
type Bus struct {
	logger       *slog.Logger
	asyncTimeout time.Duration
	inflight     sync.WaitGroup

	mu     sync.RWMutex
	nextID int
	sinks  map[int]SinkRegistration
}

// NewBus constructs a Bus with the given initial sinks.
func NewBus(opts BusOptions) *Bus {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "notify_bus")
	}
	timeout := opts.AsyncTimeout
	if timeout <= 0 {
		timeout = DefaultAsyncTimeout
	}

	b := &Bus{logger: logger, asyncTimeout: timeout, sinks: make(map[int]SinkRegistration)}
	for _, entry := range opts.Sinks {
		b.register(entry)
	}
	return b
}

// Subscribe registers a synchronous sink and returns a function that removes it.
// A nil sink is ignored.
func (b *Bus) Subscribe(name string, sink Sink) (unsubscribe func()) {
	return b.register(SinkRegistration{Name: name, Sink: sink})
}

// SubscribeAsync registers a sink that is delivered in the background.
func (b *Bus) SubscribeAsync(name string, sink Sink) (unsubscribe func()) {
	return b.register(SinkRegistration{Name: name, Sink: sink, Async: true})
}

func (b *Bus) register(entry SinkRegistration) func() {
	if entry.Sink == nil {
		return func() {}
	}
	if entry.Name == "" {
		entry.Name = "sink"
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.sinks[id] = entry
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.sinks, id)
			b.mu.Unlock()
		})
	}
}

// Publish fans the event out to all sinks. Delivery errors are logged, never returned.
func (b *Bus) Publish(ctx context.Context, ev SessionInvalidated) {
	if b == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	b.mu.RLock()
	sinks := make([]SinkRegistration, 0, len(b.sinks))
	for _, entry := range b.sinks {
		sinks = append(sinks, entry)
	}
	b.mu.RUnlock()

	if len(sinks) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, entry := range sinks {
		if entry.Async {
			b.inflight.Add(1)
			go func() {
				defer b.inflight.Done()
				actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.asyncTimeout)
				defer cancel()
				b.deliver(actx, entry, ev)
			}()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.deliver(ctx, entry, ev)
		}()
	}
	wg.Wait()
}

func (b *Bus) deliver(ctx context.Context, entry SinkRegistration, ev SessionInvalidated) {
	if err := entry.Sink.SendSessionInvalidated(ctx, ev); err != nil {
		b.logger.ErrorContext(ctx, "session event delivery error",
			"sink", entry.Name,
			"async", entry.Async,
			"reason", ev.Reason,
			"path", ev.Path,
			"error", err,
		)
	}
}

// Drain waits for in-flight async deliveries or until ctx is done.
func (b *Bus) Drain(ctx context.Context) error {
	if b == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enabled reports whether the bus has any active sinks.
func (b *Bus) Enabled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sinks) > 0
}
