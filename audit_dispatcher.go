package autologin

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// auditDispatcher decouples audit emission from the reconciliation path.
// Events are buffered on a channel and delivered by a single worker; the
// channel is closed on Close, which lets the worker drain naturally.
type auditDispatcher struct {
	sink       AuditSink
	logger     *zap.Logger
	ch         chan AuditEvent
	bufferSize int
	dropIfFull bool

	mu     sync.RWMutex
	closed bool

	wg       sync.WaitGroup
	dropped  atomic.Uint64
	dropOnce sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger *zap.Logger) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}

	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &auditDispatcher{
		sink:       sink,
		logger:     logger,
		ch:         make(chan AuditEvent, size),
		bufferSize: size,
		dropIfFull: cfg.DropIfFull,
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for event := range d.ch {
			d.sink.Emit(context.Background(), event)
		}
	}()

	return d
}

// Emit queues an event for delivery. With DropIfFull the call never
// blocks: a full buffer increments the drop counter instead, logging a
// warning the first time. Emitting on a closed dispatcher is a no-op.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.ch <- event:
		default:
			d.dropped.Add(1)
			d.dropOnce.Do(func() {
				d.logger.Warn("audit buffer full, dropping events",
					zap.Int("buffer_size", d.bufferSize),
				)
			})
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.ch <- event:
	case <-ctx.Done():
	}
}

// Close stops accepting events and blocks until everything buffered has
// been handed to the sink. Safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()

	d.wg.Wait()
}

// Dropped reports how many events were discarded under backpressure.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
