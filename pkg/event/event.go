// Package event provides a simple synchronous/async event dispatcher.
package event

import (
	"context"
	"errors"
	"sync"

	"github.com/shashiranjanraj/medstore/pkg/logger"
	"github.com/shashiranjanraj/medstore/pkg/workerpool"
)

// asyncWorkers bounds the goroutines FireAsync may run at once.
const asyncWorkers = 8

// Handler is a function that receives an event payload.
type Handler func(ctx context.Context, payload interface{})

var (
	mu       sync.RWMutex
	handlers = map[string][]Handler{}

	poolMu sync.Mutex
	pool   *workerpool.Pool
)

// Listen registers a handler for the given event name.
func Listen(event string, handler Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[event] = append(handlers[event], handler)
}

func snapshot(event string) []Handler {
	mu.RLock()
	defer mu.RUnlock()
	hs := make([]Handler, len(handlers[event]))
	copy(hs, handlers[event])
	return hs
}

// Fire dispatches an event synchronously to all registered listeners.
// A panicking listener is logged and does not stop the others.
func Fire(ctx context.Context, event string, payload interface{}) {
	for _, h := range snapshot(event) {
		call(ctx, event, h, payload)
	}
}

// FireAsync hands each listener to a bounded worker pool and returns
// without waiting. Listeners get a context detached from ctx's
// cancellation. When the pool is saturated or shut down the listener runs
// inline, so no event is dropped.
func FireAsync(ctx context.Context, event string, payload interface{}) {
	detached := context.WithoutCancel(ctx)
	p := asyncPool()
	for _, h := range snapshot(event) {
		h := h
		err := p.Submit(func() { call(detached, event, h, payload) })
		if errors.Is(err, workerpool.ErrPoolFull) || errors.Is(err, workerpool.ErrPoolClosed) {
			call(detached, event, h, payload)
		}
	}
}

func asyncPool() *workerpool.Pool {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool == nil {
		pool = workerpool.New(asyncWorkers)
	}
	return pool
}

// Drain waits for every queued async listener to finish. A later FireAsync
// starts a fresh pool.
func Drain() {
	poolMu.Lock()
	p := pool
	pool = nil
	poolMu.Unlock()
	if p != nil {
		p.Shutdown()
	}
}

func call(ctx context.Context, event string, h Handler, payload interface{}) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", event, "panic", rec)
		}
	}()
	h(ctx, payload)
}

// Flush removes all listeners (useful in tests).
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	handlers = map[string][]Handler{}
}
