// Package worker runs catalog requests one at a time on a dedicated
// goroutine that owns the store connection.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"photocat/internal/catalog"
	"photocat/internal/metrics"
)

// ErrClosed is returned for requests submitted after Close.
var ErrClosed = errors.New("worker closed")

type request struct {
	ctx  context.Context
	op   string
	fn   func(ctx context.Context) error
	done chan error
}

// Worker executes submitted requests in FIFO order on a single goroutine.
type Worker struct {
	requests chan request
	logger   catalog.Logger
	metrics  *metrics.Collector

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New starts a worker. backlog bounds the number of pending requests.
func New(backlog int, logger catalog.Logger, m *metrics.Collector) *Worker {
	if logger == nil {
		logger = catalog.NewNopLogger()
	}
	if backlog < 1 {
		backlog = 1
	}
	w := &Worker{
		requests: make(chan request, backlog),
		logger:   logger,
		metrics:  m,
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for req := range w.requests {
		req.done <- w.execute(req)
	}
}

func (w *Worker) execute(req request) (err error) {
	if err := req.ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", req.op, r)
			w.logger.Error("request panicked", "operation", req.op, "panic", r)
		}
		w.metrics.Request(req.op, err, time.Since(start))
	}()
	return req.fn(req.ctx)
}

// Run queues fn and waits for it to finish. The context is checked before
// fn starts; a request already running is not interrupted.
func (w *Worker) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	req := request{ctx: ctx, op: op, fn: fn, done: make(chan error, 1)}

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrClosed
	}
	select {
	case w.requests <- req:
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}
	w.mu.RUnlock()

	return <-req.done
}

// Close stops accepting requests and waits for the queued ones to finish.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.requests)
	w.mu.Unlock()
	w.wg.Wait()
}

// Pending returns the number of requests waiting to start.
func (w *Worker) Pending() int { return len(w.requests) }
