package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/friendapi/internal/model"
)

// ErrWorkerClosed is returned by futures submitted after Close
var ErrWorkerClosed = errors.New("registry worker is closed")

// Future is the pending result of a task submitted to a Worker
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done is closed once the result is available
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task has run or ctx is done. Giving up on a future
// does not cancel the task.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// RemoveResult is the value of a RemoveByQuery future
type RemoveResult struct {
	Entry   model.FriendEntry
	Removed bool
}

type task struct {
	name string
	run  func(ctx context.Context)
	// abort completes the task's future when it will never run
	abort func(err error)
}

// Worker runs registry mutations one at a time, in submission order, on its
// own goroutine. Submitting never blocks: the queue is unbounded.
type Worker struct {
	registry *Registry
	logger   *slog.Logger

	mu      sync.Mutex
	queue   []task
	closed  bool
	started bool

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

// NewWorker creates a worker for registry. Call Start to begin processing.
func NewWorker(registry *Registry, logger *slog.Logger) *Worker {
	return &Worker{
		registry: registry,
		logger:   logger.With(slog.String("component", "registry-worker")),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start runs the worker loop until Close is called. Tasks run with ctx.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started || w.closed {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.stopped)
	w.logger.Info("registry worker started")

	for {
		select {
		case <-w.wake:
			w.drain(ctx)

		case <-w.done:
			// Everything submitted before Close still runs
			w.drain(ctx)
			w.logger.Info("registry worker stopped")
			return
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.mu.Unlock()
			return
		}
		t := w.queue[0]
		w.queue[0] = task{}
		w.queue = w.queue[1:]
		w.mu.Unlock()

		w.logger.Debug("running registry task", slog.String("task", t.name))
		t.run(ctx)
	}
}

// Close stops accepting tasks, waits for queued ones to finish and stops the
// loop. If the worker was never started, queued tasks fail with
// ErrWorkerClosed.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	started := w.started
	pending := w.queue
	if !started {
		w.queue = nil
	}
	w.mu.Unlock()

	close(w.done)
	if started {
		<-w.stopped
		return
	}
	for _, t := range pending {
		t.abort(ErrWorkerClosed)
	}
}

// Pending returns the number of queued tasks not yet started
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func submit[T any](w *Worker, name string, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	t := task{
		name: name,
		run: func(ctx context.Context) {
			f.complete(fn(ctx))
		},
		abort: func(err error) {
			var zero T
			f.complete(zero, err)
		},
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		t.abort(ErrWorkerClosed)
		return f
	}
	w.queue = append(w.queue, t)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return f
}

// AddByQuery queues Registry.AddByQuery
func (w *Worker) AddByQuery(query string) *Future[model.AddResult] {
	return submit(w, "add", func(ctx context.Context) (model.AddResult, error) {
		return w.registry.AddByQuery(ctx, query)
	})
}

// RemoveByQuery queues Registry.RemoveByQuery
func (w *Worker) RemoveByQuery(query string) *Future[RemoveResult] {
	return submit(w, "remove", func(ctx context.Context) (RemoveResult, error) {
		entry, removed, err := w.registry.RemoveByQuery(ctx, query)
		return RemoveResult{Entry: entry, Removed: removed}, err
	})
}

// Clear queues Registry.Clear
func (w *Worker) Clear() *Future[int] {
	return submit(w, "clear", func(ctx context.Context) (int, error) {
		return w.registry.Clear(ctx)
	})
}

// Reconcile queues Registry.Reconcile
func (w *Worker) Reconcile() *Future[model.ReconcileResult] {
	return submit(w, "reconcile", func(ctx context.Context) (model.ReconcileResult, error) {
		return w.registry.Reconcile(ctx)
	})
}

// Reload queues Registry.Reload
func (w *Worker) Reload() *Future[struct{}] {
	return submit(w, "reload", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.registry.Reload(ctx)
	})
}
