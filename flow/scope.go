package flow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is one background task started in a Scope.
type Job struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// ID returns the job's unique identifier.
func (j *Job) ID() string {
	return j.id
}

// Cancel stops the job. It does not wait for it to finish.
func (j *Job) Cancel() {
	j.cancel()
}

// Done is closed when the job has finished.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Err returns the error the job ended with. It is nil while the job is running
// and nil when the job completed or was cancelled.
func (j *Job) Err() error {
	select {
	case <-j.done:
		return j.err
	default:
		return nil
	}
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Scope bounds the lifetime of jobs. Cancelling the scope, or its parent
// context, cancels every job launched in it.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	jobs map[string]*Job
	mu   sync.Mutex
}

// NewScope creates a Scope that ends when parent is done or Cancel is called.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*Job),
	}
}

// Context returns the scope's context.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Go runs fn in a new goroutine. fn's context is done when ctx is done, when
// the scope ends, or when the job is cancelled. Ending because of that
// cancellation is not an error; a panic in fn becomes a *PanicError.
func (s *Scope) Go(ctx context.Context, fn func(ctx context.Context) error) *Job {
	jobCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)

	job := &Job{
		id:     uuid.New().String(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[job.id] = job
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(job.done)
		defer func() {
			s.mu.Lock()
			delete(s.jobs, job.id)
			s.mu.Unlock()
		}()
		defer cancel()
		defer stop()

		err := run(jobCtx, fn)
		if err != nil && jobCtx.Err() != nil && errors.Is(err, jobCtx.Err()) {
			err = nil
		}
		job.err = err
	}()

	return job
}

func run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}

// Active returns the number of jobs still running.
func (s *Scope) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cancel ends the scope. Jobs observe cancellation through their context.
func (s *Scope) Cancel() {
	s.cancel()
}

// Wait blocks until every job launched in the scope has finished.
func (s *Scope) Wait() {
	s.wg.Wait()
}

// Shutdown cancels the scope and waits up to timeout for its jobs to finish.
func (s *Scope) Shutdown(timeout time.Duration) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w after %v", ErrShutdownTimeout, timeout)
	}
}

// Launch collects src in a job of scope, calling collector for every value.
func Launch[T any](ctx context.Context, scope *Scope, src Flow[T], collector Collector[T]) *Job {
	return scope.Go(ctx, func(ctx context.Context) error {
		return src.Collect(ctx, collector)
	})
}
