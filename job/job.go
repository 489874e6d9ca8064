/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package job wraps one store operation so that it runs out of band while the
// caller keeps a waitable handle on it.
//
// A job settles exactly once, either with the value returned by its task or
// with a failure. Failures never escape as panics: waiters receive the
// "no result" sentinel (a false ok) and the failure is reported to the
// configured logger, which is what makes fire-and-forget jobs safe.
//
// Example usage:
//
//	j := job.New("read-party", func(ctx context.Context) (*model.PartyRecord, error) {
//	    return st.ReadParty(ctx, id)
//	}, job.WithExecutor(pool), job.WithTimeout(5*time.Second))
//
//	party, ok := j.Start(ctx).WaitFor(ctx)
package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/tochemey/mapsync/errors"
)

// Task is the store operation wrapped by a Job
type Task[T any] func(ctx context.Context) (T, error)

// Job is a unit of work wrapping one store operation.
type Job[T any] struct {
	*config

	id   string
	name string
	task Task[T]

	started *atomic.Bool
	once    sync.Once
	done    chan struct{}

	value T
	err   error

	// mu guards the fields armed by Start and released by settle
	mu        sync.Mutex
	startedAt time.Time
	cancel    context.CancelFunc
	timer     *time.Timer
	stopWatch func() bool
}

// New creates a job for the given task. The task does not run until Start.
func New[T any](name string, task Task[T], opts ...Option) *Job[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Job[T]{
		config:  cfg,
		id:      uuid.NewString(),
		name:    name,
		task:    task,
		started: atomic.NewBool(false),
		done:    make(chan struct{}),
	}
}

// ID returns the unique job id
func (j *Job[T]) ID() string {
	return j.id
}

// Name returns the job name
func (j *Job[T]) Name() string {
	return j.name
}

// Start submits the task for out of band execution and returns immediately.
// The task context is derived from ctx and carries the job timeout.
// Calling Start more than once has no effect.
func (j *Job[T]) Start(ctx context.Context) *Job[T] {
	if !j.started.CompareAndSwap(false, true) {
		return j
	}

	j.mu.Lock()
	j.startedAt = time.Now()
	taskCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel

	// the timer settles the job even when the store ignores its context
	if j.timeout > 0 {
		j.timer = time.AfterFunc(j.timeout, func() {
			j.settle(*new(T), fmt.Errorf("%s after %s: %w", j.name, j.timeout, errors.ErrJobTimeout))
		})
	}

	j.stopWatch = context.AfterFunc(ctx, func() {
		j.settle(*new(T), fmt.Errorf("%s: %w: %w", j.name, errors.ErrJobCanceled, context.Cause(ctx)))
	})
	j.mu.Unlock()

	run := func() {
		var (
			value T
			err   error
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%s panicked: %v", j.name, r)
				}
			}()
			value, err = j.task(taskCtx)
		}()

		if err != nil && ctx.Err() != nil {
			err = fmt.Errorf("%s: %w: %w", j.name, errors.ErrJobCanceled, context.Cause(ctx))
		}

		if !j.settle(value, err) {
			j.logger.Debugf("job %s [%s] discarded a late result", j.name, j.id)
		}
	}

	if j.executor == nil {
		go run()
		return j
	}

	if !j.executor.SubmitWork(run) {
		j.settle(*new(T), fmt.Errorf("%s: %w", j.name, errors.ErrExecutorStopped))
	}
	return j
}

// WaitFor suspends the caller until the job settles or ctx is done.
// ok is false when the job failed, when the store reported no record, or
// when ctx ended first.
func (j *Job[T]) WaitFor(ctx context.Context) (value T, ok bool) {
	select {
	case <-j.done:
		return j.value, j.err == nil
	case <-ctx.Done():
		return value, false
	}
}

// Done returns a channel closed once the job has settled
func (j *Job[T]) Done() <-chan struct{} {
	return j.done
}

// Err returns the failure of a settled job. It returns nil while the job
// is running and for successful jobs.
func (j *Job[T]) Err() error {
	select {
	case <-j.done:
		return j.err
	default:
		return nil
	}
}

// Result returns the outcome of a settled job, or nil while it is running.
func (j *Job[T]) Result() *Result[T] {
	select {
	case <-j.done:
		return &Result[T]{success: j.value, failure: j.err}
	default:
		return nil
	}
}

// settle records the outcome once. It returns false when the job had already settled.
func (j *Job[T]) settle(value T, err error) bool {
	settled := false
	j.once.Do(func() {
		settled = true
		j.mu.Lock()
		if j.timer != nil {
			j.timer.Stop()
		}
		if j.stopWatch != nil {
			j.stopWatch()
		}
		if j.cancel != nil {
			j.cancel()
		}
		latency := time.Since(j.startedAt)
		j.mu.Unlock()

		j.value = value
		j.err = err
		j.report(latency)

		if j.observer != nil {
			j.observer(j.name, latency, err)
		}
		close(j.done)
	})
	return settled
}

func (j *Job[T]) report(latency time.Duration) {
	if j.err == nil {
		return
	}

	logger := j.logger.With("job", j.name, "jobID", j.id, "key", j.key, "latency", latency)
	if errors.IsNotFound(j.err) {
		logger.Debugf("%s: no record found", j.name)
		return
	}
	logger.Errorf("%s failed: %v", j.name, j.err)
}
