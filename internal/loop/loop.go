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

// Package loop provides the single consumer on which every cache mutation of
// the synchronization layer runs. Producers post closures from any goroutine;
// the loop goroutine runs them one at a time in posting order, so the state
// they touch needs no further locking.
package loop

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/log"
)

// Loop is a single-threaded executor.
type Loop struct {
	mailbox   *mailbox[func()]
	signal    chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        sync.RWMutex
	started   *atomic.Bool
	stopped   *atomic.Bool
	processed *atomic.Int64
	logger    log.Logger
}

// New creates a Loop. The loop does nothing until Start is called.
func New(logger log.Logger) *Loop {
	if logger == nil {
		logger = log.DiscardLogger
	}
	return &Loop{
		mailbox:   newMailbox[func()](),
		signal:    make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		started:   atomic.NewBool(false),
		stopped:   atomic.NewBool(false),
		processed: atomic.NewInt64(0),
		logger:    logger,
	}
}

// Start launches the loop goroutine. Calling Start more than once is a no-op.
func (l *Loop) Start() {
	if l.stopped.Load() || !l.started.CompareAndSwap(false, true) {
		return
	}
	go l.run()
}

// Stop rejects further posts, runs whatever was posted before the call and
// waits for the loop goroutine to exit or for ctx to be done.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped.Load() {
		l.mu.Unlock()
		return nil
	}
	l.stopped.Store(true)
	close(l.stopCh)
	l.mu.Unlock()

	if !l.started.Load() {
		return nil
	}

	select {
	case <-l.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post enqueues fn without waiting for it to run.
func (l *Loop) Post(fn func()) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.started.Load() || l.stopped.Load() {
		return errors.ErrLoopStopped
	}

	l.mailbox.push(fn)
	select {
	case l.signal <- struct{}{}:
	default:
	}
	return nil
}

// Do posts fn and waits until it has run or ctx is done.
// Do must never be called from a closure running on the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of closures waiting to run
func (l *Loop) Pending() int64 {
	return l.mailbox.len()
}

// Processed returns the number of closures that have run
func (l *Loop) Processed() int64 {
	return l.processed.Load()
}

func (l *Loop) run() {
	defer close(l.doneCh)
	for {
		select {
		case <-l.signal:
			l.drain()
		case <-l.stopCh:
			l.drain()
			return
		}
	}
}

func (l *Loop) drain() {
	for {
		fn, ok := l.mailbox.pop()
		if !ok {
			return
		}
		l.execute(fn)
	}
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error(fmt.Sprintf("loop: recovered from panic: %v", r))
		}
		l.processed.Inc()
	}()
	fn()
}
