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

// Package workerpool runs store operations out of band. Workers are spread
// over shards to reduce contention, are reused while busy and are passivated
// once they stay idle for too long.
package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tochemey/mapsync/internal/ticker"
)

// maximum number of shards supported by the worker pool
const maxShards = 128

// WorkerPool manages a pool of workers across multiple shards.
type WorkerPool struct {
	passivateAfter time.Duration
	numShards      int
	shards         []*poolShard
	mutex          sync.RWMutex
	started        atomic.Bool
	stopped        atomic.Bool
	nextShard      atomic.Uint32
	spawnedWorkers atomic.Int64
	workers        sync.WaitGroup
	cleanupTicker  *ticker.Ticker
	cleanupDone    chan struct{}
}

// worker is a goroutine that executes submitted tasks.
type worker struct {
	workChan chan func()
	shard    *poolShard
	lastUsed atomic.Int64
}

// poolShard owns a stack of idle workers. The most recently used worker is
// on top, so the oldest idle workers sit at the bottom.
type poolShard struct {
	wp          *WorkerPool
	idleWorkers []*worker
	mu          sync.Mutex
	stopped     bool
}

// New creates a new worker pool with the given options.
func New(opts ...Option) *WorkerPool {
	wp := &WorkerPool{
		passivateAfter: time.Second,
		numShards:      1,
	}

	for _, opt := range opts {
		opt.Apply(wp)
	}

	if wp.numShards < 1 {
		wp.numShards = 1
	}
	if wp.passivateAfter <= 0 {
		wp.passivateAfter = time.Second
	}

	return wp
}

// SpawnedWorkers returns the current count of live workers.
func (wp *WorkerPool) SpawnedWorkers() int {
	return int(wp.spawnedWorkers.Load())
}

// Start initializes the shards and begins the passivation routine.
// It's safe to call Start multiple times.
func (wp *WorkerPool) Start() {
	wp.mutex.Lock()
	defer wp.mutex.Unlock()
	if wp.started.Load() {
		return
	}

	wp.shards = make([]*poolShard, wp.numShards)
	for i := range wp.shards {
		wp.shards[i] = &poolShard{
			wp:          wp,
			idleWorkers: make([]*worker, 0, 64),
		}
	}

	wp.cleanupTicker = ticker.New(wp.passivateAfter)
	wp.cleanupDone = make(chan struct{})
	wp.cleanupTicker.Start()
	wp.started.Store(true)
	go wp.cleanup()
}

// Stop closes the idle workers and rejects further submissions.
// Busy workers exit as soon as their current task returns.
func (wp *WorkerPool) Stop() {
	wp.mutex.Lock()
	if !wp.started.Load() || wp.stopped.Swap(true) {
		wp.mutex.Unlock()
		return
	}

	for _, shard := range wp.shards {
		shard.mu.Lock()
		shard.stopped = true
		for i, w := range shard.idleWorkers {
			close(w.workChan)
			shard.idleWorkers[i] = nil
		}
		shard.idleWorkers = shard.idleWorkers[:0]
		shard.mu.Unlock()
	}
	wp.mutex.Unlock()

	close(wp.cleanupDone)
	wp.cleanupTicker.Stop()
}

// Wait blocks until every worker goroutine has exited or ctx is done.
// It is meant to be called after Stop.
func (wp *WorkerPool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		wp.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitWork hands the task to an idle worker or spawns a new one.
// It returns false when the pool is not running, in which case the
// task is not executed.
func (wp *WorkerPool) SubmitWork(task func()) bool {
	wp.mutex.RLock()
	if !wp.started.Load() || wp.stopped.Load() {
		wp.mutex.RUnlock()
		return false
	}
	shard := wp.shards[wp.nextShard.Add(1)%uint32(len(wp.shards))]
	wp.mutex.RUnlock()

	return shard.dispatch(task)
}

// dispatch sends the task to the most recently used idle worker of the
// shard or spawns a new worker when none is idle.
func (shard *poolShard) dispatch(task func()) bool {
	shard.mu.Lock()
	if shard.stopped {
		shard.mu.Unlock()
		return false
	}

	if n := len(shard.idleWorkers); n > 0 {
		w := shard.idleWorkers[n-1]
		shard.idleWorkers[n-1] = nil
		shard.idleWorkers = shard.idleWorkers[:n-1]
		shard.mu.Unlock()
		w.workChan <- task
		return true
	}

	w := &worker{
		workChan: make(chan func()),
		shard:    shard,
	}
	shard.wp.workers.Add(1)
	shard.mu.Unlock()

	go w.run()
	w.workChan <- task
	return true
}

// release puts the worker back on the idle stack.
// It returns false when the shard has been stopped.
func (shard *poolShard) release(w *worker) bool {
	w.lastUsed.Store(time.Now().UnixNano())
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if shard.stopped {
		return false
	}
	shard.idleWorkers = append(shard.idleWorkers, w)
	return true
}

func (w *worker) run() {
	wp := w.shard.wp
	wp.spawnedWorkers.Add(1)
	defer func() {
		wp.spawnedWorkers.Add(-1)
		wp.workers.Done()
	}()

	for task := range w.workChan {
		task()
		if !w.shard.release(w) {
			return
		}
	}
}

// cleanup periodically closes the workers that stayed idle longer than
// passivateAfter.
func (wp *WorkerPool) cleanup() {
	var expired []*worker
	for {
		select {
		case <-wp.cleanupDone:
			return
		case <-wp.cleanupTicker.Ticks:
		}

		cutoff := time.Now().Add(-wp.passivateAfter).UnixNano()
		for _, shard := range wp.shards {
			shard.mu.Lock()
			if shard.stopped {
				shard.mu.Unlock()
				continue
			}

			pos := 0
			for pos < len(shard.idleWorkers) && shard.idleWorkers[pos].lastUsed.Load() < cutoff {
				pos++
			}
			if pos > 0 {
				expired = append(expired[:0], shard.idleWorkers[:pos]...)
				remaining := copy(shard.idleWorkers, shard.idleWorkers[pos:])
				for i := remaining; i < len(shard.idleWorkers); i++ {
					shard.idleWorkers[i] = nil
				}
				shard.idleWorkers = shard.idleWorkers[:remaining]
			}
			shard.mu.Unlock()

			for i, w := range expired {
				close(w.workChan)
				expired[i] = nil
			}
			expired = expired[:0]
		}
	}
}
