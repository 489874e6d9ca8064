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

package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWorkerPool(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("With happy path", func(t *testing.T) {
		pool := New(WithNumShards(8), WithPassivateAfter(50*time.Millisecond))
		require.NotNil(t, pool)

		pool.Start()
		require.Zero(t, pool.SpawnedWorkers())

		const workCount = 500
		var executed atomic.Int64
		var wg sync.WaitGroup
		wg.Add(workCount)
		for range workCount {
			require.True(t, pool.SubmitWork(func() {
				defer wg.Done()
				time.Sleep(time.Millisecond)
				executed.Add(1)
			}))
		}

		wg.Wait()
		require.EqualValues(t, workCount, executed.Load())
		require.NotZero(t, pool.SpawnedWorkers())

		// idle workers are passivated
		require.Eventually(t, func() bool {
			return pool.SpawnedWorkers() == 0
		}, 2*time.Second, 10*time.Millisecond)

		pool.Stop()
		pool.Stop()
		require.NoError(t, pool.Wait(context.Background()))
		require.False(t, pool.SubmitWork(func() {}))
	})
	t.Run("When not started", func(t *testing.T) {
		pool := New()
		require.NotNil(t, pool)
		require.False(t, pool.SubmitWork(func() {}))
		pool.Stop()
		require.False(t, pool.stopped.Load())
	})
	t.Run("With busy worker during stop", func(t *testing.T) {
		pool := New(WithNumShards(1000))
		require.Equal(t, maxShards, pool.numShards)
		pool.Start()

		release := make(chan struct{})
		started := make(chan struct{})
		require.True(t, pool.SubmitWork(func() {
			close(started)
			<-release
		}))
		<-started

		pool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		require.ErrorIs(t, pool.Wait(ctx), context.DeadlineExceeded)

		close(release)
		require.NoError(t, pool.Wait(context.Background()))
		require.Zero(t, pool.SpawnedWorkers())
	})
}
