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

package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/log"
)

func TestLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("With posts running in order on one goroutine", func(t *testing.T) {
		ctx := context.Background()
		l := New(log.DiscardLogger)
		l.Start()
		l.Start()

		var seen []int
		for i := range 100 {
			require.NoError(t, l.Post(func() { seen = append(seen, i) }))
		}

		var snapshot []int
		require.NoError(t, l.Do(ctx, func() { snapshot = append(snapshot, seen...) }))
		require.Len(t, snapshot, 100)
		for i, v := range snapshot {
			require.Equal(t, i, v)
		}

		require.NoError(t, l.Stop(ctx))
		require.EqualValues(t, 101, l.Processed())
		require.Zero(t, l.Pending())
	})
	t.Run("With concurrent producers", func(t *testing.T) {
		ctx := context.Background()
		l := New(nil)
		l.Start()

		counter := 0
		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 100 {
					assert.NoError(t, l.Post(func() { counter++ }))
				}
			}()
		}
		wg.Wait()

		var total int
		require.NoError(t, l.Do(ctx, func() { total = counter }))
		require.Equal(t, 1600, total)
		require.NoError(t, l.Stop(ctx))
	})
	t.Run("With stop draining pending posts", func(t *testing.T) {
		ctx := context.Background()
		l := New(log.DiscardLogger)
		l.Start()

		block := make(chan struct{})
		require.NoError(t, l.Post(func() { <-block }))
		ran := make(chan struct{})
		require.NoError(t, l.Post(func() { close(ran) }))

		stopped := make(chan error, 1)
		go func() { stopped <- l.Stop(ctx) }()
		close(block)

		require.NoError(t, <-stopped)
		select {
		case <-ran:
		default:
			t.Fatal("pending post did not run before stop returned")
		}

		require.ErrorIs(t, l.Post(func() {}), errors.ErrLoopStopped)
		require.ErrorIs(t, l.Do(ctx, func() {}), errors.ErrLoopStopped)
		require.NoError(t, l.Stop(ctx))
	})
	t.Run("With panic recovered", func(t *testing.T) {
		ctx := context.Background()
		l := New(log.DiscardLogger)
		l.Start()
		require.NoError(t, l.Post(func() { panic("boom") }))
		require.NoError(t, l.Do(ctx, func() {}))
		require.NoError(t, l.Stop(ctx))
	})
	t.Run("With do bounded by context", func(t *testing.T) {
		l := New(log.DiscardLogger)
		l.Start()
		release := make(chan struct{})
		require.NoError(t, l.Post(func() { <-release }))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		require.ErrorIs(t, l.Do(ctx, func() {}), context.DeadlineExceeded)

		close(release)
		require.NoError(t, l.Stop(context.Background()))
	})
	t.Run("When not started", func(t *testing.T) {
		l := New(log.DiscardLogger)
		require.ErrorIs(t, l.Post(func() {}), errors.ErrLoopStopped)
		require.NoError(t, l.Stop(context.Background()))
		l.Start()
		require.False(t, l.started.Load())
	})
}
