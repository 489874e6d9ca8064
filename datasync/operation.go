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

package datasync

import "context"

// Operation is the handle of a load or save started by the Manager.
// Operations never fail loudly: a store failure is logged and reported by
// Err, and the caches are left in a well defined state.
type Operation struct {
	done    chan struct{}
	skipped bool
	err     error
}

func newOperation() *Operation {
	return &Operation{done: make(chan struct{})}
}

// skippedOperation returns a settled operation for a request that issued no
// store call, because it was a duplicate or carried nothing to persist.
func skippedOperation() *Operation {
	op := newOperation()
	op.skipped = true
	close(op.done)
	return op
}

func failedOperation(err error) *Operation {
	op := newOperation()
	op.err = err
	close(op.done)
	return op
}

func (o *Operation) settle(err error) {
	o.err = err
	close(o.done)
}

// Done returns a channel closed once the operation has completed
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the operation completes and returns its failure.
// It returns ctx's error when ctx is done first.
func (o *Operation) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Skipped reports whether the request was dropped without a store call
func (o *Operation) Skipped() bool {
	return o.skipped
}

// Err returns the failure of a completed operation, or nil while it runs
func (o *Operation) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}
