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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by a store when the requested record does not exist.
	// It is not a failure: storage loads turn it into an empty inventory and
	// party/guild loads turn it into a cache eviction.
	ErrNotFound = errors.New("record not found")

	// ErrJobTimeout is returned when a job did not settle within its bounded wait.
	ErrJobTimeout = errors.New("job timed out")

	// ErrJobCanceled is returned when the context of a job is canceled before the job settled.
	ErrJobCanceled = errors.New("job canceled")

	// ErrExecutorStopped is returned when a job is started against an executor that no longer accepts work.
	ErrExecutorStopped = errors.New("executor is stopped")

	// ErrJobAlreadyStarted is returned when Start is called more than once on the same job.
	ErrJobAlreadyStarted = errors.New("job has already started")

	// ErrBatchInProgress is returned when a batch save is requested while the previous
	// batch of the same kind has not drained yet.
	ErrBatchInProgress = errors.New("batch save is still in progress")

	// ErrStoreClosed is returned when an operation is attempted on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrStoreRequired is returned when a manager is created without a store.
	ErrStoreRequired = errors.New("store is required")

	// ErrResidentsRequired is returned when a manager is created without a residents provider.
	ErrResidentsRequired = errors.New("residents provider is required")

	// ErrNotStarted is returned when the manager is used before Start.
	ErrNotStarted = errors.New("data manager has not started")

	// ErrAlreadyStarted is returned when Start is called on a running manager.
	ErrAlreadyStarted = errors.New("data manager has already started")

	// ErrLoopStopped is returned when work is posted to a stopped loop.
	ErrLoopStopped = errors.New("loop is stopped")

	// ErrSchedulerNotStarted is returned when attempting to use the scheduler before it has started.
	ErrSchedulerNotStarted = errors.New("scheduler has not started")

	// ErrInvalidTimeout is returned when a timeout value is less than or equal to zero.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidBackend is returned when the configured store backend is unknown.
	ErrInvalidBackend = errors.New("invalid store backend, must be one of: 'memory', 'bolt', 'redis' or 'sqlite'")
)

// StoreError defines a failure reported by the persistent store
type StoreError struct {
	op  string
	err error
}

// enforce compilation error
var _ error = (*StoreError)(nil)

// NewStoreError returns an instance of StoreError for the given store operation
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{
		op:  op,
		err: fmt.Errorf("store %s: %w", op, err),
	}
}

// Error implements the standard error interface
func (s *StoreError) Error() string {
	return s.err.Error()
}

// Op returns the name of the store operation that failed
func (s *StoreError) Op() string {
	return s.op
}

func (s *StoreError) Unwrap() error {
	return s.err
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
