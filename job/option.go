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

package job

import (
	"time"

	"github.com/tochemey/mapsync/log"
)

// DefaultTimeout is the bounded wait applied to a job when none is set
const DefaultTimeout = 30 * time.Second

// Executor runs tasks out of band. SubmitWork returns false when the task
// was rejected and will never run.
type Executor interface {
	SubmitWork(task func()) bool
}

// Observer is notified exactly once when a job settles
type Observer func(name string, latency time.Duration, err error)

// Option configures a Job
type Option func(*config)

type config struct {
	executor Executor
	timeout  time.Duration
	logger   log.Logger
	observer Observer
	key      string
}

func defaultConfig() *config {
	return &config{
		timeout: DefaultTimeout,
		logger:  log.DiscardLogger,
	}
}

// WithExecutor sets the executor running the task.
// Without an executor the task runs on its own goroutine.
func WithExecutor(executor Executor) Option {
	return func(c *config) {
		c.executor = executor
	}
}

// WithTimeout bounds the time a job may take before it settles as failed.
// A non-positive timeout disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger failures are reported to
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver sets the settle observer
func WithObserver(observer Observer) Option {
	return func(c *config) {
		c.observer = observer
	}
}

// WithKey sets the entity key the job works on. It only appears in logs.
func WithKey(key string) Option {
	return func(c *config) {
		c.key = key
	}
}
