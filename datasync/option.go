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

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/mapsync/job"
	"github.com/tochemey/mapsync/log"
	"github.com/tochemey/mapsync/model"
)

const (
	// DefaultDrainInterval is how often a batch save re-checks its in-flight set
	DefaultDrainInterval = 10 * time.Millisecond
	// DefaultWorkerShards is the number of worker pool shards store jobs run on
	DefaultWorkerShards = 4
	// DefaultStopTimeout bounds the scheduler shutdown
	DefaultStopTimeout = 5 * time.Second
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(cfg *settings)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*settings)

func (f OptionFunc) Apply(c *settings) {
	f(c)
}

type settings struct {
	logger         log.Logger
	logInfo        bool
	sceneName      string
	guildRoles     []model.GuildRole
	jobTimeout     time.Duration
	drainInterval  time.Duration
	saveInterval   time.Duration
	saveOnStop     bool
	workerShards   int
	passivateAfter time.Duration
	meterProvider  metric.MeterProvider
}

func defaultSettings() *settings {
	return &settings{
		logger:         log.DefaultLogger,
		jobTimeout:     job.DefaultTimeout,
		drainInterval:  DefaultDrainInterval,
		workerShards:   DefaultWorkerShards,
		passivateAfter: time.Minute,
	}
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(c *settings) {
		c.logger = logger
	})
}

// WithLogInfo enables the debug messages emitted on every successful save
func WithLogInfo(enabled bool) Option {
	return OptionFunc(func(c *settings) {
		c.logInfo = enabled
	})
}

// WithSceneName sets the scene building records are persisted under
func WithSceneName(name string) Option {
	return OptionFunc(func(c *settings) {
		c.sceneName = name
	})
}

// WithGuildRoles sets the role table handed to the store when a guild is read
func WithGuildRoles(roles ...model.GuildRole) Option {
	return OptionFunc(func(c *settings) {
		c.guildRoles = append([]model.GuildRole(nil), roles...)
	})
}

// WithJobTimeout bounds every store operation.
// A non-positive timeout lets a hung store operation wait forever.
func WithJobTimeout(timeout time.Duration) Option {
	return OptionFunc(func(c *settings) {
		c.jobTimeout = timeout
	})
}

// WithDrainInterval sets how often a batch save re-checks whether its saves have completed
func WithDrainInterval(interval time.Duration) Option {
	return OptionFunc(func(c *settings) {
		c.drainInterval = interval
	})
}

// WithSaveInterval enables the periodic checkpoint. Every interval all
// resident characters and buildings are saved.
func WithSaveInterval(interval time.Duration) Option {
	return OptionFunc(func(c *settings) {
		c.saveInterval = interval
	})
}

// WithSaveOnStop runs a final checkpoint when the manager stops
func WithSaveOnStop() Option {
	return OptionFunc(func(c *settings) {
		c.saveOnStop = true
	})
}

// WithWorkerShards sets the number of worker pool shards
func WithWorkerShards(shards int) Option {
	return OptionFunc(func(c *settings) {
		c.workerShards = shards
	})
}

// WithWorkerPassivateAfter sets how long an idle store worker is kept around
func WithWorkerPassivateAfter(d time.Duration) Option {
	return OptionFunc(func(c *settings) {
		c.passivateAfter = d
	})
}

// WithMeterProvider sets the OpenTelemetry meter provider.
// The global meter provider is used when none is set.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(c *settings) {
		c.meterProvider = provider
	})
}
