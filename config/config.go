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

// Package config loads the data manager settings from the environment.
// Every variable carries the MAPSYNC_ prefix, for instance MAPSYNC_SCENE_NAME
// or MAPSYNC_STORE_BACKEND.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"

	"github.com/tochemey/mapsync/datasync"
	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/log"
	"github.com/tochemey/mapsync/store/provider"
)

// Prefix is prepended to every environment variable name
const Prefix = "MAPSYNC_"

// Config represents the data manager configuration
type Config struct {
	// SceneName is the map the buildings belong to
	SceneName string `env:"SCENE_NAME"`
	// LogLevel is one of debug, info, warn or error
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogInfo logs every completed save
	LogInfo bool `env:"LOG_INFO"`

	JobTimeout    time.Duration `env:"JOB_TIMEOUT" envDefault:"30s"`
	DrainInterval time.Duration `env:"DRAIN_INTERVAL" envDefault:"10ms"`
	// SaveInterval enables the periodic checkpoint when positive
	SaveInterval time.Duration `env:"SAVE_INTERVAL" envDefault:"0s"`
	SaveOnStop   bool          `env:"SAVE_ON_STOP"`
	WorkerShards int           `env:"WORKER_SHARDS" envDefault:"4"`

	Store Store `envPrefix:"STORE_"`
}

// Store configures the persistence backend
type Store struct {
	Backend string `env:"BACKEND" envDefault:"memory"`

	BoltPath    string        `env:"BOLT_PATH" envDefault:"data/mapsync.db"`
	BoltTimeout time.Duration `env:"BOLT_TIMEOUT" envDefault:"1s"`

	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB"`
	RedisNamespace string `env:"REDIS_NAMESPACE" envDefault:"mapsync"`
	RedisRetries   int    `env:"REDIS_RETRIES" envDefault:"3"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/mapsync.sqlite"`
}

// Load reads the configuration from the process environment and validates it
func Load() (*Config, error) {
	config := new(Config)
	if err := env.ParseWithOptions(config, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var err error
	if _, e := log.ParseLevel(c.LogLevel); e != nil {
		err = multierr.Append(err, e)
	}
	if c.JobTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("job timeout %s: %w", c.JobTimeout, errors.ErrInvalidTimeout))
	}
	if c.DrainInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("drain interval %s: %w", c.DrainInterval, errors.ErrInvalidTimeout))
	}
	if c.SaveInterval < 0 {
		err = multierr.Append(err, fmt.Errorf("save interval %s: %w", c.SaveInterval, errors.ErrInvalidTimeout))
	}
	if c.WorkerShards <= 0 {
		err = multierr.Append(err, fmt.Errorf("worker shards must be positive, got %d", c.WorkerShards))
	}

	kind, e := provider.ParseKind(c.Store.Backend)
	if e != nil {
		return multierr.Append(err, e)
	}
	switch kind {
	case provider.Bolt:
		if c.Store.BoltPath == "" {
			err = multierr.Append(err, fmt.Errorf("bolt backend requires %sSTORE_BOLT_PATH", Prefix))
		}
		if c.Store.BoltTimeout <= 0 {
			err = multierr.Append(err, fmt.Errorf("bolt timeout %s: %w", c.Store.BoltTimeout, errors.ErrInvalidTimeout))
		}
	case provider.Redis:
		if c.Store.RedisAddr == "" {
			err = multierr.Append(err, fmt.Errorf("redis backend requires %sSTORE_REDIS_ADDR", Prefix))
		}
	case provider.SQLite:
		if c.Store.SQLitePath == "" {
			err = multierr.Append(err, fmt.Errorf("sqlite backend requires %sSTORE_SQLITE_PATH", Prefix))
		}
	}
	return err
}

// Logger returns a zap logger at the configured level writing to w, or to
// stdout when w is nil
func (c *Config) Logger(w io.Writer) log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if w == nil {
		w = os.Stdout
	}
	return log.NewZap(level, w)
}

// Options renders the data manager options. logger is used as is.
func (c *Config) Options(logger log.Logger) []datasync.Option {
	opts := []datasync.Option{
		datasync.WithLogger(logger),
		datasync.WithLogInfo(c.LogInfo),
		datasync.WithSceneName(c.SceneName),
		datasync.WithJobTimeout(c.JobTimeout),
		datasync.WithDrainInterval(c.DrainInterval),
		datasync.WithWorkerShards(c.WorkerShards),
	}
	if c.SaveInterval > 0 {
		opts = append(opts, datasync.WithSaveInterval(c.SaveInterval))
	}
	if c.SaveOnStop {
		opts = append(opts, datasync.WithSaveOnStop())
	}
	return opts
}

// StoreConfig renders the backend configuration
func (c *Config) StoreConfig() (provider.Config, error) {
	kind, err := provider.ParseKind(c.Store.Backend)
	if err != nil {
		return provider.Config{}, err
	}
	return provider.Config{
		Kind:           kind,
		BoltPath:       c.Store.BoltPath,
		BoltTimeout:    c.Store.BoltTimeout,
		RedisAddr:      c.Store.RedisAddr,
		RedisPassword:  c.Store.RedisPassword,
		RedisDB:        c.Store.RedisDB,
		RedisNamespace: c.Store.RedisNamespace,
		RedisRetries:   c.Store.RedisRetries,
		SQLitePath:     c.Store.SQLitePath,
	}, nil
}
