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

// Package provider opens the store backend selected by configuration.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/store"
	"github.com/tochemey/mapsync/store/bolt"
	"github.com/tochemey/mapsync/store/memory"
	"github.com/tochemey/mapsync/store/redis"
	"github.com/tochemey/mapsync/store/sqlite"
)

// Kind names a store backend
type Kind string

const (
	Memory Kind = "memory"
	Bolt   Kind = "bolt"
	Redis  Kind = "redis"
	SQLite Kind = "sqlite"
)

// ParseKind returns the backend kind for the given name
func ParseKind(name string) (Kind, error) {
	switch kind := Kind(strings.ToLower(strings.TrimSpace(name))); kind {
	case Memory, Bolt, Redis, SQLite:
		return kind, nil
	default:
		return "", fmt.Errorf("%q: %w", name, errors.ErrInvalidBackend)
	}
}

// Config selects and configures a backend
type Config struct {
	Kind Kind

	BoltPath    string
	BoltTimeout time.Duration

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisNamespace string
	RedisRetries   int

	SQLitePath string
}

// Open opens the configured backend
func Open(ctx context.Context, cfg Config) (store.Backend, error) {
	switch cfg.Kind {
	case Memory, "":
		return memory.New(), nil
	case Bolt:
		return opened(bolt.Open(cfg.BoltPath, cfg.BoltTimeout))
	case Redis:
		return opened(redis.Open(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.RedisNamespace, cfg.RedisRetries))
	case SQLite:
		return opened(sqlite.Open(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Kind, errors.ErrInvalidBackend)
	}
}

// opened keeps a failed open from returning a typed nil backend
func opened[T store.Backend](backend T, err error) (store.Backend, error) {
	if err != nil {
		return nil, err
	}
	return backend, nil
}
