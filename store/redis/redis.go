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

// Package redis provides a Backend persisted in a redis server.
//
// Keys are namespaced so several map servers can share one redis database:
//
//	<namespace>:storage:<kind>:<owner>
//	<namespace>:party:<id>
//	<namespace>:guild:<id>
//	<namespace>:character:<id>
//	<namespace>:building:<scene>:<id>
package redis

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/redis/go-redis/v9"

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/internal/codec"
	"github.com/tochemey/mapsync/model"
	"github.com/tochemey/mapsync/store"
)

// Options is the redis client configuration
type Options = redis.Options

// keyEscaper keeps a ':' inside a key part from reading as a separator
var keyEscaper = strings.NewReplacer(`\`, `\\`, ":", `\:`)

// Store is a redis-backed Backend
type Store struct {
	namespace string
	client    *redis.Client
	closed    atomic.Bool
}

var _ store.Backend = (*Store)(nil)

// Open connects to the redis server and verifies the connection, retrying
// the ping up to maxRetries times with an exponential backoff.
func Open(ctx context.Context, options Options, namespace string, maxRetries int) (*Store, error) {
	client := redis.NewClient(&options)

	const (
		initialDelay = 100 * time.Millisecond
		maxDelay     = time.Second
	)
	retrier := retry.NewRetrier(maxRetries, initialDelay, maxDelay)
	if err := retrier.RunContext(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: connecting to %s: %w", options.Addr, err)
	}

	return &Store{namespace: namespace, client: client}, nil
}

// ReadStorageItems returns the inventory of the given owner
func (s *Store) ReadStorageItems(ctx context.Context, kind model.StorageKind, ownerID string) (model.ItemList, error) {
	var items model.ItemList
	if err := s.get(ctx, s.storageKey(kind, ownerID), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = model.ItemList{}
	}
	return items, nil
}

// ReadParty returns the party with the given id
func (s *Store) ReadParty(ctx context.Context, id int) (*model.PartyRecord, error) {
	party := new(model.PartyRecord)
	if err := s.get(ctx, s.key("party", strconv.Itoa(id)), party); err != nil {
		return nil, err
	}
	return party, nil
}

// ReadGuild returns the guild with the given id
func (s *Store) ReadGuild(ctx context.Context, id int, roles []model.GuildRole) (*model.GuildRecord, error) {
	guild := new(model.GuildRecord)
	if err := s.get(ctx, s.key("guild", strconv.Itoa(id)), guild); err != nil {
		return nil, err
	}
	return store.ApplyRoles(guild, roles), nil
}

// UpdateCharacter persists the character record
func (s *Store) UpdateCharacter(ctx context.Context, record *model.CharacterRecord) error {
	return s.set(ctx, s.key("character", record.ID), record)
}

// UpdateStorageItems replaces the inventory of the given owner
func (s *Store) UpdateStorageItems(ctx context.Context, kind model.StorageKind, ownerID string, items model.ItemList) error {
	if items == nil {
		items = model.ItemList{}
	}
	return s.set(ctx, s.storageKey(kind, ownerID), items)
}

// UpdateBuilding persists the building of the given scene
func (s *Store) UpdateBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error {
	return s.set(ctx, s.key("building", scene, record.ID), record)
}

// CreateBuilding persists a new building in the given scene
func (s *Store) CreateBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error {
	return s.set(ctx, s.key("building", scene, record.ID), record)
}

// DeleteBuilding removes the building and its inventory atomically
func (s *Store) DeleteBuilding(ctx context.Context, scene string, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key("building", scene, id))
		pipe.Del(ctx, s.storageKey(model.StorageBuilding, id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: deleting building %s: %w", id, err)
	}
	return nil
}

// ReadCharacter returns the character with the given id
func (s *Store) ReadCharacter(ctx context.Context, id string) (*model.CharacterRecord, error) {
	character := new(model.CharacterRecord)
	if err := s.get(ctx, s.key("character", id), character); err != nil {
		return nil, err
	}
	return character, nil
}

// ReadBuilding returns the building with the given id in the given scene
func (s *Store) ReadBuilding(ctx context.Context, scene string, id string) (*model.BuildingRecord, error) {
	building := new(model.BuildingRecord)
	if err := s.get(ctx, s.key("building", scene, id), building); err != nil {
		return nil, err
	}
	return building, nil
}

// WriteParty persists a party record
func (s *Store) WriteParty(ctx context.Context, record *model.PartyRecord) error {
	return s.set(ctx, s.key("party", strconv.Itoa(record.ID)), record)
}

// WriteGuild persists a guild record
func (s *Store) WriteGuild(ctx context.Context, record *model.GuildRecord) error {
	return s.set(ctx, s.key("guild", strconv.Itoa(record.ID)), record)
}

// Close closes the redis client
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.client.Close()
}

func (s *Store) get(ctx context.Context, key string, value any) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return fmt.Errorf("%s: %w", key, errors.ErrNotFound)
		}
		return fmt.Errorf("redis: reading %s: %w", key, err)
	}
	return codec.Decode(payload, value)
}

func (s *Store) set(ctx context.Context, key string, value any) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	payload, err := codec.Encode(value)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis: writing %s: %w", key, err)
	}
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return errors.ErrStoreClosed
	}
	return nil
}

func (s *Store) storageKey(kind model.StorageKind, ownerID string) string {
	return s.key("storage", strconv.Itoa(int(kind)), ownerID)
}

func (s *Store) key(parts ...string) string {
	key := s.namespace
	for _, part := range parts {
		key += ":" + keyEscaper.Replace(part)
	}
	return key
}
