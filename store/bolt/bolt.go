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

// Package bolt provides a Backend persisted in a single bbolt file.
//
// Every record kind lives in its own bucket and is encoded with the shared
// record codec. bbolt provides single-writer/multi-reader semantics; the
// store only guards its closed state.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/internal/codec"
	"github.com/tochemey/mapsync/model"
	"github.com/tochemey/mapsync/store"
)

const fileMode os.FileMode = 0o600

var (
	storageBucket   = []byte("storage_items")
	partyBucket     = []byte("parties")
	guildBucket     = []byte("guilds")
	characterBucket = []byte("characters")
	buildingBucket  = []byte("buildings")

	buckets = [][]byte{storageBucket, partyBucket, guildBucket, characterBucket, buildingBucket}

	// keyEscaper keeps a '/' inside a scene name from reading as a separator
	keyEscaper = strings.NewReplacer(`\`, `\\`, "/", `\/`)
)

// Store is a bbolt-backed Backend
type Store struct {
	db     *bbolt.DB
	path   string
	closed atomic.Bool
}

var _ store.Backend = (*Store)(nil)

// Open opens (or creates) the database file at path. The parent directory
// is created when missing. The open waits at most timeout for the file lock.
func Open(path string, timeout time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("bolt: creating directory: %w", err)
	}

	db, err := bbolt.Open(path, fileMode, &bbolt.Options{Timeout: timeout, NoGrowSync: true})
	if err != nil {
		return nil, fmt.Errorf("bolt: opening %s: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, e := tx.CreateBucketIfNotExists(name); e != nil {
				return e
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt: initializing buckets: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// ReadStorageItems returns the inventory of the given owner
func (s *Store) ReadStorageItems(ctx context.Context, kind model.StorageKind, ownerID string) (model.ItemList, error) {
	var items model.ItemList
	if err := s.get(ctx, storageBucket, storageKey(kind, ownerID), &items); err != nil {
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
	if err := s.get(ctx, partyBucket, strconv.Itoa(id), party); err != nil {
		return nil, err
	}
	return party, nil
}

// ReadGuild returns the guild with the given id
func (s *Store) ReadGuild(ctx context.Context, id int, roles []model.GuildRole) (*model.GuildRecord, error) {
	guild := new(model.GuildRecord)
	if err := s.get(ctx, guildBucket, strconv.Itoa(id), guild); err != nil {
		return nil, err
	}
	return store.ApplyRoles(guild, roles), nil
}

// UpdateCharacter persists the character record
func (s *Store) UpdateCharacter(ctx context.Context, record *model.CharacterRecord) error {
	return s.put(ctx, characterBucket, record.ID, record)
}

// UpdateStorageItems replaces the inventory of the given owner
func (s *Store) UpdateStorageItems(ctx context.Context, kind model.StorageKind, ownerID string, items model.ItemList) error {
	if items == nil {
		items = model.ItemList{}
	}
	return s.put(ctx, storageBucket, storageKey(kind, ownerID), items)
}

// UpdateBuilding persists the building of the given scene
func (s *Store) UpdateBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error {
	return s.put(ctx, buildingBucket, buildingKey(scene, record.ID), record)
}

// CreateBuilding persists a new building in the given scene
func (s *Store) CreateBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error {
	return s.put(ctx, buildingBucket, buildingKey(scene, record.ID), record)
}

// DeleteBuilding removes the building and its inventory in a single transaction
func (s *Store) DeleteBuilding(ctx context.Context, scene string, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(buildingBucket).Delete([]byte(buildingKey(scene, id))); err != nil {
			return err
		}
		return tx.Bucket(storageBucket).Delete([]byte(storageKey(model.StorageBuilding, id)))
	})
}

// ReadCharacter returns the character with the given id
func (s *Store) ReadCharacter(ctx context.Context, id string) (*model.CharacterRecord, error) {
	character := new(model.CharacterRecord)
	if err := s.get(ctx, characterBucket, id, character); err != nil {
		return nil, err
	}
	return character, nil
}

// ReadBuilding returns the building with the given id in the given scene
func (s *Store) ReadBuilding(ctx context.Context, scene string, id string) (*model.BuildingRecord, error) {
	building := new(model.BuildingRecord)
	if err := s.get(ctx, buildingBucket, buildingKey(scene, id), building); err != nil {
		return nil, err
	}
	return building, nil
}

// WriteParty persists a party record
func (s *Store) WriteParty(ctx context.Context, record *model.PartyRecord) error {
	return s.put(ctx, partyBucket, strconv.Itoa(record.ID), record)
}

// WriteGuild persists a guild record
func (s *Store) WriteGuild(ctx context.Context, record *model.GuildRecord) error {
	return s.put(ctx, guildBucket, strconv.Itoa(record.ID), record)
}

// Close releases the underlying bbolt handle. The file is kept.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) get(ctx context.Context, bucket []byte, key string, value any) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	return s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucket).Get([]byte(key))
		if raw == nil {
			return fmt.Errorf("%s %s: %w", bucket, key, errors.ErrNotFound)
		}
		// raw is only valid during the transaction and Decode does not retain it
		return codec.Decode(raw, value)
	})
}

func (s *Store) put(ctx context.Context, bucket []byte, key string, value any) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	payload, err := codec.Encode(value)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), payload)
	})
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

func storageKey(kind model.StorageKind, ownerID string) string {
	return strconv.Itoa(int(kind)) + "/" + ownerID
}

func buildingKey(scene, id string) string {
	return keyEscaper.Replace(scene) + "/" + id
}
