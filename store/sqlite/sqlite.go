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

// Package sqlite provides a Backend persisted in a SQLite database through
// the cgo-free modernc driver. Records are stored as encoded payloads keyed
// by their identifiers.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // registers the sqlite driver

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/internal/codec"
	"github.com/tochemey/mapsync/model"
	"github.com/tochemey/mapsync/store"
)

//go:embed schema.sql
var schema string

// Store is a SQLite-backed Backend
type Store struct {
	sqlDB  *sql.DB
	closed atomic.Bool
}

var _ store.Backend = (*Store)(nil)

// Open opens the database at path and creates the schema when missing
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlite: ping db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// ReadStorageItems returns the inventory of the given owner
func (s *Store) ReadStorageItems(ctx context.Context, kind model.StorageKind, ownerID string) (model.ItemList, error) {
	var items model.ItemList
	if err := s.get(ctx, &items,
		"SELECT payload FROM storage_items WHERE kind = ? AND owner_id = ?", int(kind), ownerID); err != nil {
		return nil, fmt.Errorf("storage %s/%s: %w", kind, ownerID, err)
	}
	if items == nil {
		items = model.ItemList{}
	}
	return items, nil
}

// ReadParty returns the party with the given id
func (s *Store) ReadParty(ctx context.Context, id int) (*model.PartyRecord, error) {
	party := new(model.PartyRecord)
	if err := s.get(ctx, party, "SELECT payload FROM parties WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("party %d: %w", id, err)
	}
	return party, nil
}

// ReadGuild returns the guild with the given id
func (s *Store) ReadGuild(ctx context.Context, id int, roles []model.GuildRole) (*model.GuildRecord, error) {
	guild := new(model.GuildRecord)
	if err := s.get(ctx, guild, "SELECT payload FROM guilds WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("guild %d: %w", id, err)
	}
	return store.ApplyRoles(guild, roles), nil
}

// UpdateCharacter persists the character record
func (s *Store) UpdateCharacter(ctx context.Context, record *model.CharacterRecord) error {
	return s.exec(ctx, record,
		`INSERT INTO characters (id, user_id, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET user_id = excluded.user_id, payload = excluded.payload, updated_at = excluded.updated_at`,
		record.ID, record.UserID)
}

// UpdateStorageItems replaces the inventory of the given owner
func (s *Store) UpdateStorageItems(ctx context.Context, kind model.StorageKind, ownerID string, items model.ItemList) error {
	if items == nil {
		items = model.ItemList{}
	}
	return s.exec(ctx, items,
		`INSERT INTO storage_items (kind, owner_id, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (kind, owner_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		int(kind), ownerID)
}

// UpdateBuilding persists the building of the given scene
func (s *Store) UpdateBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error {
	return s.upsertBuilding(ctx, scene, record)
}

// CreateBuilding persists a new building in the given scene
func (s *Store) CreateBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error {
	return s.upsertBuilding(ctx, scene, record)
}

// DeleteBuilding removes the building and its inventory in a single transaction
func (s *Store) DeleteBuilding(ctx context.Context, scene string, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin delete building: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM buildings WHERE scene = ? AND id = ?", scene, id); err != nil {
		return fmt.Errorf("sqlite: delete building %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM storage_items WHERE kind = ? AND owner_id = ?", int(model.StorageBuilding), id); err != nil {
		return fmt.Errorf("sqlite: delete building storage %s: %w", id, err)
	}
	return tx.Commit()
}

// ReadCharacter returns the character with the given id
func (s *Store) ReadCharacter(ctx context.Context, id string) (*model.CharacterRecord, error) {
	character := new(model.CharacterRecord)
	if err := s.get(ctx, character, "SELECT payload FROM characters WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("character %s: %w", id, err)
	}
	return character, nil
}

// ReadBuilding returns the building with the given id in the given scene
func (s *Store) ReadBuilding(ctx context.Context, scene string, id string) (*model.BuildingRecord, error) {
	building := new(model.BuildingRecord)
	if err := s.get(ctx, building, "SELECT payload FROM buildings WHERE scene = ? AND id = ?", scene, id); err != nil {
		return nil, fmt.Errorf("building %s/%s: %w", scene, id, err)
	}
	return building, nil
}

// WriteParty persists a party record
func (s *Store) WriteParty(ctx context.Context, record *model.PartyRecord) error {
	return s.execNoTime(ctx, record,
		"INSERT INTO parties (id, payload) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET payload = excluded.payload",
		record.ID)
}

// WriteGuild persists a guild record
func (s *Store) WriteGuild(ctx context.Context, record *model.GuildRecord) error {
	return s.execNoTime(ctx, record,
		"INSERT INTO guilds (id, payload) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET payload = excluded.payload",
		record.ID)
}

// Close closes the SQLite handle
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) upsertBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error {
	return s.exec(ctx, record,
		`INSERT INTO buildings (scene, id, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (scene, id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		scene, record.ID)
}

func (s *Store) get(ctx context.Context, value any, query string, args ...any) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	var payload []byte
	if err := s.sqlDB.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.ErrNotFound
		}
		return fmt.Errorf("sqlite: query: %w", err)
	}
	return codec.Decode(payload, value)
}

// exec runs an upsert whose trailing arguments are the payload and the update time
func (s *Store) exec(ctx context.Context, value any, query string, keys ...any) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	payload, err := codec.Encode(value)
	if err != nil {
		return err
	}

	args := append(keys, payload, time.Now().UTC().UnixMilli())
	if _, err := s.sqlDB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// execNoTime runs an upsert whose trailing argument is the payload
func (s *Store) execNoTime(ctx context.Context, value any, query string, keys ...any) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	payload, err := codec.Encode(value)
	if err != nil {
		return err
	}

	if _, err := s.sqlDB.ExecContext(ctx, query, append(keys, payload)...); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
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
