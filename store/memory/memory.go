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

// Package memory provides an in-process Backend. Records are deep copied on
// the way in and out so callers never share memory with the store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/model"
	"github.com/tochemey/mapsync/store"
)

type buildingKey struct {
	scene string
	id    string
}

// Store is an in-memory Backend
type Store struct {
	mu         sync.RWMutex
	storages   map[model.StorageID]model.ItemList
	parties    map[int]*model.PartyRecord
	guilds     map[int]*model.GuildRecord
	characters map[string]*model.CharacterRecord
	buildings  map[buildingKey]*model.BuildingRecord
	closed     bool
}

var _ store.Backend = (*Store)(nil)

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		storages:   make(map[model.StorageID]model.ItemList),
		parties:    make(map[int]*model.PartyRecord),
		guilds:     make(map[int]*model.GuildRecord),
		characters: make(map[string]*model.CharacterRecord),
		buildings:  make(map[buildingKey]*model.BuildingRecord),
	}
}

// ReadStorageItems returns the inventory of the given owner
func (s *Store) ReadStorageItems(ctx context.Context, kind model.StorageKind, ownerID string) (model.ItemList, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	items, ok := s.storages[model.NewStorageID(kind, ownerID)]
	if !ok {
		return nil, fmt.Errorf("storage %s/%s: %w", kind, ownerID, errors.ErrNotFound)
	}
	return items.Clone(), nil
}

// ReadParty returns the party with the given id
func (s *Store) ReadParty(ctx context.Context, id int) (*model.PartyRecord, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	party, ok := s.parties[id]
	if !ok {
		return nil, fmt.Errorf("party %d: %w", id, errors.ErrNotFound)
	}
	return party.Clone(), nil
}

// ReadGuild returns the guild with the given id
func (s *Store) ReadGuild(ctx context.Context, id int, roles []model.GuildRole) (*model.GuildRecord, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	guild, ok := s.guilds[id]
	if !ok {
		return nil, fmt.Errorf("guild %d: %w", id, errors.ErrNotFound)
	}
	return store.ApplyRoles(guild.Clone(), roles), nil
}

// UpdateCharacter persists the character record
func (s *Store) UpdateCharacter(ctx context.Context, record *model.CharacterRecord) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.characters[record.ID] = record.Clone()
	s.mu.Unlock()
	return nil
}

// UpdateStorageItems replaces the inventory of the given owner
func (s *Store) UpdateStorageItems(ctx context.Context, kind model.StorageKind, ownerID string, items model.ItemList) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.storages[model.NewStorageID(kind, ownerID)] = items.Clone()
	s.mu.Unlock()
	return nil
}

// UpdateBuilding persists the building of the given scene
func (s *Store) UpdateBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.buildings[buildingKey{scene: scene, id: record.ID}] = record.Clone()
	s.mu.Unlock()
	return nil
}

// CreateBuilding persists a new building in the given scene
func (s *Store) CreateBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error {
	return s.UpdateBuilding(ctx, scene, record)
}

// DeleteBuilding removes the building from the given scene.
// Deleting a missing building is not an error.
func (s *Store) DeleteBuilding(ctx context.Context, scene string, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.buildings, buildingKey{scene: scene, id: id})
	delete(s.storages, model.BuildingStorage(id))
	s.mu.Unlock()
	return nil
}

// ReadCharacter returns the character with the given id
func (s *Store) ReadCharacter(ctx context.Context, id string) (*model.CharacterRecord, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	character, ok := s.characters[id]
	if !ok {
		return nil, fmt.Errorf("character %s: %w", id, errors.ErrNotFound)
	}
	return character.Clone(), nil
}

// ReadBuilding returns the building with the given id in the given scene
func (s *Store) ReadBuilding(ctx context.Context, scene string, id string) (*model.BuildingRecord, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	building, ok := s.buildings[buildingKey{scene: scene, id: id}]
	if !ok {
		return nil, fmt.Errorf("building %s/%s: %w", scene, id, errors.ErrNotFound)
	}
	return building.Clone(), nil
}

// WriteParty persists a party record
func (s *Store) WriteParty(ctx context.Context, record *model.PartyRecord) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.parties[record.ID] = record.Clone()
	s.mu.Unlock()
	return nil
}

// WriteGuild persists a guild record
func (s *Store) WriteGuild(ctx context.Context, record *model.GuildRecord) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.guilds[record.ID] = record.Clone()
	s.mu.Unlock()
	return nil
}

// Close empties the store
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.storages)
	clear(s.parties)
	clear(s.guilds)
	clear(s.characters)
	clear(s.buildings)
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ErrStoreClosed
	}
	return nil
}
