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
	"bytes"
	"context"
	"strconv"
	"sync"

	"github.com/tochemey/mapsync/model"
	"github.com/tochemey/mapsync/store/memory"
)

const (
	opReadStorage     = "read-storage"
	opReadParty       = "read-party"
	opReadGuild       = "read-guild"
	opUpdateCharacter = "update-character"
	opUpdateStorage   = "update-storage"
	opUpdateBuilding  = "update-building"
	opCreateBuilding  = "create-building"
	opDeleteBuilding  = "delete-building"
)

type call struct {
	op  string
	key string
}

// recordingStore is a memory store recording every call. Calls of an op
// with a gate block until the gate is closed; calls of an op with a
// failure return it without reaching the memory store.
type recordingStore struct {
	*memory.Store

	mu       sync.Mutex
	calls    []call
	gates    map[string]chan struct{}
	failures map[string]error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		Store:    memory.New(),
		gates:    make(map[string]chan struct{}),
		failures: make(map[string]error),
	}
}

// gate makes calls of op block until the returned function is called
func (s *recordingStore) gate(op string) func() {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[op] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, op)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *recordingStore) fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *recordingStore) record(ctx context.Context, op, key string) error {
	s.mu.Lock()
	s.calls = append(s.calls, call{op: op, key: key})
	gate := s.gates[op]
	failure := s.failures[op]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return failure
}

func (s *recordingStore) recorded() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}

func (s *recordingStore) count(op string) int {
	n := 0
	for _, c := range s.recorded() {
		if c.op == op {
			n++
		}
	}
	return n
}

func (s *recordingStore) ReadStorageItems(ctx context.Context, kind model.StorageKind, ownerID string) (model.ItemList, error) {
	if err := s.record(ctx, opReadStorage, storageKey(kind, ownerID)); err != nil {
		return nil, err
	}
	return s.Store.ReadStorageItems(ctx, kind, ownerID)
}

func (s *recordingStore) ReadParty(ctx context.Context, id int) (*model.PartyRecord, error) {
	if err := s.record(ctx, opReadParty, strconv.Itoa(id)); err != nil {
		return nil, err
	}
	return s.Store.ReadParty(ctx, id)
}

func (s *recordingStore) ReadGuild(ctx context.Context, id int, roles []model.GuildRole) (*model.GuildRecord, error) {
	if err := s.record(ctx, opReadGuild, strconv.Itoa(id)); err != nil {
		return nil, err
	}
	return s.Store.ReadGuild(ctx, id, roles)
}

func (s *recordingStore) UpdateCharacter(ctx context.Context, record *model.CharacterRecord) error {
	if err := s.record(ctx, opUpdateCharacter, record.ID); err != nil {
		return err
	}
	return s.Store.UpdateCharacter(ctx, record)
}

func (s *recordingStore) UpdateStorageItems(ctx context.Context, kind model.StorageKind, ownerID string, items model.ItemList) error {
	if err := s.record(ctx, opUpdateStorage, storageKey(kind, ownerID)); err != nil {
		return err
	}
	return s.Store.UpdateStorageItems(ctx, kind, ownerID, items)
}

func (s *recordingStore) UpdateBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error {
	if err := s.record(ctx, opUpdateBuilding, scene+"/"+record.ID); err != nil {
		return err
	}
	return s.Store.UpdateBuilding(ctx, scene, record)
}

func (s *recordingStore) CreateBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error {
	if err := s.record(ctx, opCreateBuilding, scene+"/"+record.ID); err != nil {
		return err
	}
	return s.Store.CreateBuilding(ctx, scene, record)
}

func (s *recordingStore) DeleteBuilding(ctx context.Context, scene string, id string) error {
	if err := s.record(ctx, opDeleteBuilding, scene+"/"+id); err != nil {
		return err
	}
	return s.Store.DeleteBuilding(ctx, scene, id)
}

func storageKey(kind model.StorageKind, ownerID string) string {
	return model.NewStorageID(kind, ownerID).String()
}

type character struct {
	id     string
	userID string
	level  int
}

func (c *character) ID() string     { return c.id }
func (c *character) UserID() string { return c.userID }
func (c *character) Snapshot() *model.CharacterRecord {
	return &model.CharacterRecord{ID: c.id, UserID: c.userID, Level: c.level}
}

type building struct {
	id string
	hp int
}

func (b *building) ID() string { return b.id }
func (b *building) Snapshot() *model.BuildingRecord {
	return &model.BuildingRecord{ID: b.id, CurrentHP: b.hp}
}

// world is a static Residents
type world struct {
	mu         sync.Mutex
	characters []CharacterEntity
	buildings  []BuildingEntity
}

func (w *world) Characters() []CharacterEntity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]CharacterEntity(nil), w.characters...)
}

func (w *world) Buildings() []BuildingEntity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]BuildingEntity(nil), w.buildings...)
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
