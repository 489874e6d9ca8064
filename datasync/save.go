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
	"context"

	"go.uber.org/multierr"

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/model"
)

// SaveCharacter persists the character and then, when its owner inventory
// is cached, the inventory. A save requested while another save of the
// same character is running is dropped.
func (m *Manager) SaveCharacter(entity CharacterEntity) *Operation {
	if entity == nil {
		return skippedOperation()
	}
	if !m.acquire() {
		return failedOperation(errors.ErrNotStarted)
	}

	id := entity.ID()
	if !m.characterSaves.TryBegin(id) {
		m.ops.Done()
		return skippedOperation()
	}

	record := entity.Snapshot()
	if record == nil {
		m.characterSaves.End(id)
		m.ops.Done()
		return skippedOperation()
	}
	storageID := model.PlayerStorage(entity.UserID())

	return m.spawn(func(ctx context.Context) error {
		defer m.characterSaves.End(id)

		_, err := runJob(ctx, m, "update-character", id, write(func(ctx context.Context) error {
			return m.store.UpdateCharacter(ctx, record)
		}))
		err = multierr.Append(err, m.saveStorage(ctx, storageID))
		if err == nil && m.logInfo {
			m.logger.Debugf("character [%s] saved", id)
		}
		return err
	})
}

// SaveBuilding persists the building and then, when its inventory is
// cached, the inventory. A save requested while another save of the same
// building is running is dropped.
func (m *Manager) SaveBuilding(entity BuildingEntity) *Operation {
	if entity == nil {
		return skippedOperation()
	}
	if !m.acquire() {
		return failedOperation(errors.ErrNotStarted)
	}

	id := entity.ID()
	if !m.buildingSaves.TryBegin(id) {
		m.ops.Done()
		return skippedOperation()
	}

	record := entity.Snapshot()
	if record == nil {
		m.buildingSaves.End(id)
		m.ops.Done()
		return skippedOperation()
	}

	return m.spawn(func(ctx context.Context) error {
		defer m.buildingSaves.End(id)

		_, err := runJob(ctx, m, "update-building", id, write(func(ctx context.Context) error {
			return m.store.UpdateBuilding(ctx, m.sceneName, record)
		}))
		err = multierr.Append(err, m.saveStorage(ctx, model.BuildingStorage(id)))
		if err == nil && m.logInfo {
			m.logger.Debugf("building [%s] saved", id)
		}
		return err
	})
}

// CreateBuilding persists a newly placed building. The returned operation
// need not be awaited; failures are logged.
func (m *Manager) CreateBuilding(record *model.BuildingRecord) *Operation {
	if record == nil {
		return skippedOperation()
	}
	if !m.acquire() {
		return failedOperation(errors.ErrNotStarted)
	}

	record = record.Clone()
	return m.spawn(func(ctx context.Context) error {
		_, err := runJob(ctx, m, "create-building", record.ID, write(func(ctx context.Context) error {
			return m.store.CreateBuilding(ctx, m.sceneName, record)
		}))
		return err
	})
}

// DeleteBuilding removes a destroyed building. The returned operation need
// not be awaited; failures are logged.
func (m *Manager) DeleteBuilding(id string) *Operation {
	if id == "" {
		return skippedOperation()
	}
	if !m.acquire() {
		return failedOperation(errors.ErrNotStarted)
	}

	return m.spawn(func(ctx context.Context) error {
		_, err := runJob(ctx, m, "delete-building", id, write(func(ctx context.Context) error {
			return m.store.DeleteBuilding(ctx, m.sceneName, id)
		}))
		return err
	})
}

// saveStorage persists a snapshot of the cached inventory of id, if any.
// The snapshot is taken on the loop so the write never races gameplay.
func (m *Manager) saveStorage(ctx context.Context, id model.StorageID) error {
	var (
		items  model.ItemList
		cached bool
	)
	if err := m.onLoop(ctx, func() {
		if items, cached = m.storages[id]; cached {
			items = items.Clone()
		}
	}); err != nil {
		return err
	}
	if !cached {
		return nil
	}

	_, err := runJob(ctx, m, "update-storage", id.String(), write(func(ctx context.Context) error {
		return m.store.UpdateStorageItems(ctx, id.Kind, id.OwnerID, items)
	}))
	return err
}
