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
	"strconv"

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/model"
)

// EnsureStorage loads the inventory of id into the storage cache.
//
// An owner without a persisted inventory gets an empty one. The request is
// skipped when a load of the same inventory is already running; its fill
// serves later readers. A failed load also leaves an empty inventory in
// the cache, replacing any earlier one; the failure is still reported by
// the returned operation.
func (m *Manager) EnsureStorage(id model.StorageID) *Operation {
	if !id.Valid() {
		return skippedOperation()
	}
	if !m.acquire() {
		return failedOperation(errors.ErrNotStarted)
	}
	if !m.storageLoads.TryBegin(id) {
		m.ops.Done()
		return skippedOperation()
	}

	return m.spawn(func(ctx context.Context) error {
		defer m.storageLoads.End(id)

		items, err := runJob(ctx, m, "read-storage", id.String(), func(ctx context.Context) (model.ItemList, error) {
			return m.store.ReadStorageItems(ctx, id.Kind, id.OwnerID)
		})
		if err != nil || items == nil {
			items = model.ItemList{}
		}
		if errors.IsNotFound(err) {
			err = nil
		}

		if e := m.onLoop(ctx, func() {
			m.storages[id] = items
		}); e != nil {
			return e
		}
		return err
	})
}

// EnsureParty loads the party with the given id into the party cache.
// Ids lower than or equal to zero designate no party and are skipped.
// When the store has no such party, or fails, any cached entry is removed.
func (m *Manager) EnsureParty(id int) *Operation {
	if id <= 0 {
		return skippedOperation()
	}
	if !m.acquire() {
		return failedOperation(errors.ErrNotStarted)
	}
	if !m.partyLoads.TryBegin(id) {
		m.ops.Done()
		return skippedOperation()
	}

	return m.spawn(func(ctx context.Context) error {
		defer m.partyLoads.End(id)

		party, err := runJob(ctx, m, "read-party", strconv.Itoa(id), func(ctx context.Context) (*model.PartyRecord, error) {
			return m.store.ReadParty(ctx, id)
		})
		if errors.IsNotFound(err) {
			err = nil
		}

		if e := m.onLoop(ctx, func() {
			if party != nil {
				m.parties[id] = party
				return
			}
			delete(m.parties, id)
		}); e != nil {
			return e
		}
		return err
	})
}

// EnsureGuild loads the guild with the given id into the guild cache.
// The configured role table is applied to the loaded guild. Ids lower than
// or equal to zero designate no guild and are skipped. When the store has
// no such guild, or fails, any cached entry is removed.
func (m *Manager) EnsureGuild(id int) *Operation {
	if id <= 0 {
		return skippedOperation()
	}
	if !m.acquire() {
		return failedOperation(errors.ErrNotStarted)
	}
	if !m.guildLoads.TryBegin(id) {
		m.ops.Done()
		return skippedOperation()
	}

	return m.spawn(func(ctx context.Context) error {
		defer m.guildLoads.End(id)

		guild, err := runJob(ctx, m, "read-guild", strconv.Itoa(id), func(ctx context.Context) (*model.GuildRecord, error) {
			return m.store.ReadGuild(ctx, id, m.guildRoles)
		})
		if errors.IsNotFound(err) {
			err = nil
		}

		if e := m.onLoop(ctx, func() {
			if guild != nil {
				m.guilds[id] = guild
				return
			}
			delete(m.guilds, id)
		}); e != nil {
			return e
		}
		return err
	})
}

// Storage returns a copy of the cached inventory of id
func (m *Manager) Storage(id model.StorageID) (model.ItemList, bool) {
	var (
		items model.ItemList
		ok    bool
	)
	if err := m.onLoop(context.Background(), func() {
		items, ok = m.storages[id]
		if ok {
			items = items.Clone()
		}
	}); err != nil {
		return nil, false
	}
	return items, ok
}

// Party returns a copy of the cached party
func (m *Manager) Party(id int) (*model.PartyRecord, bool) {
	var party *model.PartyRecord
	if err := m.onLoop(context.Background(), func() {
		party = m.parties[id].Clone()
	}); err != nil {
		return nil, false
	}
	return party, party != nil
}

// Guild returns a copy of the cached guild
func (m *Manager) Guild(id int) (*model.GuildRecord, bool) {
	var guild *model.GuildRecord
	if err := m.onLoop(context.Background(), func() {
		guild = m.guilds[id].Clone()
	}); err != nil {
		return nil, false
	}
	return guild, guild != nil
}

// MutateStorage applies fn to the cached inventory of id on the manager
// loop. It returns false, without calling fn, when the inventory is not
// loaded. fn must not call back into the Manager.
func (m *Manager) MutateStorage(id model.StorageID, fn func(items *model.ItemList)) bool {
	var ok bool
	if err := m.onLoop(context.Background(), func() {
		var items model.ItemList
		if items, ok = m.storages[id]; ok {
			fn(&items)
			if items == nil {
				items = model.ItemList{}
			}
			m.storages[id] = items
		}
	}); err != nil {
		return false
	}
	return ok
}
