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

// Package store defines the persistent store the data synchronization layer
// reads from and writes to.
//
// Implementations must be safe for concurrent use on distinct keys. The
// synchronization layer never issues two operations against the same key
// at the same time, so implementations need no transactional discipline
// beyond single-key atomicity. Reads of missing records return an error
// wrapping errors.ErrNotFound.
package store

import (
	"context"

	"github.com/tochemey/mapsync/model"
)

// Store is the collaborator the synchronization layer persists through
type Store interface {
	// ReadStorageItems returns the inventory of the given owner
	ReadStorageItems(ctx context.Context, kind model.StorageKind, ownerID string) (model.ItemList, error)
	// ReadParty returns the party with the given id
	ReadParty(ctx context.Context, id int) (*model.PartyRecord, error)
	// ReadGuild returns the guild with the given id. The role table is applied
	// to the returned record.
	ReadGuild(ctx context.Context, id int, roles []model.GuildRole) (*model.GuildRecord, error)
	// UpdateCharacter persists the character record
	UpdateCharacter(ctx context.Context, record *model.CharacterRecord) error
	// UpdateStorageItems replaces the inventory of the given owner
	UpdateStorageItems(ctx context.Context, kind model.StorageKind, ownerID string, items model.ItemList) error
	// UpdateBuilding persists the building of the given scene
	UpdateBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error
	// CreateBuilding persists a new building in the given scene
	CreateBuilding(ctx context.Context, scene string, record *model.BuildingRecord) error
	// DeleteBuilding removes the building from the given scene
	DeleteBuilding(ctx context.Context, scene string, id string) error
}

// Backend is a Store owning resources. It also exposes the records the
// synchronization layer never reads back, for tooling and tests.
type Backend interface {
	Store

	// ReadCharacter returns the character with the given id
	ReadCharacter(ctx context.Context, id string) (*model.CharacterRecord, error)
	// ReadBuilding returns the building with the given id in the given scene
	ReadBuilding(ctx context.Context, scene string, id string) (*model.BuildingRecord, error)
	// WriteParty persists a party record
	WriteParty(ctx context.Context, record *model.PartyRecord) error
	// WriteGuild persists a guild record
	WriteGuild(ctx context.Context, record *model.GuildRecord) error
	// Close releases the resources held by the backend
	Close() error
}

// ApplyRoles returns the guild with the given role table. A guild keeps its
// stored roles when the table is empty.
func ApplyRoles(guild *model.GuildRecord, roles []model.GuildRole) *model.GuildRecord {
	if guild == nil || len(roles) == 0 {
		return guild
	}
	guild.Roles = append([]model.GuildRole(nil), roles...)
	return guild
}
