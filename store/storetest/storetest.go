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

// Package storetest holds the behavior every store backend must exhibit.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/model"
	"github.com/tochemey/mapsync/store"
)

const scene = "map01"

// Run exercises the backend returned by open. open is called once per subtest
// and must return an empty backend.
func Run(t *testing.T, open func(t *testing.T) store.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("With missing records", func(t *testing.T) {
		backend := open(t)

		_, err := backend.ReadStorageItems(ctx, model.StoragePlayer, "u-1")
		assert.True(t, errors.IsNotFound(err))
		_, err = backend.ReadParty(ctx, 1)
		assert.True(t, errors.IsNotFound(err))
		_, err = backend.ReadGuild(ctx, 1, nil)
		assert.True(t, errors.IsNotFound(err))
		_, err = backend.ReadCharacter(ctx, "c-1")
		assert.True(t, errors.IsNotFound(err))
		_, err = backend.ReadBuilding(ctx, scene, "b-1")
		assert.True(t, errors.IsNotFound(err))

		require.NoError(t, backend.Close())
	})
	t.Run("With storage items", func(t *testing.T) {
		backend := open(t)
		items := model.ItemList{
			{ID: "i-1", DataID: 10, Amount: 2, Durability: 0.5, Sockets: []int{1, 2}},
			{ID: "i-2", DataID: 11, Amount: 1, Level: 3},
		}

		require.NoError(t, backend.UpdateStorageItems(ctx, model.StoragePlayer, "u-1", items))
		actual, err := backend.ReadStorageItems(ctx, model.StoragePlayer, "u-1")
		require.NoError(t, err)
		assert.Equal(t, items, actual)

		// the same owner under another kind is a different inventory
		_, err = backend.ReadStorageItems(ctx, model.StorageGuild, "u-1")
		assert.True(t, errors.IsNotFound(err))

		// an emptied inventory exists and is empty
		require.NoError(t, backend.UpdateStorageItems(ctx, model.StoragePlayer, "u-1", model.ItemList{}))
		actual, err = backend.ReadStorageItems(ctx, model.StoragePlayer, "u-1")
		require.NoError(t, err)
		assert.Empty(t, actual)

		require.NoError(t, backend.Close())
	})
	t.Run("With party", func(t *testing.T) {
		backend := open(t)
		party := &model.PartyRecord{
			ID:       3,
			ShareExp: true,
			LeaderID: "c-1",
			Members:  []model.SocialMember{{CharacterID: "c-1", Name: "alice", Level: 9}},
		}

		require.NoError(t, backend.WriteParty(ctx, party))
		actual, err := backend.ReadParty(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, party, actual)

		require.NoError(t, backend.Close())
	})
	t.Run("With guild", func(t *testing.T) {
		backend := open(t)
		guild := &model.GuildRecord{
			ID:       5,
			Name:     "wardens",
			LeaderID: "c-1",
			Level:    2,
			Roles:    []model.GuildRole{{Name: "stored"}},
			Members: []model.GuildMember{
				{SocialMember: model.SocialMember{CharacterID: "c-1", Name: "alice"}, Role: 0},
			},
		}
		require.NoError(t, backend.WriteGuild(ctx, guild))

		actual, err := backend.ReadGuild(ctx, 5, nil)
		require.NoError(t, err)
		assert.Equal(t, guild, actual)

		roles := []model.GuildRole{{Name: "leader", CanInvite: true, CanKick: true}, {Name: "member"}}
		actual, err = backend.ReadGuild(ctx, 5, roles)
		require.NoError(t, err)
		assert.Equal(t, roles, actual.Roles)
		assert.Equal(t, guild.Members, actual.Members)

		require.NoError(t, backend.Close())
	})
	t.Run("With character", func(t *testing.T) {
		backend := open(t)
		character := &model.CharacterRecord{
			ID:              "c-1",
			UserID:          "u-1",
			Name:            "alice",
			Level:           12,
			CurrentMapName:  scene,
			CurrentPosition: model.Vector3{X: 1, Y: 2, Z: 3},
			EquipItems:      model.ItemList{{ID: "sword", DataID: 1, Amount: 1}},
			NonEquipItems:   model.ItemList{},
			LastUpdate:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		}

		require.NoError(t, backend.UpdateCharacter(ctx, character))
		actual, err := backend.ReadCharacter(ctx, "c-1")
		require.NoError(t, err)
		assert.Equal(t, character.Name, actual.Name)
		assert.Equal(t, character.CurrentPosition, actual.CurrentPosition)
		assert.Equal(t, character.EquipItems, actual.EquipItems)
		assert.True(t, character.LastUpdate.Equal(actual.LastUpdate))

		character.Level = 13
		require.NoError(t, backend.UpdateCharacter(ctx, character))
		actual, err = backend.ReadCharacter(ctx, "c-1")
		require.NoError(t, err)
		assert.Equal(t, 13, actual.Level)

		require.NoError(t, backend.Close())
	})
	t.Run("With building lifecycle", func(t *testing.T) {
		backend := open(t)
		building := &model.BuildingRecord{
			ID:          "b-1",
			DataID:      4,
			CurrentHP:   100,
			Position:    model.Vector3{X: 5},
			CreatorID:   "c-1",
			CreatorName: "alice",
		}

		require.NoError(t, backend.CreateBuilding(ctx, scene, building))
		actual, err := backend.ReadBuilding(ctx, scene, "b-1")
		require.NoError(t, err)
		assert.Equal(t, building, actual)

		// buildings are scoped by scene
		_, err = backend.ReadBuilding(ctx, "map02", "b-1")
		assert.True(t, errors.IsNotFound(err))

		building.CurrentHP = 40
		require.NoError(t, backend.UpdateBuilding(ctx, scene, building))
		actual, err = backend.ReadBuilding(ctx, scene, "b-1")
		require.NoError(t, err)
		assert.Equal(t, 40, actual.CurrentHP)

		require.NoError(t, backend.UpdateStorageItems(ctx, model.StorageBuilding, "b-1", model.ItemList{{ID: "ore", Amount: 3}}))
		require.NoError(t, backend.DeleteBuilding(ctx, scene, "b-1"))
		_, err = backend.ReadBuilding(ctx, scene, "b-1")
		assert.True(t, errors.IsNotFound(err))
		_, err = backend.ReadStorageItems(ctx, model.StorageBuilding, "b-1")
		assert.True(t, errors.IsNotFound(err))

		// deleting twice is fine
		require.NoError(t, backend.DeleteBuilding(ctx, scene, "b-1"))
		require.NoError(t, backend.Close())
	})
	t.Run("With separators inside building keys", func(t *testing.T) {
		backend := open(t)
		pairs := []struct{ scene, id string }{
			{"a:b", "c"},
			{"a", "b:c"},
			{"a/b", "c"},
			{"a", "b/c"},
			{`a\`, "/b"},
		}
		for i, pair := range pairs {
			require.NoError(t, backend.CreateBuilding(ctx, pair.scene, &model.BuildingRecord{ID: pair.id, DataID: i}))
		}
		for i, pair := range pairs {
			actual, err := backend.ReadBuilding(ctx, pair.scene, pair.id)
			require.NoError(t, err)
			assert.Equal(t, i, actual.DataID, "%s %s", pair.scene, pair.id)
		}

		require.NoError(t, backend.DeleteBuilding(ctx, "a:b", "c"))
		_, err := backend.ReadBuilding(ctx, "a", "b:c")
		require.NoError(t, err)
		require.NoError(t, backend.Close())
	})
	t.Run("With canceled context", func(t *testing.T) {
		backend := open(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := backend.ReadParty(canceled, 1)
		assert.ErrorIs(t, err, context.Canceled)
		err = backend.UpdateCharacter(canceled, &model.CharacterRecord{ID: "c-1"})
		assert.ErrorIs(t, err, context.Canceled)

		require.NoError(t, backend.Close())
	})
	t.Run("With closed backend", func(t *testing.T) {
		backend := open(t)
		require.NoError(t, backend.Close())

		_, err := backend.ReadParty(ctx, 1)
		assert.ErrorIs(t, err, errors.ErrStoreClosed)
		err = backend.UpdateStorageItems(ctx, model.StoragePlayer, "u-1", nil)
		assert.ErrorIs(t, err, errors.ErrStoreClosed)

		// closing twice is fine
		assert.NoError(t, backend.Close())
	})
}
