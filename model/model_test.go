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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageID(t *testing.T) {
	t.Run("With equal fields", func(t *testing.T) {
		a := PlayerStorage("user-1")
		b := NewStorageID(StoragePlayer, "user-1")
		require.Equal(t, a, b)

		set := map[StorageID]int{a: 1}
		_, ok := set[b]
		require.True(t, ok)
	})
	t.Run("With different kind", func(t *testing.T) {
		assert.NotEqual(t, PlayerStorage("x"), BuildingStorage("x"))
		assert.Equal(t, "player/x", PlayerStorage("x").String())
		assert.Equal(t, "building/x", BuildingStorage("x").String())
		assert.Equal(t, "storage(42)", StorageKind(42).String())
	})
	t.Run("With invalid ids", func(t *testing.T) {
		assert.False(t, StorageID{}.Valid())
		assert.False(t, PlayerStorage("  ").Valid())
		assert.True(t, BuildingStorage("b-1").Valid())
	})
}

func TestClone(t *testing.T) {
	t.Run("ItemList clone is independent", func(t *testing.T) {
		items := ItemList{{ID: "i-1", DataID: 10, Amount: 2, Sockets: []int{1, 2}}}
		clone := items.Clone()
		clone[0].Amount = 99
		clone[0].Sockets[0] = 7
		assert.Equal(t, 2, items[0].Amount)
		assert.Equal(t, 1, items[0].Sockets[0])
	})
	t.Run("Empty list clone is not nil", func(t *testing.T) {
		var items ItemList
		clone := items.Clone()
		require.NotNil(t, clone)
		require.Empty(t, clone)
	})
	t.Run("CharacterRecord clone is independent", func(t *testing.T) {
		record := &CharacterRecord{ID: "c-1", UserID: "u-1", NonEquipItems: ItemList{{ID: "i-1", Amount: 1}}}
		clone := record.Clone()
		clone.NonEquipItems[0].Amount = 5
		clone.Level = 3
		assert.Equal(t, 1, record.NonEquipItems[0].Amount)
		assert.Zero(t, record.Level)
		assert.Nil(t, (*CharacterRecord)(nil).Clone())
	})
	t.Run("Social records clone", func(t *testing.T) {
		party := &PartyRecord{ID: 1, Members: []SocialMember{{CharacterID: "c-1"}}}
		pc := party.Clone()
		pc.Members[0].CharacterID = "c-2"
		assert.Equal(t, "c-1", party.Members[0].CharacterID)

		guild := &GuildRecord{ID: 2, Roles: []GuildRole{{Name: "master"}}}
		gc := guild.Clone()
		gc.Roles[0].Name = "member"
		assert.Equal(t, "master", guild.Roles[0].Name)

		building := &BuildingRecord{ID: "b-1"}
		assert.Equal(t, BuildingStorage("b-1"), building.StorageID())
		assert.Nil(t, (*BuildingRecord)(nil).Clone())
	})
}
