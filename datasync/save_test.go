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
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/log"
	"github.com/tochemey/mapsync/model"
)

type blankCharacter struct{ character }

func (blankCharacter) Snapshot() *model.CharacterRecord { return nil }

func indexOf(calls []call, op, key string) int {
	return slices.IndexFunc(calls, func(c call) bool {
		return c.op == op && c.key == key
	})
}

func TestSaveCharacter(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("Without cached inventory", func(t *testing.T) {
		st := newRecordingStore()
		manager := newTestManager(t, st, &world{})

		op := manager.SaveCharacter(&character{id: "c-1", userID: "u-1", level: 7})
		require.NoError(t, op.Wait(ctx))

		assert.Equal(t, []call{{op: opUpdateCharacter, key: "c-1"}}, st.recorded())
		record, err := st.ReadCharacter(ctx, "c-1")
		require.NoError(t, err)
		assert.Equal(t, 7, record.Level)
		assert.Zero(t, manager.InFlight().CharacterSaves)
		require.NoError(t, manager.Stop(ctx))
	})
	t.Run("With cached inventory", func(t *testing.T) {
		st := newRecordingStore()
		id := model.PlayerStorage("u-1")
		manager := newTestManager(t, st, &world{})

		require.NoError(t, manager.EnsureStorage(id).Wait(ctx))
		require.True(t, manager.MutateStorage(id, func(items *model.ItemList) {
			*items = append(*items, model.Item{ID: "sword", Amount: 1})
		}))

		require.NoError(t, manager.SaveCharacter(&character{id: "c-1", userID: "u-1"}).Wait(ctx))

		calls := st.recorded()
		characterAt := indexOf(calls, opUpdateCharacter, "c-1")
		storageAt := indexOf(calls, opUpdateStorage, id.String())
		require.NotEqual(t, -1, characterAt)
		require.NotEqual(t, -1, storageAt)
		assert.Less(t, characterAt, storageAt)

		items, err := st.ReadStorageItems(ctx, id.Kind, id.OwnerID)
		require.NoError(t, err)
		assert.Equal(t, model.ItemList{{ID: "sword", Amount: 1}}, items)
		require.NoError(t, manager.Stop(ctx))
	})
	t.Run("With inventory snapshot", func(t *testing.T) {
		st := newRecordingStore()
		id := model.PlayerStorage("u-1")
		require.NoError(t, st.Store.UpdateStorageItems(ctx, id.Kind, id.OwnerID, model.ItemList{{ID: "ore", Amount: 1}}))
		manager := newTestManager(t, st, &world{})
		require.NoError(t, manager.EnsureStorage(id).Wait(ctx))

		release := st.gate(opUpdateStorage)
		op := manager.SaveCharacter(&character{id: "c-1", userID: "u-1"})
		require.Eventually(t, func() bool { return st.count(opUpdateStorage) == 1 }, time.Second, time.Millisecond)

		// gameplay keeps mutating while the write is in flight
		manager.MutateStorage(id, func(items *model.ItemList) {
			(*items)[0].Amount = 50
		})
		release()
		require.NoError(t, op.Wait(ctx))

		items, err := st.ReadStorageItems(ctx, id.Kind, id.OwnerID)
		require.NoError(t, err)
		assert.Equal(t, 1, items[0].Amount)
		require.NoError(t, manager.Stop(ctx))
	})
	t.Run("With concurrent saves of the same character", func(t *testing.T) {
		st := newRecordingStore()
		release := st.gate(opUpdateCharacter)
		manager := newTestManager(t, st, &world{})
		alice := &character{id: "c-1", userID: "u-1"}

		first := manager.SaveCharacter(alice)
		second := manager.SaveCharacter(alice)
		assert.False(t, first.Skipped())
		assert.True(t, second.Skipped())
		assert.Equal(t, 1, manager.InFlight().CharacterSaves)

		release()
		require.NoError(t, first.Wait(ctx))
		assert.Equal(t, 1, st.count(opUpdateCharacter))

		// once settled the character can be saved again
		require.NoError(t, manager.SaveCharacter(alice).Wait(ctx))
		assert.Equal(t, 2, st.count(opUpdateCharacter))
		require.NoError(t, manager.Stop(ctx))
	})
	t.Run("With nothing to persist", func(t *testing.T) {
		st := newRecordingStore()
		manager := newTestManager(t, st, &world{})

		assert.True(t, manager.SaveCharacter(nil).Skipped())
		assert.True(t, manager.SaveCharacter(&blankCharacter{character{id: "c-1"}}).Skipped())
		assert.Zero(t, manager.InFlight().CharacterSaves)
		assert.Empty(t, st.recorded())
		require.NoError(t, manager.Stop(ctx))
	})
	t.Run("With store failure", func(t *testing.T) {
		st := newRecordingStore()
		st.fail(opUpdateCharacter, assert.AnError)
		id := model.PlayerStorage("u-1")
		buffer := new(syncBuffer)
		manager := newTestManager(t, st, &world{}, WithLogger(log.NewZap(log.DebugLevel, buffer)))
		require.NoError(t, manager.EnsureStorage(id).Wait(ctx))

		op := manager.SaveCharacter(&character{id: "c-1", userID: "u-1"})
		require.ErrorIs(t, op.Wait(ctx), assert.AnError)
		assert.Zero(t, manager.InFlight().CharacterSaves)

		// the inventory is still written and the failure is logged
		assert.Equal(t, 1, st.count(opUpdateStorage))
		assert.Contains(t, buffer.String(), "update-character failed")
		assert.Contains(t, buffer.String(), "c-1")
		require.NoError(t, manager.Stop(ctx))
	})
	t.Run("With log info", func(t *testing.T) {
		st := newRecordingStore()
		buffer := new(syncBuffer)
		manager := newTestManager(t, st, &world{}, WithLogInfo(true), WithLogger(log.NewZap(log.DebugLevel, buffer)))

		require.NoError(t, manager.SaveCharacter(&character{id: "c-1", userID: "u-1"}).Wait(ctx))
		assert.Contains(t, buffer.String(), "character [c-1] saved")
		require.NoError(t, manager.Stop(ctx))
	})
}

func TestSaveBuilding(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("With cached inventory", func(t *testing.T) {
		st := newRecordingStore()
		id := model.BuildingStorage("b-1")
		require.NoError(t, st.Store.UpdateStorageItems(ctx, id.Kind, id.OwnerID, model.ItemList{{ID: "plank", Amount: 9}}))
		manager := newTestManager(t, st, &world{}, WithSceneName("map01"))
		require.NoError(t, manager.EnsureStorage(id).Wait(ctx))

		require.NoError(t, manager.SaveBuilding(&building{id: "b-1", hp: 80}).Wait(ctx))

		calls := st.recorded()
		buildingAt := indexOf(calls, opUpdateBuilding, "map01/b-1")
		storageAt := indexOf(calls, opUpdateStorage, id.String())
		require.NotEqual(t, -1, buildingAt)
		require.NotEqual(t, -1, storageAt)
		assert.Less(t, buildingAt, storageAt)

		record, err := st.ReadBuilding(ctx, "map01", "b-1")
		require.NoError(t, err)
		assert.Equal(t, 80, record.CurrentHP)
		require.NoError(t, manager.Stop(ctx))
	})
	t.Run("With concurrent saves of the same building", func(t *testing.T) {
		st := newRecordingStore()
		release := st.gate(opUpdateBuilding)
		manager := newTestManager(t, st, &world{})
		hut := &building{id: "b-1"}

		first := manager.SaveBuilding(hut)
		assert.True(t, manager.SaveBuilding(hut).Skipped())

		release()
		require.NoError(t, first.Wait(ctx))
		assert.Equal(t, 1, st.count(opUpdateBuilding))
		assert.Zero(t, st.count(opUpdateStorage))
		require.NoError(t, manager.Stop(ctx))
	})
	t.Run("With nothing to persist", func(t *testing.T) {
		st := newRecordingStore()
		manager := newTestManager(t, st, &world{})
		assert.True(t, manager.SaveBuilding(nil).Skipped())
		require.NoError(t, manager.Stop(ctx))
	})
}

func TestBuildingLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("With create and delete", func(t *testing.T) {
		st := newRecordingStore()
		manager := newTestManager(t, st, &world{}, WithSceneName("map01"))

		record := &model.BuildingRecord{ID: "b-1", DataID: 2, CurrentHP: 100}
		op := manager.CreateBuilding(record)
		// the record is copied when the request is made
		record.CurrentHP = 1
		require.NoError(t, op.Wait(ctx))

		stored, err := st.ReadBuilding(ctx, "map01", "b-1")
		require.NoError(t, err)
		assert.Equal(t, 100, stored.CurrentHP)

		require.NoError(t, manager.DeleteBuilding("b-1").Wait(ctx))
		_, err = st.ReadBuilding(ctx, "map01", "b-1")
		assert.True(t, errors.IsNotFound(err))

		assert.True(t, manager.CreateBuilding(nil).Skipped())
		assert.True(t, manager.DeleteBuilding("").Skipped())
		require.NoError(t, manager.Stop(ctx))
	})
	t.Run("With requests bypassing deduplication", func(t *testing.T) {
		st := newRecordingStore()
		release := st.gate(opCreateBuilding)
		manager := newTestManager(t, st, &world{})

		first := manager.CreateBuilding(&model.BuildingRecord{ID: "b-1"})
		second := manager.CreateBuilding(&model.BuildingRecord{ID: "b-1"})
		assert.False(t, first.Skipped())
		assert.False(t, second.Skipped())

		release()
		require.NoError(t, first.Wait(ctx))
		require.NoError(t, second.Wait(ctx))
		assert.Equal(t, 2, st.count(opCreateBuilding))
		require.NoError(t, manager.Stop(ctx))
	})
	t.Run("With failing delete", func(t *testing.T) {
		st := newRecordingStore()
		st.fail(opDeleteBuilding, assert.AnError)
		buffer := new(syncBuffer)
		manager := newTestManager(t, st, &world{}, WithLogger(log.NewZap(log.DebugLevel, buffer)))

		manager.DeleteBuilding("b-1")
		require.NoError(t, manager.Stop(ctx))
		assert.Contains(t, buffer.String(), "delete-building failed")
	})
	t.Run("With stop waiting for fire and forget requests", func(t *testing.T) {
		st := newRecordingStore()
		release := st.gate(opCreateBuilding)
		manager := newTestManager(t, st, &world{}, WithSceneName("map01"))

		manager.CreateBuilding(&model.BuildingRecord{ID: "b-1"})
		require.Eventually(t, func() bool { return st.count(opCreateBuilding) == 1 }, time.Second, time.Millisecond)

		stopped := make(chan error, 1)
		go func() {
			stopped <- manager.Stop(ctx)
		}()

		select {
		case <-stopped:
			require.Fail(t, "stop returned before the create completed")
		case <-time.After(50 * time.Millisecond):
		}

		release()
		require.NoError(t, <-stopped)
		_, err := st.ReadBuilding(ctx, "map01", "b-1")
		require.NoError(t, err)
	})
}
