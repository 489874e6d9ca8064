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

package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/mapsync/model"
	"github.com/tochemey/mapsync/store"
	"github.com/tochemey/mapsync/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend {
		s, err := Open(filepath.Join(t.TempDir(), "mapsync.db"), time.Second)
		require.NoError(t, err)
		return s
	})
}

func TestStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "mapsync.db")

	s, err := Open(path, time.Second)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	require.NoError(t, s.UpdateStorageItems(ctx, model.StorageGuild, "7", model.ItemList{{ID: "gem", Amount: 5}}))
	require.NoError(t, s.Close())

	s, err = Open(path, time.Second)
	require.NoError(t, err)
	items, err := s.ReadStorageItems(ctx, model.StorageGuild, "7")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Amount)
	require.NoError(t, s.Close())
}

func TestStoreLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapsync.db")
	s, err := Open(path, time.Second)
	require.NoError(t, err)
	defer s.Close()

	_, err = Open(path, 50*time.Millisecond)
	require.Error(t, err)
}
