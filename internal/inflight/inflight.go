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

// Package inflight tracks the keys that currently have a load or a save
// running against the store. Membership of a key is the only signal used to
// collapse duplicate requests, so TryBegin must be an atomic test-and-insert.
package inflight

import (
	"encoding/binary"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/zeebo/xxh3"

	"github.com/tochemey/mapsync/model"
)

// number of shards every Set is spread over
const numShards = 16

// Hasher maps a key to the shard that owns it
type Hasher[K comparable] func(K) uint64

// Set is a sharded set of in-flight keys for one entity kind.
// Every shard is a thread-safe set whose Add reports whether the key was
// inserted, which gives TryBegin its compare-and-swap semantics.
type Set[K comparable] struct {
	name   string
	hasher Hasher[K]
	shards []mapset.Set[K]
}

// New creates a Set with the given name. The name is used in logs and metrics.
func New[K comparable](name string, hasher Hasher[K]) *Set[K] {
	shards := make([]mapset.Set[K], numShards)
	for i := range shards {
		shards[i] = mapset.NewSet[K]()
	}

	return &Set[K]{
		name:   name,
		hasher: hasher,
		shards: shards,
	}
}

// Name returns the set name
func (s *Set[K]) Name() string {
	return s.name
}

// TryBegin inserts the key when it is absent and returns true.
// It returns false when the key is already in flight.
func (s *Set[K]) TryBegin(key K) bool {
	return s.shard(key).Add(key)
}

// End removes the key. Removing an absent key is a no-op.
func (s *Set[K]) End(key K) {
	s.shard(key).Remove(key)
}

// Contains reports whether the key is in flight
func (s *Set[K]) Contains(key K) bool {
	return s.shard(key).Contains(key)
}

// Len returns the number of keys in flight
func (s *Set[K]) Len() int {
	total := 0
	for _, shard := range s.shards {
		total += shard.Cardinality()
	}
	return total
}

// Empty reports whether the set has drained
func (s *Set[K]) Empty() bool {
	for _, shard := range s.shards {
		if shard.Cardinality() > 0 {
			return false
		}
	}
	return true
}

// Keys returns a snapshot of the keys in flight
func (s *Set[K]) Keys() []K {
	keys := make([]K, 0, s.Len())
	for _, shard := range s.shards {
		keys = append(keys, shard.ToSlice()...)
	}
	return keys
}

func (s *Set[K]) shard(key K) mapset.Set[K] {
	return s.shards[s.hasher(key)%numShards]
}

// StringHasher hashes string keys
func StringHasher(key string) uint64 {
	return xxh3.HashString(key)
}

// IntHasher hashes integer keys
func IntHasher(key int) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))
	return xxh3.Hash(buf[:])
}

// StorageHasher hashes inventory keys
func StorageHasher(key model.StorageID) uint64 {
	return xxh3.HashString(key.String())
}
