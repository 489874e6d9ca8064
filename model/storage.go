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
	"fmt"
	"strings"
)

// StorageKind identifies the owner category of an inventory
type StorageKind int

const (
	// StorageNone is the zero kind and never identifies a loadable inventory.
	StorageNone StorageKind = iota
	// StoragePlayer is the shared inventory of a player account, keyed by user id.
	StoragePlayer
	// StorageGuild is the inventory of a guild, keyed by guild id.
	StorageGuild
	// StorageBuilding is the inventory held by a player built structure, keyed by building id.
	StorageBuilding
)

var storageKindNames = map[StorageKind]string{
	StorageNone:     "none",
	StoragePlayer:   "player",
	StorageGuild:    "guild",
	StorageBuilding: "building",
}

// String returns the kind name
func (k StorageKind) String() string {
	if name, ok := storageKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("storage(%d)", int(k))
}

// StorageID identifies one inventory. Two ids are equal iff both fields match,
// which makes StorageID usable as a map key.
type StorageID struct {
	Kind    StorageKind
	OwnerID string
}

// NewStorageID creates a StorageID
func NewStorageID(kind StorageKind, ownerID string) StorageID {
	return StorageID{Kind: kind, OwnerID: ownerID}
}

// PlayerStorage returns the inventory key of a player account
func PlayerStorage(userID string) StorageID {
	return NewStorageID(StoragePlayer, userID)
}

// BuildingStorage returns the inventory key of a building
func BuildingStorage(buildingID string) StorageID {
	return NewStorageID(StorageBuilding, buildingID)
}

// Valid reports whether the id designates a loadable inventory
func (s StorageID) Valid() bool {
	return s.Kind != StorageNone && strings.TrimSpace(s.OwnerID) != ""
}

// String returns the "kind/owner" form of the id, also used as store key.
func (s StorageID) String() string {
	return s.Kind.String() + "/" + s.OwnerID
}

// Item is one stack of items held in an inventory
type Item struct {
	ID            string  `json:"id"`
	DataID        int     `json:"dataId"`
	Level         int     `json:"level"`
	Amount        int     `json:"amount"`
	Durability    float32 `json:"durability"`
	Exp           int     `json:"exp"`
	LockRemaining float32 `json:"lockRemaining"`
	Sockets       []int   `json:"sockets,omitempty"`
}

// Clone returns a deep copy of the item
func (i Item) Clone() Item {
	out := i
	if i.Sockets != nil {
		out.Sockets = append([]int(nil), i.Sockets...)
	}
	return out
}

// ItemList is the ordered content of one inventory.
// A nil list and an empty list are both "loaded and empty".
type ItemList []Item

// Clone returns a deep copy of the list. The copy of an empty list is a
// non-nil empty list.
func (l ItemList) Clone() ItemList {
	out := make(ItemList, len(l))
	for i, item := range l {
		out[i] = item.Clone()
	}
	return out
}
