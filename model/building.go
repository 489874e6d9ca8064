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

// BuildingRecord is the persisted state of a player built structure.
// A building is also the owner of a StorageBuilding inventory.
type BuildingRecord struct {
	ID           string  `json:"id"`
	ParentID     string  `json:"parentId"`
	DataID       int     `json:"dataId"`
	CurrentHP    int     `json:"currentHp"`
	Position     Vector3 `json:"position"`
	Rotation     Vector3 `json:"rotation"`
	IsLocked     bool    `json:"isLocked"`
	LockPassword string  `json:"lockPassword,omitempty"`
	CreatorID    string  `json:"creatorId"`
	CreatorName  string  `json:"creatorName"`
	ExtraData    string  `json:"extraData,omitempty"`
}

// Clone returns a copy of the record
func (b *BuildingRecord) Clone() *BuildingRecord {
	if b == nil {
		return nil
	}
	out := *b
	return &out
}

// StorageID returns the key of the inventory held by the building
func (b *BuildingRecord) StorageID() StorageID {
	return BuildingStorage(b.ID)
}
