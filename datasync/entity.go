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

import "github.com/tochemey/mapsync/model"

// CharacterEntity is a player character living in the simulation
type CharacterEntity interface {
	// ID returns the character id
	ID() string
	// UserID returns the id of the account owning the character and its inventory
	UserID() string
	// Snapshot copies the persisted fields of the live character
	Snapshot() *model.CharacterRecord
}

// BuildingEntity is a player built structure living in the simulation
type BuildingEntity interface {
	// ID returns the building id
	ID() string
	// Snapshot copies the persisted fields of the live building
	Snapshot() *model.BuildingRecord
}

// Residents enumerates the entities currently live in the simulation
type Residents interface {
	Characters() []CharacterEntity
	Buildings() []BuildingEntity
}
