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

import "time"

// Vector3 is a position in the scene
type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// CharacterRecord is the persisted state of a player character.
// It is built by the simulation from the live entity and owned by
// the save that carries it.
type CharacterRecord struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	DataID          int       `json:"dataId"`
	EntityID        int       `json:"entityId"`
	Name            string    `json:"name"`
	Level           int       `json:"level"`
	Exp             int       `json:"exp"`
	CurrentHP       int       `json:"currentHp"`
	CurrentMP       int       `json:"currentMp"`
	StatPoint       int       `json:"statPoint"`
	SkillPoint      int       `json:"skillPoint"`
	Gold            int       `json:"gold"`
	PartyID         int       `json:"partyId"`
	GuildID         int       `json:"guildId"`
	GuildRole       int       `json:"guildRole"`
	CurrentMapName  string    `json:"currentMapName"`
	CurrentPosition Vector3   `json:"currentPosition"`
	RespawnMapName  string    `json:"respawnMapName"`
	RespawnPosition Vector3   `json:"respawnPosition"`
	EquipItems      ItemList  `json:"equipItems"`
	NonEquipItems   ItemList  `json:"nonEquipItems"`
	Hotkeys         []Hotkey  `json:"hotkeys,omitempty"`
	LastUpdate      time.Time `json:"lastUpdate"`
}

// Hotkey binds a key to a skill or item
type Hotkey struct {
	ID       string `json:"id"`
	Type     int    `json:"type"`
	RelateID string `json:"relateId"`
}

// Clone returns a deep copy of the record
func (c *CharacterRecord) Clone() *CharacterRecord {
	if c == nil {
		return nil
	}
	out := *c
	out.EquipItems = c.EquipItems.Clone()
	out.NonEquipItems = c.NonEquipItems.Clone()
	if c.Hotkeys != nil {
		out.Hotkeys = append([]Hotkey(nil), c.Hotkeys...)
	}
	return &out
}
