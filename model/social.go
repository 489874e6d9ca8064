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

// SocialMember is a character belonging to a party or a guild
type SocialMember struct {
	CharacterID string `json:"characterId"`
	Name        string `json:"name"`
	DataID      int    `json:"dataId"`
	Level       int    `json:"level"`
}

// PartyRecord is the persisted state of a party.
// Only ids greater than zero designate a party.
type PartyRecord struct {
	ID        int            `json:"id"`
	ShareExp  bool           `json:"shareExp"`
	ShareItem bool           `json:"shareItem"`
	LeaderID  string         `json:"leaderId"`
	Members   []SocialMember `json:"members"`
}

// Clone returns a deep copy of the record
func (p *PartyRecord) Clone() *PartyRecord {
	if p == nil {
		return nil
	}
	out := *p
	out.Members = append([]SocialMember(nil), p.Members...)
	return &out
}

// GuildRole describes the permissions of one guild rank. The role table is
// game configuration handed to the store when a guild is read.
type GuildRole struct {
	Name            string `json:"name"`
	CanInvite       bool   `json:"canInvite"`
	CanKick         bool   `json:"canKick"`
	ShareExpPercent int    `json:"shareExpPercent"`
}

// GuildMember is a guild member with its rank
type GuildMember struct {
	SocialMember
	Role int `json:"role"`
}

// GuildRecord is the persisted state of a guild.
// Only ids greater than zero designate a guild.
type GuildRecord struct {
	ID         int           `json:"id"`
	Name       string        `json:"name"`
	LeaderID   string        `json:"leaderId"`
	Level      int           `json:"level"`
	Exp        int           `json:"exp"`
	SkillPoint int           `json:"skillPoint"`
	Message    string        `json:"message"`
	Gold       int           `json:"gold"`
	Roles      []GuildRole   `json:"roles"`
	Members    []GuildMember `json:"members"`
}

// Clone returns a deep copy of the record
func (g *GuildRecord) Clone() *GuildRecord {
	if g == nil {
		return nil
	}
	out := *g
	out.Roles = append([]GuildRole(nil), g.Roles...)
	out.Members = append([]GuildMember(nil), g.Members...)
	return &out
}
