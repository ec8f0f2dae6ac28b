package model

import (
	"sort"
	"time"
)

// PlayerID is the chat platform's stable identity for a user
type PlayerID string

// ChannelID identifies a chat channel replies and broadcasts go to
type ChannelID string

// ScopeID identifies a server (guild) or any other battle scope
type ScopeID string

// Inventory maps item names to owned counts. Zero counts are never stored
type Inventory map[string]int

// Count returns how many of an item are owned
func (inv Inventory) Count(item string) int {
	return inv[item]
}

// Add increases an item count, pruning the entry if it drops to zero
func (inv Inventory) Add(item string, n int) {
	next := inv[item] + n
	if next <= 0 {
		delete(inv, item)
		return
	}
	inv[item] = next
}

// Spend removes one item. It returns false when none is owned
func (inv Inventory) Spend(item string) bool {
	if inv[item] <= 0 {
		delete(inv, item)
		return false
	}
	inv.Add(item, -1)
	return true
}

// Names returns owned item names in alphabetical order
func (inv Inventory) Names() []string {
	names := make([]string, 0, len(inv))
	for name, n := range inv {
		if n > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// PlayerFlags are single-use modifiers cleared when consumed
type PlayerFlags struct {
	DoubleXP bool `json:"double_xp,omitempty"` // next capture grants double XP
	Reroll   bool `json:"reroll,omitempty"`    // next failed capture is rolled again
}

// PlayerRecord is a player's persistent ledger entry
type PlayerRecord struct {
	ID          PlayerID    `json:"id"`
	DisplayName string      `json:"display_name"`
	Inventory   Inventory   `json:"inventory"`
	Collection  []Creature  `json:"collection"`
	XP          int         `json:"xp"`
	LastDaily   string      `json:"last_daily,omitempty"` // YYYY-MM-DD in the daily timezone
	Flags       PlayerFlags `json:"flags"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewPlayerRecord creates an empty record
func NewPlayerRecord(id PlayerID, displayName string, now time.Time) *PlayerRecord {
	return &PlayerRecord{
		ID:          id,
		DisplayName: displayName,
		Inventory:   Inventory{},
		Collection:  []Creature{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CountOf returns how many copies of a creature the collection holds
func (p *PlayerRecord) CountOf(name string) int {
	n := 0
	for _, c := range p.Collection {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Owns reports whether the collection holds at least one copy of a creature
func (p *PlayerRecord) Owns(name string) bool {
	return p.CountOf(name) > 0
}

// Clone returns a deep copy safe to hand out of a lock
func (p *PlayerRecord) Clone() *PlayerRecord {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Inventory = make(Inventory, len(p.Inventory))
	for k, v := range p.Inventory {
		cp.Inventory[k] = v
	}
	cp.Collection = make([]Creature, len(p.Collection))
	copy(cp.Collection, p.Collection)
	return &cp
}

// Name returns the display name, falling back to the id
func (p *PlayerRecord) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return string(p.ID)
}
