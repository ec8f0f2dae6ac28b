package model

import (
	"fmt"
	"strings"
)

// Rarity is the ordered rarity tier of a creature
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityLegendary
)

var rarityNames = [...]string{"Common", "Uncommon", "Rare", "Legendary"}

// Rarities lists every tier in ascending order
func Rarities() []Rarity {
	return []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityLegendary}
}

// String returns the display name of the tier
func (r Rarity) String() string {
	if r < RarityCommon || r > RarityLegendary {
		return fmt.Sprintf("Rarity(%d)", int(r))
	}
	return rarityNames[r]
}

// ParseRarity parses a tier name (case-insensitive)
func ParseRarity(s string) (Rarity, error) {
	for i, name := range rarityNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Rarity(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRarity, s)
}

// MarshalText implements encoding.TextMarshaler
func (r Rarity) MarshalText() ([]byte, error) {
	if r < RarityCommon || r > RarityLegendary {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRarity, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Rarity) UnmarshalText(text []byte) error {
	parsed, err := ParseRarity(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MoveCount is the number of moves every creature knows
const MoveCount = 4

// Move is one of a creature's battle actions
type Move struct {
	Name        string `json:"name" yaml:"name"`
	Power       int    `json:"power" yaml:"power"`       // 0 means a support (guard) move
	Accuracy    int    `json:"accuracy" yaml:"accuracy"` // percent, 1-100
	Description string `json:"description" yaml:"description"`
}

// IsSupport reports whether the move deals no damage
func (m Move) IsSupport() bool {
	return m.Power == 0
}

// Stats are a creature's base battle statistics
type Stats struct {
	Health  int `json:"health" yaml:"health"`
	Attack  int `json:"attack" yaml:"attack"`
	Defense int `json:"defense" yaml:"defense"`
	Speed   int `json:"speed" yaml:"speed"`
}

// Creature is an immutable catalog definition. Players hold value copies of it
type Creature struct {
	Number      int             `json:"number" yaml:"number"`
	Name        string          `json:"name" yaml:"name"`
	Type        string          `json:"type" yaml:"type"`
	Rarity      Rarity          `json:"rarity" yaml:"rarity"`
	Evolution   string          `json:"evolution,omitempty" yaml:"evolution"` // empty when final stage
	Description string          `json:"description" yaml:"description"`
	Stats       Stats           `json:"stats" yaml:"stats"`
	Moves       [MoveCount]Move `json:"moves" yaml:"moves"`
}

// HasEvolution reports whether the creature evolves into another one
func (c Creature) HasEvolution() bool {
	return c.Evolution != ""
}

// Validate checks the structural invariants of a definition
func (c Creature) Validate() error {
	if c.Number <= 0 {
		return fmt.Errorf("%w: number must be positive (%s)", ErrInvalidCreature, c.Name)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: #%d has no name", ErrInvalidCreature, c.Number)
	}
	if c.Rarity < RarityCommon || c.Rarity > RarityLegendary {
		return fmt.Errorf("%w: %s has unknown rarity", ErrInvalidCreature, c.Name)
	}
	s := c.Stats
	if s.Health <= 0 || s.Attack <= 0 || s.Defense <= 0 || s.Speed <= 0 {
		return fmt.Errorf("%w: %s has non-positive stats", ErrInvalidCreature, c.Name)
	}
	for i, m := range c.Moves {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: %s move %d has no name", ErrInvalidCreature, c.Name, i+1)
		}
		if m.Power < 0 {
			return fmt.Errorf("%w: %s move %q has negative power", ErrInvalidCreature, c.Name, m.Name)
		}
		if m.Accuracy < 1 || m.Accuracy > 100 {
			return fmt.Errorf("%w: %s move %q accuracy out of range", ErrInvalidCreature, c.Name, m.Name)
		}
	}
	return nil
}
