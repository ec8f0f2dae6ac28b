package model

import "time"

// BattleID uniquely identifies a battle session
type BattleID string

// BattleStatus represents the current phase of a battle
type BattleStatus string

const (
	BattlePicking   BattleStatus = "picking"   // Both players choosing a creature
	BattleFighting  BattleStatus = "fighting"  // Alternating moves
	BattleFinished  BattleStatus = "finished"  // One creature fainted
	BattleCancelled BattleStatus = "cancelled" // Picking timed out
	BattleAbandoned BattleStatus = "abandoned" // Too many skipped turns
)

// GuardTurns is how many of the caster's own turns a support move lasts
const GuardTurns = 2

// Combatant is one side of a battle. HP is a per-battle counter
type Combatant struct {
	Owner    PlayerID  `json:"owner"`
	Name     string    `json:"name"`
	Creature *Creature `json:"creature,omitempty"` // nil until picked
	HP       int       `json:"hp"`
	Guard    int       `json:"guard"` // remaining guarded turns
}

// Picked reports whether a creature has been chosen
func (c *Combatant) Picked() bool {
	return c.Creature != nil
}

// Fainted reports whether the creature is out
func (c *Combatant) Fainted() bool {
	return c.Creature != nil && c.HP <= 0
}

// TurnResult describes the resolution of one turn
type TurnResult struct {
	Attacker PlayerID `json:"attacker"`
	Move     string   `json:"move,omitempty"`
	Skipped  bool     `json:"skipped,omitempty"` // turn timed out
	Support  bool     `json:"support,omitempty"`
	Hit      bool     `json:"hit"`
	Critical bool     `json:"critical,omitempty"`
	Damage   int      `json:"damage"`
	TargetHP int      `json:"target_hp"`
}

// BattleView is a read-only snapshot of a session
type BattleView struct {
	ID         BattleID     `json:"id"`
	Scope      ScopeID      `json:"scope"`
	Channel    ChannelID    `json:"channel"`
	Status     BattleStatus `json:"status"`
	Challenger Combatant    `json:"challenger"`
	Opponent   Combatant    `json:"opponent"`
	Turn       PlayerID     `json:"turn,omitempty"`
	Winner     PlayerID     `json:"winner,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
}

// Side returns the combatant owned by a player, or nil
func (v *BattleView) Side(id PlayerID) *Combatant {
	switch id {
	case v.Challenger.Owner:
		return &v.Challenger
	case v.Opponent.Owner:
		return &v.Opponent
	}
	return nil
}
