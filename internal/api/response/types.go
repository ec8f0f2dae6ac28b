package response

import (
	"time"

	"github.com/mcoot/domonhunt/internal/model"
)

// CommandReply is the response for a dispatched command
type CommandReply struct {
	Command string        `json:"command"`
	Message model.Message `json:"message"`
	Text    string        `json:"text"` // the message flattened for plain terminals
}

// CommandReplyFromMessage creates a CommandReply from a bot reply
func CommandReplyFromMessage(command string, m model.Message) CommandReply {
	return CommandReply{
		Command: command,
		Message: m,
		Text:    m.PlainText(),
	}
}

// CreatureSummary is a short catalog reference
type CreatureSummary struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Rarity string `json:"rarity"`
}

// CreatureSummaryFromModel converts model.Creature
func CreatureSummaryFromModel(c model.Creature) CreatureSummary {
	return CreatureSummary{
		Number: c.Number,
		Name:   c.Name,
		Type:   c.Type,
		Rarity: c.Rarity.String(),
	}
}

// Player represents a player's ledger entry in API responses
type Player struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"display_name"`
	XP          int               `json:"xp"`
	Inventory   map[string]int    `json:"inventory"`
	Collection  []CreatureSummary `json:"collection"`
	LastDaily   string            `json:"last_daily,omitempty"`
	Flags       model.PlayerFlags `json:"flags"`
	CreatedAt   time.Time         `json:"created_at"`
}

// PlayerFromModel converts a model.PlayerRecord to a response Player
func PlayerFromModel(p *model.PlayerRecord) Player {
	collection := make([]CreatureSummary, len(p.Collection))
	for i, c := range p.Collection {
		collection[i] = CreatureSummaryFromModel(c)
	}
	inventory := make(map[string]int, len(p.Inventory))
	for name, n := range p.Inventory {
		inventory[name] = n
	}
	return Player{
		ID:          string(p.ID),
		DisplayName: p.Name(),
		XP:          p.XP,
		Inventory:   inventory,
		Collection:  collection,
		LastDaily:   p.LastDaily,
		Flags:       p.Flags,
		CreatedAt:   p.CreatedAt,
	}
}

// Spawn represents the shared spawn state
type Spawn struct {
	Phase          string           `json:"phase"`
	Channel        string           `json:"channel,omitempty"`
	Creature       *CreatureSummary `json:"creature,omitempty"`
	Claimant       string           `json:"claimant,omitempty"`
	ClaimRemaining float64          `json:"claim_remaining_seconds,omitempty"`
	Boosted        bool             `json:"boosted"`
	BoostUntil     *time.Time       `json:"boost_until,omitempty"`
}

// SpawnFromModel converts model.SpawnState. creature is nil while idle
func SpawnFromModel(s *model.SpawnState, channel model.ChannelID, creature *model.Creature, now time.Time, window time.Duration) Spawn {
	out := Spawn{
		Phase:          string(s.Phase()),
		Channel:        string(channel),
		Claimant:       string(s.Claimant),
		ClaimRemaining: s.ClaimRemaining(now, window).Seconds(),
		Boosted:        s.Boosted(now),
	}
	if out.Boosted {
		out.BoostUntil = s.BoostUntil
	}
	if creature != nil {
		c := CreatureSummaryFromModel(*creature)
		out.Creature = &c
	}
	return out
}

// DomodexPage is one page of the catalog
type DomodexPage struct {
	Page    int               `json:"page"`
	Pages   int               `json:"pages"`
	Entries []CreatureSummary `json:"entries"`
}

// Health is the health check response
type Health struct {
	Status        string `json:"status"`
	ActiveSpawn   bool   `json:"active_spawn"`
	Subscriptions int    `json:"subscriptions"`
}
