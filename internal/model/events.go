package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Spawn events
	EventSpawnAppeared  EventType = "spawn_appeared"
	EventClaimExpired   EventType = "claim_expired"
	EventClaimForfeited EventType = "claim_forfeited"
	EventBoostActivated EventType = "boost_activated"

	// Battle events
	EventBattleStarted EventType = "battle_started"
	EventBattleTurn    EventType = "battle_turn"
	EventBattleEnded   EventType = "battle_ended"

	// Replies to a command sent over a gateway session
	EventReply EventType = "reply"
)

// Event is a message delivered to everyone watching a channel
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Channel   ChannelID `json:"channel"`
	Message   Message   `json:"message"`
}
