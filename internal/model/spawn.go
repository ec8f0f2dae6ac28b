package model

import "time"

// SpawnPhase is the position of the shared spawn in its capture cycle
type SpawnPhase string

const (
	SpawnIdle       SpawnPhase = "idle"
	SpawnSpawned    SpawnPhase = "spawned"
	SpawnScanned    SpawnPhase = "scanned"
	SpawnAttempting SpawnPhase = "attempting"
)

// SpawnState is the singleton record coordinating one contested capture
type SpawnState struct {
	Active    bool       `json:"active"`
	Creature  int        `json:"creature,omitempty"`   // catalog number of the live spawn
	Claimant  PlayerID   `json:"claimant,omitempty"`   // first scanner
	AttemptBy PlayerID   `json:"attempt_by,omitempty"` // attempt lock holder
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	SpawnedAt *time.Time `json:"spawned_at,omitempty"`

	BoostUntil *time.Time `json:"boost_until,omitempty"`
}

// Phase derives the cycle phase from the record
func (s *SpawnState) Phase() SpawnPhase {
	switch {
	case !s.Active:
		return SpawnIdle
	case s.Claimant == "":
		return SpawnSpawned
	case s.AttemptBy == "":
		return SpawnScanned
	default:
		return SpawnAttempting
	}
}

// ClaimExpired reports whether a scan claim exists and its window has elapsed.
// A claim is expired at exactly window after the scan.
func (s *SpawnState) ClaimExpired(now time.Time, window time.Duration) bool {
	if !s.Active || s.Claimant == "" || s.ClaimedAt == nil {
		return false
	}
	return now.Sub(*s.ClaimedAt) >= window
}

// ClaimRemaining returns how long the current claim has left, or zero
func (s *SpawnState) ClaimRemaining(now time.Time, window time.Duration) time.Duration {
	if !s.Active || s.ClaimedAt == nil {
		return 0
	}
	left := window - now.Sub(*s.ClaimedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Boosted reports whether a spawn boost is in effect
func (s *SpawnState) Boosted(now time.Time) bool {
	return s.BoostUntil != nil && now.Before(*s.BoostUntil)
}

// Reset returns the record to idle, keeping any boost
func (s *SpawnState) Reset() {
	boost := s.BoostUntil
	*s = SpawnState{BoostUntil: boost}
}

// Clone returns an independent copy
func (s *SpawnState) Clone() *SpawnState {
	cp := *s
	if s.ClaimedAt != nil {
		t := *s.ClaimedAt
		cp.ClaimedAt = &t
	}
	if s.SpawnedAt != nil {
		t := *s.SpawnedAt
		cp.SpawnedAt = &t
	}
	if s.BoostUntil != nil {
		t := *s.BoostUntil
		cp.BoostUntil = &t
	}
	return &cp
}

// Settings is the persisted global configuration changed at runtime
type Settings struct {
	SpawnChannel ChannelID `json:"spawn_channel,omitempty"`
}
