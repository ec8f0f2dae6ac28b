package model

import (
	"errors"
	"fmt"
	"time"
)

// Common errors used across the application
var (
	// Storage errors
	ErrBlobNotFound = errors.New("blob not found")

	// Catalog errors
	ErrUnknownRarity    = errors.New("unknown rarity")
	ErrInvalidCreature  = errors.New("invalid creature definition")
	ErrCreatureNotFound = errors.New("creature not found")

	// Player errors
	ErrPlayerNotFound  = errors.New("player not found")
	ErrAlreadyStarted  = errors.New("player has already started")
	ErrDailyClaimed    = errors.New("daily reward already claimed")
	ErrItemNotOwned    = errors.New("item not owned")
	ErrUnknownItem     = errors.New("unknown item")
	ErrEmptyCollection = errors.New("collection is empty")
	ErrInvalidAmount   = errors.New("amount must be positive")

	// Spawn errors
	ErrNoActiveSpawn    = errors.New("no active spawn")
	ErrSpawnActive      = errors.New("a spawn is already active")
	ErrAlreadyClaimed   = errors.New("spawn already scanned")
	ErrNotScanned       = errors.New("spawn has not been scanned")
	ErrNotClaimant      = errors.New("only the first scanner may capture")
	ErrAlreadyAttempted = errors.New("capture already attempted")
	ErrClaimExpired     = errors.New("scan claim expired")
	ErrNoChannel        = errors.New("no broadcast channel configured")

	// Battle errors
	ErrBattleInProgress = errors.New("a battle is already running in this scope")
	ErrNoActiveBattle   = errors.New("no active battle")
	ErrSelfBattle       = errors.New("cannot battle yourself")
	ErrNotParticipant   = errors.New("not a participant in this battle")
	ErrNotYourTurn      = errors.New("not this player's turn")
	ErrAlreadyPicked    = errors.New("creature already picked")
	ErrNotPicking       = errors.New("battle is not in the picking phase")
	ErrInvalidMove      = errors.New("invalid move")
	ErrBattleOver       = errors.New("battle is over")

	// Dispatch errors
	ErrUnknownCommand = errors.New("unknown command")
	ErrNotPrivileged  = errors.New("command is restricted to the owner")
	ErrUsage          = errors.New("invalid usage")
)

// CooldownError is returned when a user issues commands faster than allowed
type CooldownError struct {
	Wait time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("on cooldown for %s", e.Wait)
}

// Seconds returns the remaining wait rounded up to whole seconds
func (e *CooldownError) Seconds() int {
	s := int(e.Wait / time.Second)
	if e.Wait%time.Second != 0 {
		s++
	}
	return s
}

// UsageError wraps ErrUsage with the expected syntax
func UsageError(syntax string) error {
	return fmt.Errorf("%w: %s", ErrUsage, syntax)
}
