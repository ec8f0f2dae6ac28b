package kv

import (
	"fmt"
	"strings"

	"github.com/mcoot/domonhunt/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "domon"

// playerKey returns the key for a PlayerRecord
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playerPrefix returns the prefix shared by every player key
func playerPrefix() string {
	return keyPrefix + ":player:"
}

// playerIDFromKey reverses playerKey
func playerIDFromKey(key string) model.PlayerID {
	return model.PlayerID(strings.TrimPrefix(key, playerPrefix()))
}

// spawnKey returns the key of the singleton spawn state
func spawnKey() string {
	return keyPrefix + ":spawn"
}

// settingsKey returns the key of the global settings
func settingsKey() string {
	return keyPrefix + ":settings"
}
