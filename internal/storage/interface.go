package storage

import (
	"context"

	"github.com/mcoot/domonhunt/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.PlayerRecord) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error)
	ListPlayers(ctx context.Context) ([]*model.PlayerRecord, error)

	// Spawn state operations. A missing record loads as idle
	SaveSpawnState(ctx context.Context, state *model.SpawnState) error
	GetSpawnState(ctx context.Context) (*model.SpawnState, error)

	// Settings operations. Missing settings load as empty
	SaveSettings(ctx context.Context, settings *model.Settings) error
	GetSettings(ctx context.Context) (*model.Settings, error)

	Close() error
}

// Blobs is a raw key/value store the structured storage is layered over
type Blobs interface {
	// Load returns model.ErrBlobNotFound when the key is absent
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	// Keys lists every key starting with prefix
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
