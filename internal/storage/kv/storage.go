package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/storage"
)

// Storage stores records as JSON documents in a blob store
type Storage struct {
	blobs storage.Blobs
}

// New layers structured storage over a blob store
func New(blobs storage.Blobs) *Storage {
	return &Storage{blobs: blobs}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close closes the underlying blob store
func (s *Storage) Close() error {
	return s.blobs.Close()
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.PlayerRecord) error {
	return s.put(ctx, playerKey(player.ID), player)
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	var player model.PlayerRecord
	if err := s.get(ctx, playerKey(id), &player); err != nil {
		if errors.Is(err, model.ErrBlobNotFound) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	normalizePlayer(&player, id)
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.PlayerRecord, error) {
	keys, err := s.blobs.Keys(ctx, playerPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	players := make([]*model.PlayerRecord, 0, len(keys))
	for _, key := range keys {
		player, err := s.GetPlayer(ctx, playerIDFromKey(key))
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	return players, nil
}

// Spawn state operations

func (s *Storage) SaveSpawnState(ctx context.Context, state *model.SpawnState) error {
	return s.put(ctx, spawnKey(), state)
}

func (s *Storage) GetSpawnState(ctx context.Context) (*model.SpawnState, error) {
	var state model.SpawnState
	if err := s.get(ctx, spawnKey(), &state); err != nil {
		if errors.Is(err, model.ErrBlobNotFound) {
			return &model.SpawnState{}, nil
		}
		return nil, err
	}
	return &state, nil
}

// Settings operations

func (s *Storage) SaveSettings(ctx context.Context, settings *model.Settings) error {
	return s.put(ctx, settingsKey(), settings)
}

func (s *Storage) GetSettings(ctx context.Context) (*model.Settings, error) {
	var settings model.Settings
	if err := s.get(ctx, settingsKey(), &settings); err != nil {
		if errors.Is(err, model.ErrBlobNotFound) {
			return &model.Settings{}, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (s *Storage) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.blobs.Save(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *Storage) get(ctx context.Context, key string, v any) error {
	data, err := s.blobs.Load(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// normalizePlayer repairs records written by older versions or by hand
func normalizePlayer(p *model.PlayerRecord, id model.PlayerID) {
	if p.ID == "" {
		p.ID = id
	}
	if p.Inventory == nil {
		p.Inventory = model.Inventory{}
	}
	for item, n := range p.Inventory {
		if n <= 0 {
			delete(p.Inventory, item)
		}
	}
	if p.Collection == nil {
		p.Collection = []model.Creature{}
	}
	if p.XP < 0 {
		p.XP = 0
	}
}
