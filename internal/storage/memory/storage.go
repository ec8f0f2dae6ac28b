package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players  map[model.PlayerID]*model.PlayerRecord
	spawn    *model.SpawnState
	settings *model.Settings

	saveErr error
	readErr error
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players: make(map[model.PlayerID]*model.PlayerRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// FailSaves makes every subsequent save return err. Pass nil to recover
func (s *Storage) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// FailReads makes every subsequent player read return err. Pass nil to recover
func (s *Storage) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.players[player.ID] = player.Clone()
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player.Clone(), nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]*model.PlayerRecord, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p.Clone())
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

// Spawn state operations

func (s *Storage) SaveSpawnState(ctx context.Context, state *model.SpawnState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.spawn = state.Clone()
	return nil
}

func (s *Storage) GetSpawnState(ctx context.Context) (*model.SpawnState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.spawn == nil {
		return &model.SpawnState{}, nil
	}
	return s.spawn.Clone(), nil
}

// Settings operations

func (s *Storage) SaveSettings(ctx context.Context, settings *model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *settings
	s.settings = &cp
	return nil
}

func (s *Storage) GetSettings(ctx context.Context) (*model.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return &model.Settings{}, nil
	}
	cp := *s.settings
	return &cp, nil
}

func (s *Storage) Close() error {
	return nil
}
