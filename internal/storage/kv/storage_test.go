package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/storage/memory"
)

type StorageSuite struct {
	suite.Suite
	blobs   *memory.Blobs
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.blobs = memory.NewBlobs()
	s.storage = New(s.blobs)
	s.ctx = context.Background()
}

func (s *StorageSuite) TestPlayerRoundTripUsesPrefixedKey() {
	player := model.NewPlayerRecord("42", "Alice", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	player.Inventory.Add(model.Domoball, 5)
	player.XP = 7

	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	raw, err := s.blobs.Load(s.ctx, "domon:player:42")
	s.Require().NoError(err)
	s.Contains(string(raw), `"Domoball":5`)

	retrieved, err := s.storage.GetPlayer(s.ctx, "42")
	s.Require().NoError(err)
	s.Equal(7, retrieved.XP)
	s.Equal(5, retrieved.Inventory.Count(model.Domoball))
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestGetPlayerPrunesZeroCounts() {
	_ = s.blobs.Save(s.ctx, "domon:player:7", []byte(`{"inventory":{"Domoball":0,"BIMNet":2}}`))

	player, err := s.storage.GetPlayer(s.ctx, "7")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("7"), player.ID)
	s.Equal([]string{model.BIMNet}, player.Inventory.Names())
	s.NotNil(player.Collection)
}

func (s *StorageSuite) TestListPlayers() {
	_ = s.storage.SavePlayer(s.ctx, model.NewPlayerRecord("a", "A", time.Now()))
	_ = s.storage.SavePlayer(s.ctx, model.NewPlayerRecord("b", "B", time.Now()))
	_ = s.storage.SaveSettings(s.ctx, &model.Settings{SpawnChannel: "c"})

	players, err := s.storage.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Len(players, 2)
}

func (s *StorageSuite) TestMissingSpawnStateIsIdle() {
	state, err := s.storage.GetSpawnState(s.ctx)
	s.Require().NoError(err)
	s.False(state.Active)
}

func (s *StorageSuite) TestSpawnStateRoundTrip() {
	claimed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveSpawnState(s.ctx, &model.SpawnState{
		Active: true, Creature: 12, Claimant: "p1", ClaimedAt: &claimed,
	}))

	state, err := s.storage.GetSpawnState(s.ctx)
	s.Require().NoError(err)
	s.Equal(12, state.Creature)
	s.True(state.ClaimedAt.Equal(claimed))
}

func (s *StorageSuite) TestCorruptBlobIsAnError() {
	_ = s.blobs.Save(s.ctx, "domon:settings", []byte("not json"))
	_, err := s.storage.GetSettings(s.ctx)
	s.Error(err)
}
