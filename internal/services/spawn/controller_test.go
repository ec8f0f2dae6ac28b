package spawn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
	"pgregory.net/rapid"

	"github.com/mcoot/domonhunt/internal/catalog"
	"github.com/mcoot/domonhunt/internal/dependencies/mocks"
	"github.com/mcoot/domonhunt/internal/dependencies/random"
	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/services/ledger"
	"github.com/mcoot/domonhunt/internal/storage/memory"
	"github.com/mcoot/domonhunt/internal/testutil"
)

type recordingAnnouncer struct {
	mu   sync.Mutex
	seen []Announcement
}

func (r *recordingAnnouncer) Announce(_ context.Context, a Announcement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, a)
}

func (r *recordingAnnouncer) types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, 0, len(r.seen))
	for _, a := range r.seen {
		out = append(out, a.Type)
	}
	return out
}

// slowRandom moves the clock on every capture roll, simulating a slow attempt
type slowRandom struct {
	*mocks.MockRandom
	clock *mocks.MockClock
	delay time.Duration
}

func (r *slowRandom) Float64() float64 {
	r.clock.Jump(r.delay)
	return r.MockRandom.Float64()
}

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	catalog    *catalog.Catalog
	ledger     *ledger.Service
	announcer  *recordingAnnouncer
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.catalog = catalog.MustLoad()
	s.ledger = ledger.New(s.storage, s.catalog, s.clock, s.random, nil, time.UTC, testutil.NopLogger())
	s.announcer = &recordingAnnouncer{}
	s.controller = s.newController(s.random)
	s.ctx = context.Background()
	s.Require().NoError(s.controller.Load(s.ctx))
	s.Require().NoError(s.controller.SetChannel(s.ctx, "spawns"))
}

func (s *ControllerSuite) newController(rnd random.Random) *Controller {
	return NewController(s.storage, s.ledger, s.catalog, s.clock, rnd, nil, s.announcer, DefaultConfig(), testutil.NopLogger())
}

func (s *ControllerSuite) start(ids ...model.PlayerID) {
	for _, id := range ids {
		_, err := s.ledger.Start(s.ctx, id, string(id))
		s.Require().NoError(err)
	}
}

// spawnCraquos force-spawns the first catalog entry (mock Intn returns 0)
func (s *ControllerSuite) spawnCraquos() {
	creature, err := s.controller.ForceSpawn(s.ctx, "admin")
	s.Require().NoError(err)
	s.Require().Equal("Craquos", creature.Name)
}

// Spawning

func (s *ControllerSuite) TestTickNeedsChannel() {
	s.Require().NoError(s.controller.SetChannel(s.ctx, ""))
	creature, err := s.controller.Tick(s.ctx)
	s.Require().NoError(err)
	s.Nil(creature)
	s.False(s.controller.State().Active)
}

func (s *ControllerSuite) TestTickSpawnsOnSuccessfulRoll() {
	s.random.QueueFloat(0.59)
	creature, err := s.controller.Tick(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(creature)
	s.Equal(model.SpawnSpawned, s.controller.State().Phase())
	s.Equal([]model.EventType{model.EventSpawnAppeared}, s.announcer.types())

	persisted, err := s.storage.GetSpawnState(s.ctx)
	s.Require().NoError(err)
	s.True(persisted.Active)
}

func (s *ControllerSuite) TestTickSkipsOnFailedRoll() {
	s.random.QueueFloat(0.6)
	creature, err := s.controller.Tick(s.ctx)
	s.Require().NoError(err)
	s.Nil(creature)
}

func (s *ControllerSuite) TestTickDoesNothingWhileActive() {
	s.spawnCraquos()
	s.random.QueueFloat(0)
	creature, err := s.controller.Tick(s.ctx)
	s.Require().NoError(err)
	s.Nil(creature)
}

func (s *ControllerSuite) TestBoostForcesSpawn() {
	until, err := s.controller.ActivateBoost(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(s.clock.Now().Add(DefaultConfig().BoostDuration), until)

	s.random.QueueFloat(0.99)
	creature, err := s.controller.Tick(s.ctx)
	s.Require().NoError(err)
	s.NotNil(creature)
}

func (s *ControllerSuite) TestBoostExtends() {
	first, _ := s.controller.ActivateBoost(s.ctx, "alice")
	second, _ := s.controller.ActivateBoost(s.ctx, "bob")
	s.Equal(first.Add(DefaultConfig().BoostDuration), second)
}

func (s *ControllerSuite) TestBoostExpires() {
	_, _ = s.controller.ActivateBoost(s.ctx, "alice")
	s.clock.Advance(DefaultConfig().BoostDuration)

	s.random.QueueFloat(0.99)
	creature, err := s.controller.Tick(s.ctx)
	s.Require().NoError(err)
	s.Nil(creature)
}

func (s *ControllerSuite) TestForceSpawnWhileActive() {
	s.spawnCraquos()
	_, err := s.controller.ForceSpawn(s.ctx, "admin")
	s.ErrorIs(err, model.ErrSpawnActive)
}

func (s *ControllerSuite) TestForceSpawnFromBroadcastChannelIsNotAnnouncedTwice() {
	_, err := s.controller.ForceSpawn(s.ctx, "spawns")
	s.Require().NoError(err)
	s.Empty(s.announcer.types())
}

// Scanning

func (s *ControllerSuite) TestScanWithoutSpawn() {
	s.start("alice")
	_, err := s.controller.Scan(s.ctx, "alice")
	s.ErrorIs(err, model.ErrNoActiveSpawn)
}

func (s *ControllerSuite) TestScanRequiresStart() {
	s.spawnCraquos()
	_, err := s.controller.Scan(s.ctx, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ControllerSuite) TestSecondScanRejected() {
	s.start("alice", "bob")
	s.spawnCraquos()

	res, err := s.controller.Scan(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(s.clock.Now().Add(DefaultConfig().ScanWindow), res.Deadline)

	_, err = s.controller.Scan(s.ctx, "bob")
	s.ErrorIs(err, model.ErrAlreadyClaimed)
	s.Equal(model.PlayerID("alice"), s.controller.State().Claimant)
}

func (s *ControllerSuite) TestConcurrentScansHaveOneWinner() {
	ids := make([]model.PlayerID, 25)
	for i := range ids {
		ids[i] = model.PlayerID(fmt.Sprintf("p%d", i))
	}
	s.start(ids...)
	s.spawnCraquos()

	var mu sync.Mutex
	wins, rejections := 0, 0
	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			_, err := s.controller.Scan(s.ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, model.ErrAlreadyClaimed):
				rejections++
			default:
				return err
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())
	s.Equal(1, wins)
	s.Equal(len(ids)-1, rejections)
}

// Capturing

func (s *ControllerSuite) TestNonClaimantCaptureLeavesLockUntouched() {
	s.start("alice", "bob")
	s.spawnCraquos()
	_, _ = s.controller.Scan(s.ctx, "alice")

	_, err := s.controller.Capture(s.ctx, "bob")
	s.ErrorIs(err, model.ErrNotClaimant)

	state := s.controller.State()
	s.Equal(model.SpawnScanned, state.Phase())
	s.Empty(state.AttemptBy)

	bob, _ := s.ledger.Get(s.ctx, "bob")
	s.Equal(ledger.StarterDomoballs, bob.Inventory.Count(model.Domoball))
}

func (s *ControllerSuite) TestCaptureBeforeAnyScanIsRefused() {
	s.start("alice")
	s.spawnCraquos()
	_, err := s.controller.Capture(s.ctx, "alice")
	s.ErrorIs(err, model.ErrNotScanned)
	s.Empty(s.controller.State().AttemptBy)
}

func (s *ControllerSuite) TestCaptureWithoutSpawn() {
	s.start("alice")
	_, err := s.controller.Capture(s.ctx, "alice")
	s.ErrorIs(err, model.ErrNoActiveSpawn)
}

func (s *ControllerSuite) TestCaptureSuccess() {
	s.start("alice")
	s.spawnCraquos()
	_, _ = s.controller.Scan(s.ctx, "alice")
	s.random.QueueFloat(0.5)

	res, err := s.controller.Capture(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(res.Success)
	s.Equal(model.Domoball, res.Item)
	s.Require().NotNil(res.Reward)
	s.Equal(1, res.Reward.XPGained)
	s.Len(res.Player.Collection, 1)
	s.Equal(ledger.StarterDomoballs-1, res.Player.Inventory.Count(model.Domoball))

	s.Equal(model.SpawnIdle, s.controller.State().Phase())
	s.Zero(s.clock.Pending())
}

func (s *ControllerSuite) TestStorageFailureDoesNotStallCapture() {
	logger, logs := testutil.RecordingLogger()
	s.controller = NewController(s.storage, s.ledger, s.catalog, s.clock, s.random, nil, s.announcer, DefaultConfig(), logger)
	s.Require().NoError(s.controller.Load(s.ctx))
	s.start("alice")
	s.spawnCraquos()
	s.storage.FailSaves(errors.New("disk full"))

	_, err := s.controller.Scan(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.SpawnScanned, s.controller.State().Phase())

	s.random.QueueFloat(0.5)
	res, err := s.controller.Capture(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(res.Success)
	s.Equal(model.SpawnIdle, s.controller.State().Phase())
	s.Zero(s.clock.Pending())

	p, err := s.ledger.Get(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(p.Collection, 1)

	// the store still holds the spawn from before the failure
	stored, err := s.storage.GetSpawnState(s.ctx)
	s.Require().NoError(err)
	s.True(stored.Active)
	s.Empty(stored.Claimant)

	rec := logs.Find("failed to save spawn state")
	s.Require().NotNil(rec)
	s.Equal("disk full", rec["error"])

	// a new spawn works once the store recovers
	s.storage.FailSaves(nil)
	s.spawnCraquos()
	stored, err = s.storage.GetSpawnState(s.ctx)
	s.Require().NoError(err)
	s.True(stored.Active)
}

func (s *ControllerSuite) TestCommonFailsWithHighRoll() {
	s.start("alice")
	s.spawnCraquos()
	_, _ = s.controller.Scan(s.ctx, "alice")
	s.random.QueueFloat(0.95)

	res, err := s.controller.Capture(s.ctx, "alice")
	s.Require().NoError(err)
	s.False(res.Success)
	s.Nil(res.Reward)
	s.Empty(res.Player.Collection)
	s.Equal(ledger.StarterDomoballs-1, res.Player.Inventory.Count(model.Domoball))
	s.Equal(model.SpawnIdle, s.controller.State().Phase())

	// A new spawn may follow
	_, err = s.controller.ForceSpawn(s.ctx, "admin")
	s.NoError(err)
}

func (s *ControllerSuite) TestSecondAttemptRejected() {
	s.start("alice")
	s.spawnCraquos()
	_, _ = s.controller.Scan(s.ctx, "alice")
	s.controller.mu.Lock()
	s.controller.state.AttemptBy = "alice"
	s.controller.mu.Unlock()

	_, err := s.controller.Capture(s.ctx, "alice")
	s.ErrorIs(err, model.ErrAlreadyAttempted)
}

func (s *ControllerSuite) TestRerollUsedOnFailure() {
	s.start("alice")
	_, _ = s.ledger.Grant(s.ctx, "alice", model.BIMNet, 1)
	_, _ = s.ledger.UseItem(s.ctx, "alice", model.BIMNet)
	s.spawnCraquos()
	_, _ = s.controller.Scan(s.ctx, "alice")
	s.random.QueueFloat(0.95, 0.2)

	res, err := s.controller.Capture(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(res.Rerolled)
	s.True(res.Success)
	s.False(res.Player.Flags.Reroll)
}

func (s *ControllerSuite) TestRerollKeptOnSuccess() {
	s.start("alice")
	_, _ = s.ledger.Grant(s.ctx, "alice", model.BIMNet, 1)
	_, _ = s.ledger.UseItem(s.ctx, "alice", model.BIMNet)
	s.spawnCraquos()
	_, _ = s.controller.Scan(s.ctx, "alice")
	s.random.QueueFloat(0.1)

	res, err := s.controller.Capture(s.ctx, "alice")
	s.Require().NoError(err)
	s.False(res.Rerolled)
	s.True(res.Player.Flags.Reroll)
}

func (s *ControllerSuite) TestGuaranteedItemPreferred() {
	s.start("alice")
	_, _ = s.ledger.Grant(s.ctx, "alice", model.Architectrap, 1)
	s.spawnCraquos()
	_, _ = s.controller.Scan(s.ctx, "alice")
	s.random.QueueFloat(0.99)

	res, err := s.controller.Capture(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(res.Success)
	s.Equal(model.Architectrap, res.Item)
	s.Equal(ledger.StarterDomoballs, res.Player.Inventory.Count(model.Domoball))
	s.Equal(0, res.Player.Inventory.Count(model.Architectrap))
}

func (s *ControllerSuite) TestForfeitWithoutCaptureItems() {
	s.start("alice")
	_, err := s.ledger.Update(s.ctx, "alice", func(p *model.PlayerRecord) error {
		p.Inventory = model.Inventory{model.ScanTool: 1}
		return nil
	})
	s.Require().NoError(err)
	s.spawnCraquos()
	_, _ = s.controller.Scan(s.ctx, "alice")

	res, err := s.controller.Capture(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(res.Forfeited)
	s.Equal(model.SpawnIdle, s.controller.State().Phase())
	s.Contains(s.announcer.types(), model.EventClaimForfeited)

	alice, _ := s.ledger.Get(s.ctx, "alice")
	s.Equal(model.Inventory{model.ScanTool: 1}, alice.Inventory)
}

func (s *ControllerSuite) TestThreeCapturesEvolve() {
	s.start("alice")
	var last *CaptureResult
	for range 3 {
		s.spawnCraquos()
		_, err := s.controller.Scan(s.ctx, "alice")
		s.Require().NoError(err)
		s.random.QueueFloat(0.1)
		last, err = s.controller.Capture(s.ctx, "alice")
		s.Require().NoError(err)
		s.Require().True(last.Success)
	}

	s.Require().NotNil(last.Reward.Evolved)
	s.Equal("Fissuron", last.Reward.Evolved.Name)
	names := []string{}
	for _, c := range last.Player.Collection {
		names = append(names, c.Name)
	}
	s.Equal([]string{"Craquos", "Craquos", "Craquos", "Fissuron"}, names)
}

// Expiry

func (s *ControllerSuite) TestWatchdogExpiresClaim() {
	s.start("alice")
	s.spawnCraquos()
	_, _ = s.controller.Scan(s.ctx, "alice")

	s.clock.Advance(DefaultConfig().ScanWindow - time.Millisecond)
	s.Equal(model.SpawnScanned, s.controller.State().Phase())

	s.clock.Advance(time.Millisecond)
	s.Equal(model.SpawnIdle, s.controller.State().Phase())
	s.Contains(s.announcer.types(), model.EventClaimExpired)
}

func (s *ControllerSuite) TestLateCaptureBehavesAsExpired() {
	s.start("alice")
	s.spawnCraquos()
	_, _ = s.controller.Scan(s.ctx, "alice")
	s.clock.Jump(DefaultConfig().ScanWindow)

	_, err := s.controller.Capture(s.ctx, "alice")
	s.ErrorIs(err, model.ErrClaimExpired)
	s.Equal(model.SpawnIdle, s.controller.State().Phase())

	alice, _ := s.ledger.Get(s.ctx, "alice")
	s.Equal(ledger.StarterDomoballs, alice.Inventory.Count(model.Domoball))

	// The stale watchdog finds nothing to do
	s.clock.Advance(time.Second)
	expired := 0
	for _, t := range s.announcer.types() {
		if t == model.EventClaimExpired {
			expired++
		}
	}
	s.Equal(1, expired)
}

func (s *ControllerSuite) TestAttemptCrossingDeadlineNeverSucceeds() {
	slow := &slowRandom{MockRandom: s.random, clock: s.clock, delay: 2 * time.Millisecond}
	s.controller = s.newController(slow)
	s.Require().NoError(s.controller.Load(s.ctx))
	s.start("alice")
	s.spawnCraquos()
	_, _ = s.controller.Scan(s.ctx, "alice")

	s.clock.Jump(DefaultConfig().ScanWindow - time.Millisecond)
	s.random.QueueFloat(0.0)

	_, err := s.controller.Capture(s.ctx, "alice")
	s.ErrorIs(err, model.ErrClaimExpired)

	alice, _ := s.ledger.Get(s.ctx, "alice")
	s.Empty(alice.Collection)
	s.Zero(alice.XP)
	s.Equal(model.SpawnIdle, s.controller.State().Phase())
}

func (s *ControllerSuite) TestFreshScanRearmsWatchdog() {
	s.start("alice", "bob")
	s.spawnCraquos()
	_, _ = s.controller.Scan(s.ctx, "alice")
	s.random.QueueFloat(0.95)
	_, _ = s.controller.Capture(s.ctx, "alice")

	s.clock.Advance(time.Minute)
	s.spawnCraquos()
	_, err := s.controller.Scan(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(1, s.clock.Pending())

	// The first claim's deadline passes without touching the new one
	s.clock.Advance(time.Minute)
	s.Equal(model.SpawnScanned, s.controller.State().Phase())

	s.clock.Advance(time.Minute)
	s.Equal(model.SpawnIdle, s.controller.State().Phase())
}

// Restart

func (s *ControllerSuite) TestLoadClearsExpiredClaim() {
	claimed := s.clock.Now().Add(-3 * time.Minute)
	s.Require().NoError(s.storage.SaveSpawnState(s.ctx, &model.SpawnState{
		Active: true, Creature: 1, Claimant: "alice", ClaimedAt: &claimed,
	}))

	c := s.newController(s.random)
	s.Require().NoError(c.Load(s.ctx))
	s.Equal(model.SpawnIdle, c.State().Phase())
	s.Equal(model.ChannelID("spawns"), c.Channel())
}

func (s *ControllerSuite) TestLoadRearmsLiveClaim() {
	claimed := s.clock.Now().Add(-100 * time.Second)
	s.Require().NoError(s.storage.SaveSpawnState(s.ctx, &model.SpawnState{
		Active: true, Creature: 1, Claimant: "alice", ClaimedAt: &claimed,
	}))

	c := s.newController(s.random)
	s.Require().NoError(c.Load(s.ctx))
	s.Equal(model.SpawnScanned, c.State().Phase())

	s.clock.Advance(20 * time.Second)
	s.Equal(model.SpawnIdle, c.State().Phase())
}

func (s *ControllerSuite) TestLoadClearsInterruptedAttempt() {
	claimed := s.clock.Now()
	s.Require().NoError(s.storage.SaveSpawnState(s.ctx, &model.SpawnState{
		Active: true, Creature: 1, Claimant: "alice", AttemptBy: "alice", ClaimedAt: &claimed,
	}))

	c := s.newController(s.random)
	s.Require().NoError(c.Load(s.ctx))
	s.Equal(model.SpawnIdle, c.State().Phase())
}

func (s *ControllerSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- s.controller.Run(ctx) }()
	cancel()
	s.NoError(<-done)
}

// Whatever the interleaving, a spawn is claimed by exactly one scanner
func TestScanExclusivity(t *testing.T) {
	cat := catalog.MustLoad()
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		store := memory.New()
		clk := mocks.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		rnd := mocks.NewMockRandom()
		led := ledger.New(store, cat, clk, rnd, nil, time.UTC, testutil.NopLogger())
		c := NewController(store, led, cat, clk, rnd, nil, nil, DefaultConfig(), testutil.NopLogger())

		n := rapid.IntRange(2, 16).Draw(rt, "players")
		for i := 0; i < n; i++ {
			if _, err := led.Start(ctx, model.PlayerID(fmt.Sprint(i)), "p"); err != nil {
				rt.Fatalf("start: %v", err)
			}
		}
		if _, err := c.ForceSpawn(ctx, ""); err != nil {
			rt.Fatalf("spawn: %v", err)
		}

		var mu sync.Mutex
		winners := []model.PlayerID{}
		var g errgroup.Group
		for i := 0; i < n; i++ {
			id := model.PlayerID(fmt.Sprint(i))
			g.Go(func() error {
				if _, err := c.Scan(ctx, id); err == nil {
					mu.Lock()
					winners = append(winners, id)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()

		if len(winners) != 1 {
			rt.Fatalf("expected one winner, got %v", winners)
		}
		if c.State().Claimant != winners[0] {
			rt.Fatalf("claimant %q is not the winner %q", c.State().Claimant, winners[0])
		}
	})
}
