package spawn

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/domonhunt/internal/catalog"
	"github.com/mcoot/domonhunt/internal/dependencies/clock"
	"github.com/mcoot/domonhunt/internal/dependencies/random"
	"github.com/mcoot/domonhunt/internal/metrics"
	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/services/ledger"
	"github.com/mcoot/domonhunt/internal/storage"
)

// Config tunes the spawn cycle
type Config struct {
	Interval           time.Duration // periodic trigger period
	SpawnChance        float64       // chance a periodic trigger spawns
	BoostedSpawnChance float64       // chance while a boost is active
	BoostDuration      time.Duration
	ScanWindow         time.Duration // lifetime of a scan claim
}

// DefaultConfig returns the production tuning
func DefaultConfig() Config {
	return Config{
		Interval:           15 * time.Minute,
		SpawnChance:        0.6,
		BoostedSpawnChance: 1.0,
		BoostDuration:      10 * time.Minute,
		ScanWindow:         120 * time.Second,
	}
}

// Announcement is a spawn lifecycle notice for the broadcast channel
type Announcement struct {
	Type     model.EventType
	Channel  model.ChannelID
	Creature model.Creature
	Player   model.PlayerID // claimant, when relevant
	Manual   bool
	Until    time.Time // boost end
}

// Announcer delivers announcements. It is called without locks held
type Announcer interface {
	Announce(ctx context.Context, a Announcement)
}

// ScanResult is returned to the first scanner
type ScanResult struct {
	Creature model.Creature
	Deadline time.Time
}

// CaptureResult describes a resolved capture attempt
type CaptureResult struct {
	Creature  model.Creature
	Item      string // capture item spent
	Success   bool
	Rerolled  bool
	Forfeited bool
	Reward    *ledger.CaptureReward
	Player    *model.PlayerRecord
}

var errNoCaptureItem = errors.New("no capture item")

// Controller owns the shared spawn state. One mutex guards every
// check-then-act on it; the ledger is only ever locked after it
type Controller struct {
	storage   storage.Storage
	ledger    *ledger.Service
	catalog   *catalog.Catalog
	clock     clock.Clock
	random    random.Random
	metrics   *metrics.Manager
	announcer Announcer
	cfg       Config
	logger    *slog.Logger

	mu       sync.Mutex
	state    *model.SpawnState
	settings *model.Settings
	watchdog clock.Timer
	token    uint64
	pending  []Announcement
}

// NewController creates a controller in the idle state. Call Load before use
func NewController(
	storage storage.Storage,
	ledger *ledger.Service,
	catalog *catalog.Catalog,
	clock clock.Clock,
	random random.Random,
	metrics *metrics.Manager,
	announcer Announcer,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:   storage,
		ledger:    ledger,
		catalog:   catalog,
		clock:     clock,
		random:    random,
		metrics:   metrics,
		announcer: announcer,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "spawn")),
		state:     &model.SpawnState{},
		settings:  &model.Settings{},
	}
}

// Load restores the persisted state. Expired or interrupted claims are
// cleared and a live claim re-arms the watchdog for its remaining window
func (c *Controller) Load(ctx context.Context) error {
	state, err := c.storage.GetSpawnState(ctx)
	if err != nil {
		return err
	}
	settings, err := c.storage.GetSettings(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.settings = settings

	if c.state.Active {
		if _, err := c.catalog.ByNumber(c.state.Creature); err != nil {
			c.logger.Warn("dropping spawn of unknown creature", slog.Int("creature", c.state.Creature))
			c.resetLocked(ctx)
			return nil
		}
	}

	now := c.clock.Now()
	switch {
	case c.state.AttemptBy != "":
		c.logger.Info("clearing interrupted capture attempt", slog.String("player_id", string(c.state.AttemptBy)))
		c.resetLocked(ctx)
	case c.state.ClaimExpired(now, c.cfg.ScanWindow):
		c.logger.Info("clearing expired claim", slog.String("player_id", string(c.state.Claimant)))
		c.resetLocked(ctx)
	case c.state.Phase() == model.SpawnScanned:
		c.armWatchdogLocked(c.state.ClaimRemaining(now, c.cfg.ScanWindow))
	}
	c.logger.Info("spawn state loaded",
		slog.String("phase", string(c.state.Phase())),
		slog.String("channel", string(c.settings.SpawnChannel)),
	)
	return nil
}

// State returns a copy of the current spawn state
func (c *Controller) State() *model.SpawnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Config returns the spawn tuning
func (c *Controller) Config() Config {
	return c.cfg
}

// Channel returns the configured broadcast channel
func (c *Controller) Channel() model.ChannelID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.SpawnChannel
}

// SetChannel configures where spawns are announced
func (c *Controller) SetChannel(ctx context.Context, channel model.ChannelID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.SpawnChannel = channel
	if err := c.storage.SaveSettings(ctx, c.settings); err != nil {
		c.logger.Error("failed to save settings", slog.String("error", err.Error()))
		c.metrics.RecordStorageError("save_settings")
	}
	c.logger.Info("spawn channel set", slog.String("channel", string(channel)))
	return nil
}

// Tick is one periodic trigger. It spawns only when idle, a channel is
// configured and the spawn roll succeeds
func (c *Controller) Tick(ctx context.Context) (*model.Creature, error) {
	defer c.flush(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Active {
		return nil, nil
	}
	if c.settings.SpawnChannel == "" {
		return nil, nil
	}
	chance := c.cfg.SpawnChance
	if c.state.Boosted(c.clock.Now()) {
		chance = c.cfg.BoostedSpawnChance
	}
	if c.random.Float64() >= chance {
		return nil, nil
	}
	creature := c.spawnLocked(ctx, false, true)
	return &creature, nil
}

// ForceSpawn spawns immediately. origin is the channel the request came
// from; the broadcast channel is only notified when it differs
func (c *Controller) ForceSpawn(ctx context.Context, origin model.ChannelID) (*model.Creature, error) {
	defer c.flush(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Active {
		return nil, model.ErrSpawnActive
	}
	creature := c.spawnLocked(ctx, true, origin != c.settings.SpawnChannel)
	return &creature, nil
}

// Scan claims the live spawn. Exactly one concurrent caller wins
func (c *Controller) Scan(ctx context.Context, player model.PlayerID) (*ScanResult, error) {
	defer c.flush(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.ledger.Get(ctx, player); err != nil {
		return nil, err
	}

	now := c.clock.Now()
	if c.state.ClaimExpired(now, c.cfg.ScanWindow) {
		c.expireLocked(ctx)
	}
	if !c.state.Active {
		return nil, model.ErrNoActiveSpawn
	}
	if c.state.Claimant != "" {
		c.metrics.RecordScan("rejected")
		return nil, model.ErrAlreadyClaimed
	}

	creature, err := c.catalog.ByNumber(c.state.Creature)
	if err != nil {
		return nil, err
	}
	c.state.Claimant = player
	c.state.ClaimedAt = &now
	c.armWatchdogLocked(c.cfg.ScanWindow)
	c.saveLocked(ctx)

	c.metrics.RecordScan("claimed")
	c.logger.Info("spawn scanned",
		slog.String("player_id", string(player)),
		slog.String("creature", creature.Name),
	)
	return &ScanResult{Creature: creature, Deadline: now.Add(c.cfg.ScanWindow)}, nil
}

// Capture resolves the claimant's single attempt
func (c *Controller) Capture(ctx context.Context, player model.PlayerID) (*CaptureResult, error) {
	defer c.flush(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.ledger.Get(ctx, player); err != nil {
		return nil, err
	}
	if !c.state.Active {
		return nil, model.ErrNoActiveSpawn
	}
	if c.state.Claimant == "" {
		return nil, model.ErrNotScanned
	}
	if c.state.Claimant != player {
		return nil, model.ErrNotClaimant
	}
	if c.state.ClaimExpired(c.clock.Now(), c.cfg.ScanWindow) {
		c.expireLocked(ctx)
		return nil, model.ErrClaimExpired
	}
	if c.state.AttemptBy != "" {
		return nil, model.ErrAlreadyAttempted
	}

	creature, err := c.catalog.ByNumber(c.state.Creature)
	if err != nil {
		return nil, err
	}
	c.state.AttemptBy = player
	c.saveLocked(ctx)

	result := &CaptureResult{Creature: creature}
	rate := catalog.CaptureRate(creature.Rarity)
	record, err := c.ledger.Update(ctx, player, func(p *model.PlayerRecord) error {
		item := ledger.CaptureItem(p.Inventory)
		if item == "" {
			return errNoCaptureItem
		}
		p.Inventory.Spend(item)
		result.Item = item

		success := model.KindOf(item) == model.ItemCaptureGuaranteed || c.random.Float64() < rate
		if !success && p.Flags.Reroll {
			p.Flags.Reroll = false
			result.Rerolled = true
			success = c.random.Float64() < rate
		}

		// The claim may have lapsed while the attempt was in flight
		if c.state.ClaimExpired(c.clock.Now(), c.cfg.ScanWindow) {
			return model.ErrClaimExpired
		}

		result.Success = success
		if success {
			reward := ledger.ApplyCapture(p, creature, c.catalog, c.random)
			result.Reward = &reward
		}
		return nil
	})

	switch {
	case errors.Is(err, errNoCaptureItem):
		result.Forfeited = true
		c.pending = append(c.pending, Announcement{
			Type:     model.EventClaimForfeited,
			Channel:  c.settings.SpawnChannel,
			Creature: creature,
			Player:   player,
		})
		c.resetLocked(ctx)
		c.metrics.RecordCapture("forfeit")
		c.logger.Info("claim forfeited", slog.String("player_id", string(player)))
		return result, nil
	case errors.Is(err, model.ErrClaimExpired):
		c.expireLocked(ctx)
		return nil, model.ErrClaimExpired
	case err != nil:
		c.state.AttemptBy = ""
		c.saveLocked(ctx)
		return nil, err
	}

	result.Player = record
	c.resetLocked(ctx)
	outcome := "failure"
	if result.Success {
		outcome = "success"
	}
	c.metrics.RecordCapture(outcome)
	c.logger.Info("capture resolved",
		slog.String("player_id", string(player)),
		slog.String("creature", creature.Name),
		slog.String("item", result.Item),
		slog.Bool("success", result.Success),
		slog.Bool("rerolled", result.Rerolled),
	)
	return result, nil
}

// ActivateBoost raises the spawn chance for the boost duration, extending any active boost
func (c *Controller) ActivateBoost(ctx context.Context, player model.PlayerID) (time.Time, error) {
	defer c.flush(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.clock.Now()
	if c.state.Boosted(start) {
		start = *c.state.BoostUntil
	}
	until := start.Add(c.cfg.BoostDuration)
	c.state.BoostUntil = &until
	c.saveLocked(ctx)

	c.pending = append(c.pending, Announcement{
		Type:    model.EventBoostActivated,
		Channel: c.settings.SpawnChannel,
		Player:  player,
		Until:   until,
	})
	c.logger.Info("spawn boost activated",
		slog.String("player_id", string(player)),
		slog.Time("until", until),
	)
	return until, nil
}

// Run triggers Tick every interval until ctx is cancelled
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	c.logger.Info("spawn loop started", slog.Duration("interval", c.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.stopWatchdogLocked()
			c.mu.Unlock()
			c.logger.Info("spawn loop stopped")
			return nil
		case <-ticker.C:
			if _, err := c.Tick(ctx); err != nil {
				c.logger.Error("spawn tick failed", slog.String("error", err.Error()))
			}
		}
	}
}

// expire is the watchdog callback for the claim armed with token
func (c *Controller) expire(token uint64) {
	ctx := context.Background()
	defer c.flush(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token {
		return
	}
	now := c.clock.Now()
	if !c.state.ClaimExpired(now, c.cfg.ScanWindow) {
		if c.state.Phase() == model.SpawnScanned {
			c.armWatchdogLocked(c.state.ClaimRemaining(now, c.cfg.ScanWindow))
		}
		return
	}
	c.expireLocked(ctx)
}

func (c *Controller) spawnLocked(ctx context.Context, manual, announce bool) model.Creature {
	creature := c.catalog.Pick(c.random)
	now := c.clock.Now()
	boost := c.state.BoostUntil
	c.state = &model.SpawnState{
		Active:     true,
		Creature:   creature.Number,
		SpawnedAt:  &now,
		BoostUntil: boost,
	}
	c.saveLocked(ctx)

	trigger := "timer"
	if manual {
		trigger = "manual"
	}
	c.metrics.RecordSpawn(trigger)
	c.logger.Info("creature spawned",
		slog.String("creature", creature.Name),
		slog.String("rarity", creature.Rarity.String()),
		slog.String("trigger", trigger),
	)
	if announce {
		c.pending = append(c.pending, Announcement{
			Type:     model.EventSpawnAppeared,
			Channel:  c.settings.SpawnChannel,
			Creature: creature,
			Manual:   manual,
		})
	}
	return creature
}

// expireLocked releases a lapsed claim and announces it
func (c *Controller) expireLocked(ctx context.Context) {
	creature, _ := c.catalog.ByNumber(c.state.Creature)
	claimant := c.state.Claimant
	c.resetLocked(ctx)
	c.metrics.RecordClaimExpired()
	c.logger.Info("claim expired",
		slog.String("player_id", string(claimant)),
		slog.String("creature", creature.Name),
	)
	c.pending = append(c.pending, Announcement{
		Type:     model.EventClaimExpired,
		Channel:  c.settings.SpawnChannel,
		Creature: creature,
		Player:   claimant,
	})
}

func (c *Controller) resetLocked(ctx context.Context) {
	c.stopWatchdogLocked()
	c.state.Reset()
	c.saveLocked(ctx)
}

func (c *Controller) armWatchdogLocked(d time.Duration) {
	c.stopWatchdogLocked()
	token := c.token
	c.watchdog = c.clock.AfterFunc(d, func() { c.expire(token) })
}

func (c *Controller) stopWatchdogLocked() {
	c.token++
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
}

func (c *Controller) saveLocked(ctx context.Context) {
	if err := c.storage.SaveSpawnState(ctx, c.state); err != nil {
		c.logger.Error("failed to save spawn state", slog.String("error", err.Error()))
		c.metrics.RecordStorageError("save_spawn")
	}
}

func (c *Controller) flush(ctx context.Context) {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if c.announcer == nil {
		return
	}
	for _, a := range pending {
		if a.Channel == "" {
			continue
		}
		c.announcer.Announce(ctx, a)
	}
}
