package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/domonhunt/internal/catalog"
	"github.com/mcoot/domonhunt/internal/dependencies/clock"
	"github.com/mcoot/domonhunt/internal/dependencies/random"
	"github.com/mcoot/domonhunt/internal/metrics"
	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/storage"
)

// Starter pack and daily reward contents
const (
	StarterDomoballs = 5
	StarterScanTools = 1
	DailyDomoballs   = 3
)

// DailyReward is what a daily claim granted
type DailyReward struct {
	Domoballs int
	Bonus     string
	Player    *model.PlayerRecord
}

// Service owns every player record. Memory is authoritative and writes to
// storage are best-effort
type Service struct {
	storage storage.Storage
	catalog *catalog.Catalog
	clock   clock.Clock
	random  random.Random
	metrics *metrics.Manager
	logger  *slog.Logger
	daily   *time.Location

	mu      sync.Mutex
	players map[model.PlayerID]*model.PlayerRecord
}

// New creates a ledger. dailyLocation decides when a new daily reward is available
func New(
	storage storage.Storage,
	catalog *catalog.Catalog,
	clock clock.Clock,
	random random.Random,
	metrics *metrics.Manager,
	dailyLocation *time.Location,
	logger *slog.Logger,
) *Service {
	if dailyLocation == nil {
		dailyLocation = time.UTC
	}
	return &Service{
		storage: storage,
		catalog: catalog,
		clock:   clock,
		random:  random,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "ledger")),
		daily:   dailyLocation,
		players: make(map[model.PlayerID]*model.PlayerRecord),
	}
}

// Load warms the cache from storage
func (s *Service) Load(ctx context.Context) error {
	players, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load players: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range players {
		s.players[p.ID] = p
	}
	s.logger.Info("players loaded", slog.Int("count", len(players)))
	return nil
}

// Get returns a copy of a player's record
func (s *Service) Get(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// Start creates a record with the starter pack
func (s *Service) Start(ctx context.Context, id model.PlayerID, displayName string) (*model.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(ctx, id); err == nil {
		return nil, model.ErrAlreadyStarted
	} else if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	p := model.NewPlayerRecord(id, displayName, s.clock.Now())
	p.Inventory.Add(model.Domoball, StarterDomoballs)
	p.Inventory.Add(model.ScanTool, StarterScanTools)
	s.commit(ctx, p)

	s.logger.Info("player started",
		slog.String("player_id", string(id)),
		slog.String("display_name", displayName),
	)
	return p.Clone(), nil
}

// Update applies fn to a working copy of the record and commits it only if fn succeeds
func (s *Service) Update(ctx context.Context, id model.PlayerID, fn func(p *model.PlayerRecord) error) (*model.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	if working.XP < current.XP {
		return nil, fmt.Errorf("xp of %s cannot decrease", id)
	}
	working.UpdatedAt = s.clock.Now()
	s.commit(ctx, working)
	return working.Clone(), nil
}

// ClaimDaily grants the daily reward once per calendar day
func (s *Service) ClaimDaily(ctx context.Context, id model.PlayerID) (*DailyReward, error) {
	today := s.clock.Now().In(s.daily).Format(time.DateOnly)
	reward := &DailyReward{Domoballs: DailyDomoballs}

	p, err := s.Update(ctx, id, func(p *model.PlayerRecord) error {
		if p.LastDaily == today {
			return model.ErrDailyClaimed
		}
		p.LastDaily = today
		p.Inventory.Add(model.Domoball, DailyDomoballs)
		reward.Bonus = RandomBonus(s.random)
		p.Inventory.Add(reward.Bonus, 1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	reward.Player = p
	return reward, nil
}

// NextDaily returns when the next daily reward becomes available
func (s *Service) NextDaily() time.Time {
	now := s.clock.Now().In(s.daily)
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, s.daily)
}

// UseItem applies one item's effect and spends it. Items with no effect
// and capture items are left in the inventory
func (s *Service) UseItem(ctx context.Context, id model.PlayerID, item string) (*ItemOutcome, error) {
	name := model.CanonicalItem(item)
	out := &ItemOutcome{Item: name, Kind: model.KindOf(name)}

	p, err := s.Update(ctx, id, func(p *model.PlayerRecord) error {
		if p.Inventory.Count(name) <= 0 {
			return fmt.Errorf("%w: %s", model.ErrItemNotOwned, name)
		}
		if out.Kind.IsCapture() {
			out.ForCapture = true
			return nil
		}
		apply, ok := effects[out.Kind]
		if !ok {
			out.NoEffect = true
			return nil
		}
		apply(p, s.random, out)
		p.Inventory.Spend(name)
		out.Consumed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Player = p

	if out.Consumed {
		s.logger.Info("item used",
			slog.String("player_id", string(id)),
			slog.String("item", name),
		)
	}
	return out, nil
}

// Grant adds n of an item to a player's inventory
func (s *Service) Grant(ctx context.Context, id model.PlayerID, item string, n int) (*model.PlayerRecord, error) {
	if n <= 0 {
		return nil, model.ErrInvalidAmount
	}
	name := model.CanonicalItem(item)
	if name == "" {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownItem, item)
	}
	return s.Update(ctx, id, func(p *model.PlayerRecord) error {
		p.Inventory.Add(name, n)
		return nil
	})
}

// AwardXP adds experience. Negative amounts are rejected
func (s *Service) AwardXP(ctx context.Context, id model.PlayerID, xp int) (*model.PlayerRecord, error) {
	if xp <= 0 {
		return nil, model.ErrInvalidAmount
	}
	return s.Update(ctx, id, func(p *model.PlayerRecord) error {
		p.XP += xp
		return nil
	})
}

// Catalog returns the catalog the ledger resolves creatures against
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// lookup must be called with mu held
func (s *Service) lookup(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	if p, ok := s.players[id]; ok {
		return p, nil
	}
	p, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, err
		}
		s.logger.Error("failed to read player",
			slog.String("player_id", string(id)),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordStorageError("get_player")
		return nil, fmt.Errorf("failed to read player: %w", err)
	}
	s.players[id] = p
	return p, nil
}

// commit must be called with mu held
func (s *Service) commit(ctx context.Context, p *model.PlayerRecord) {
	s.players[p.ID] = p
	if err := s.storage.SavePlayer(ctx, p); err != nil {
		s.logger.Error("failed to save player",
			slog.String("player_id", string(p.ID)),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordStorageError("save_player")
	}
}
