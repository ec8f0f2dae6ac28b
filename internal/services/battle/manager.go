package battle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/domonhunt/internal/dependencies/clock"
	"github.com/mcoot/domonhunt/internal/dependencies/random"
	"github.com/mcoot/domonhunt/internal/metrics"
	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/services/ledger"
)

// WinnerXP is awarded once to the winner of a finished battle
const WinnerXP = 2

// Config holds battle timing
type Config struct {
	TurnTimeout  time.Duration
	MaxIdleTurns int
}

// DefaultConfig returns the standard battle timing
func DefaultConfig() Config {
	return Config{
		TurnTimeout:  60 * time.Second,
		MaxIdleTurns: 6,
	}
}

// Announcement is a battle event to broadcast to the battle's channel
type Announcement struct {
	Type model.EventType
	View model.BattleView
	Turn *model.TurnResult
}

// Announcer publishes battle events
type Announcer interface {
	AnnounceBattle(ctx context.Context, a Announcement)
}

// Participant names one side of a new battle
type Participant struct {
	ID   model.PlayerID
	Name string
}

// Manager runs at most one battle per scope. Each battle is a goroutine
// that owns its state; callers talk to it through requests
type Manager struct {
	ledger    *ledger.Service
	clock     clock.Clock
	random    random.Random
	metrics   *metrics.Manager
	announcer Announcer
	cfg       Config
	logger    *slog.Logger

	mu     sync.Mutex
	active map[model.ScopeID]*session
	ended  map[model.ScopeID]model.BattleView
}

// NewManager creates a battle manager
func NewManager(
	ledger *ledger.Service,
	clock clock.Clock,
	random random.Random,
	metrics *metrics.Manager,
	announcer Announcer,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultConfig().TurnTimeout
	}
	if cfg.MaxIdleTurns <= 0 {
		cfg.MaxIdleTurns = DefaultConfig().MaxIdleTurns
	}
	return &Manager{
		ledger:    ledger,
		clock:     clock,
		random:    random,
		metrics:   metrics,
		announcer: announcer,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "battle")),
		active:    make(map[model.ScopeID]*session),
		ended:     make(map[model.ScopeID]model.BattleView),
	}
}

// Start opens a battle in scope. Both players need a non-empty collection
func (m *Manager) Start(ctx context.Context, scope model.ScopeID, channel model.ChannelID, challenger, opponent Participant) (*model.BattleView, error) {
	if challenger.ID == opponent.ID {
		return nil, model.ErrSelfBattle
	}
	for _, p := range []Participant{challenger, opponent} {
		record, err := m.ledger.Get(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if len(record.Collection) == 0 {
			return nil, model.ErrEmptyCollection
		}
	}

	view := model.BattleView{
		ID:         model.BattleID(uuid.NewString()),
		Scope:      scope,
		Channel:    channel,
		Status:     model.BattlePicking,
		Challenger: model.Combatant{Owner: challenger.ID, Name: challenger.Name},
		Opponent:   model.Combatant{Owner: opponent.ID, Name: opponent.Name},
		StartedAt:  m.clock.Now(),
	}

	m.mu.Lock()
	if _, busy := m.active[scope]; busy {
		m.mu.Unlock()
		return nil, model.ErrBattleInProgress
	}
	s := newSession(m, view)
	m.active[scope] = s
	m.mu.Unlock()

	m.metrics.BattleStarted()
	m.logger.Info("battle started",
		slog.String("battle_id", string(view.ID)),
		slog.String("scope", string(scope)),
		slog.String("challenger", string(challenger.ID)),
		slog.String("opponent", string(opponent.ID)),
	)
	go s.run()
	return &view, nil
}

// Pick chooses the player's creature for the battle in scope
func (m *Manager) Pick(ctx context.Context, scope model.ScopeID, player model.PlayerID, creature string) (*model.BattleView, error) {
	resp, err := m.call(ctx, scope, request{kind: requestPick, player: player, arg: creature})
	if err != nil {
		return nil, err
	}
	return &resp.view, resp.err
}

// Move plays one of the player's moves, by name or slot number
func (m *Manager) Move(ctx context.Context, scope model.ScopeID, player model.PlayerID, move string) (*model.TurnResult, *model.BattleView, error) {
	resp, err := m.call(ctx, scope, request{kind: requestMove, player: player, arg: move})
	if err != nil {
		return nil, nil, err
	}
	return resp.result, &resp.view, resp.err
}

// View returns a snapshot of the running battle in scope
func (m *Manager) View(ctx context.Context, scope model.ScopeID) (*model.BattleView, error) {
	resp, err := m.call(ctx, scope, request{kind: requestView})
	if err != nil {
		return nil, err
	}
	return &resp.view, nil
}

// Wait blocks until the battle in scope ends and returns its final state.
// With no running battle it returns the last one that ended in scope
func (m *Manager) Wait(ctx context.Context, scope model.ScopeID) (*model.BattleView, error) {
	m.mu.Lock()
	s := m.active[scope]
	last, ok := m.ended[scope]
	m.mu.Unlock()
	if s == nil {
		if !ok {
			return nil, model.ErrNoActiveBattle
		}
		return &last, nil
	}
	select {
	case <-s.done:
		final := s.final
		return &final, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Active reports whether scope has a running battle
func (m *Manager) Active(scope model.ScopeID) bool {
	return m.lookup(scope) != nil
}

// Shutdown cancels every running battle and waits for them to stop
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.active))
	for _, s := range m.active {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		_ = s.send(ctx, request{kind: requestCancel, arg: "shutdown"})
	}
	for _, s := range sessions {
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Manager) call(ctx context.Context, scope model.ScopeID, req request) (response, error) {
	s := m.lookup(scope)
	if s == nil {
		return response{}, model.ErrNoActiveBattle
	}
	req.reply = make(chan response, 1)
	if err := s.send(ctx, req); err != nil {
		return response{}, err
	}
	select {
	case resp := <-req.reply:
		return resp, nil
	case <-s.done:
		// the request may have been the one that ended the battle
		select {
		case resp := <-req.reply:
			return resp, nil
		default:
			return response{}, model.ErrNoActiveBattle
		}
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

func (m *Manager) lookup(scope model.ScopeID) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[scope]
}

// release frees the scope once a session has ended
func (m *Manager) release(s *session) {
	m.mu.Lock()
	if m.active[s.view.Scope] == s {
		delete(m.active, s.view.Scope)
	}
	m.ended[s.view.Scope] = s.view
	m.mu.Unlock()
	m.metrics.BattleEnded(string(s.view.Status))
}

func (m *Manager) announce(ctx context.Context, a Announcement) {
	if m.announcer == nil {
		return
	}
	m.announcer.AnnounceBattle(ctx, a)
}
