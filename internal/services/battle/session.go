package battle

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mcoot/domonhunt/internal/dependencies/clock"
	"github.com/mcoot/domonhunt/internal/model"
)

type request struct {
	kind   requestKind
	player model.PlayerID
	arg    string
	reply  chan response
}

type requestKind int

const (
	requestPick requestKind = iota
	requestMove
	requestView
	requestTimeout
	requestCancel
)

type response struct {
	view   model.BattleView
	result *model.TurnResult
	err    error
}

// session is owned by its run goroutine. Every field below events is only
// touched from that goroutine
type session struct {
	manager *Manager
	logger  *slog.Logger
	events  chan request
	done    chan struct{}

	view  model.BattleView
	idle  int
	token uint64
	timer clock.Timer
	final model.BattleView
}

func newSession(m *Manager, view model.BattleView) *session {
	return &session{
		manager: m,
		logger: m.logger.With(
			slog.String("battle_id", string(view.ID)),
			slog.String("scope", string(view.Scope)),
		),
		events: make(chan request, 8),
		done:   make(chan struct{}),
		view:   view,
	}
}

func (s *session) run() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("battle panicked", slog.Any("panic", r))
			s.view.Status = model.BattleAbandoned
		}
		s.stopTimer()
		s.final = s.view
		s.manager.release(s)
		close(s.done)
	}()

	s.armTimer()
	for req := range s.events {
		s.handle(req)
		if s.over() {
			return
		}
	}
}

func (s *session) over() bool {
	switch s.view.Status {
	case model.BattleFinished, model.BattleCancelled, model.BattleAbandoned:
		return true
	}
	return false
}

// send delivers a request unless the session has already ended
func (s *session) send(ctx context.Context, req request) error {
	select {
	case s.events <- req:
		return nil
	case <-s.done:
		return model.ErrNoActiveBattle
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) handle(req request) {
	var resp response
	switch req.kind {
	case requestPick:
		resp.err = s.pick(req.player, req.arg)
	case requestMove:
		resp.result, resp.err = s.move(req.player, req.arg)
	case requestTimeout:
		s.timeout(req.arg)
	case requestCancel:
		s.view.Status = model.BattleCancelled
		s.logger.Info("battle cancelled", slog.String("reason", req.arg))
	}
	resp.view = s.view
	if req.reply != nil {
		req.reply <- resp
	}
}

func (s *session) pick(player model.PlayerID, query string) error {
	side := s.view.Side(player)
	if side == nil {
		return model.ErrNotParticipant
	}
	if s.view.Status != model.BattlePicking {
		return model.ErrNotPicking
	}
	if side.Picked() {
		return model.ErrAlreadyPicked
	}

	ctx := context.Background()
	record, err := s.manager.ledger.Get(ctx, player)
	if err != nil {
		return err
	}
	creature, err := findOwned(record, query)
	if err != nil {
		return err
	}
	side.Creature = &creature
	side.HP = creature.Stats.Health
	s.logger.Info("creature picked",
		slog.String("player_id", string(player)),
		slog.String("creature", creature.Name),
	)

	if !s.view.Challenger.Picked() || !s.view.Opponent.Picked() {
		return nil
	}

	s.view.Status = model.BattleFighting
	s.view.Turn = s.view.Challenger.Owner
	if s.view.Opponent.Creature.Stats.Speed > s.view.Challenger.Creature.Stats.Speed {
		s.view.Turn = s.view.Opponent.Owner
	}
	s.armTimer()
	s.manager.announce(ctx, Announcement{Type: model.EventBattleStarted, View: s.view})
	return nil
}

func (s *session) move(player model.PlayerID, query string) (*model.TurnResult, error) {
	att := s.view.Side(player)
	if att == nil {
		return nil, model.ErrNotParticipant
	}
	if s.view.Status != model.BattleFighting {
		return nil, model.ErrNotPicking
	}
	if s.view.Turn != player {
		return nil, model.ErrNotYourTurn
	}
	move, err := findMove(att.Creature, query)
	if err != nil {
		return nil, err
	}

	def := s.other(player)
	result := Resolve(att, def, move, s.manager.random)
	s.idle = 0

	ctx := context.Background()
	if def.Fainted() {
		s.finish(ctx, player)
		s.manager.announce(ctx, Announcement{Type: model.EventBattleEnded, View: s.view, Turn: &result})
		return &result, nil
	}
	s.nextTurn()
	s.manager.announce(ctx, Announcement{Type: model.EventBattleTurn, View: s.view, Turn: &result})
	return &result, nil
}

func (s *session) timeout(token string) {
	if token != strconv.FormatUint(s.token, 10) {
		return
	}
	ctx := context.Background()

	if s.view.Status == model.BattlePicking {
		s.view.Status = model.BattleCancelled
		s.logger.Info("battle cancelled, picking timed out")
		s.manager.announce(ctx, Announcement{Type: model.EventBattleEnded, View: s.view})
		return
	}

	result := model.TurnResult{Attacker: s.view.Turn, Skipped: true}
	result.TargetHP = s.other(s.view.Turn).HP
	s.idle++
	if s.idle >= s.manager.cfg.MaxIdleTurns {
		s.view.Status = model.BattleAbandoned
		s.logger.Info("battle abandoned", slog.Int("idle_turns", s.idle))
		s.manager.announce(ctx, Announcement{Type: model.EventBattleEnded, View: s.view, Turn: &result})
		return
	}
	s.nextTurn()
	s.manager.announce(ctx, Announcement{Type: model.EventBattleTurn, View: s.view, Turn: &result})
}

// nextTurn hands over the turn and wears down the new mover's guard
func (s *session) nextTurn() {
	next := s.other(s.view.Turn)
	s.view.Turn = next.Owner
	if next.Guard > 0 {
		next.Guard--
	}
	s.armTimer()
}

func (s *session) finish(ctx context.Context, winner model.PlayerID) {
	s.view.Status = model.BattleFinished
	s.view.Winner = winner
	s.view.Turn = ""
	s.stopTimer()

	if _, err := s.manager.ledger.AwardXP(ctx, winner, WinnerXP); err != nil {
		s.logger.Error("failed to award battle xp",
			slog.String("player_id", string(winner)),
			slog.String("error", err.Error()),
		)
	}
	s.logger.Info("battle finished", slog.String("winner", string(winner)))
}

func (s *session) other(player model.PlayerID) *model.Combatant {
	if player == s.view.Challenger.Owner {
		return &s.view.Opponent
	}
	return &s.view.Challenger
}

func (s *session) armTimer() {
	s.stopTimer()
	s.token++
	token := strconv.FormatUint(s.token, 10)
	s.timer = s.manager.clock.AfterFunc(s.manager.cfg.TurnTimeout, func() {
		select {
		case s.events <- request{kind: requestTimeout, arg: token}:
		case <-s.done:
		}
	})
}

func (s *session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// findOwned resolves a creature in the player's collection by name or by
// 1-based collection position ("3" or "#3")
func findOwned(p *model.PlayerRecord, query string) (model.Creature, error) {
	query = strings.TrimSpace(query)
	if len(p.Collection) == 0 {
		return model.Creature{}, model.ErrEmptyCollection
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(query, "#")); err == nil {
		if n >= 1 && n <= len(p.Collection) {
			return p.Collection[n-1], nil
		}
		return model.Creature{}, fmt.Errorf("%w: no creature at position %d", model.ErrCreatureNotFound, n)
	}
	for _, c := range p.Collection {
		if strings.EqualFold(c.Name, query) {
			return c, nil
		}
	}
	return model.Creature{}, fmt.Errorf("%w: %q is not in the collection", model.ErrCreatureNotFound, query)
}

// findMove resolves a move by name or 1-based slot
func findMove(c *model.Creature, query string) (model.Move, error) {
	query = strings.TrimSpace(query)
	if n, err := strconv.Atoi(query); err == nil {
		if n >= 1 && n <= model.MoveCount {
			return c.Moves[n-1], nil
		}
		return model.Move{}, fmt.Errorf("%w: slot %d", model.ErrInvalidMove, n)
	}
	for _, m := range c.Moves {
		if strings.EqualFold(m.Name, query) {
			return m, nil
		}
	}
	return model.Move{}, fmt.Errorf("%w: %q", model.ErrInvalidMove, query)
}
