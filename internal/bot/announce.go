package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/domonhunt/internal/dependencies/clock"
	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/services/battle"
	"github.com/mcoot/domonhunt/internal/services/spawn"
)

// Notifier delivers an event to everyone watching its channel
type Notifier interface {
	Notify(ctx context.Context, ev model.Event)
}

// Announcer renders spawn and battle announcements and hands them to a Notifier
type Announcer struct {
	notifier Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

var (
	_ spawn.Announcer  = (*Announcer)(nil)
	_ battle.Announcer = (*Announcer)(nil)
)

// NewAnnouncer creates an Announcer
func NewAnnouncer(notifier Notifier, clock clock.Clock, logger *slog.Logger) *Announcer {
	return &Announcer{
		notifier: notifier,
		clock:    clock,
		logger:   logger.With(slog.String("component", "announcer")),
	}
}

// Announce implements spawn.Announcer
func (a *Announcer) Announce(ctx context.Context, ann spawn.Announcement) {
	var text string
	name := ann.Creature.Name
	switch ann.Type {
	case model.EventSpawnAppeared:
		text = SpawnText(ann.Creature, ann.Manual)
	case model.EventClaimExpired:
		text = fmt.Sprintf("⌛ The scan on **%s** expired. It's free again: type `!scan`!", name)
	case model.EventClaimForfeited:
		text = fmt.Sprintf("%s had no capture items and released **%s**. Someone else may `!scan` it now!",
			mention(ann.Player, ""), name)
	case model.EventBoostActivated:
		text = fmt.Sprintf("📡 %s activated a Scan Tool! DOMON will appear more often until %s.",
			mention(ann.Player, ""), untilText(ann.Until))
	default:
		a.logger.Warn("unknown spawn announcement", slog.String("type", string(ann.Type)))
		return
	}
	a.send(ctx, ann.Type, ann.Channel, model.TextMessage(text))
}

// AnnounceBattle implements battle.Announcer
func (a *Announcer) AnnounceBattle(ctx context.Context, ann battle.Announcement) {
	v := ann.View
	var msg model.Message
	switch ann.Type {
	case model.EventBattleStarted:
		first := v.Side(v.Turn)
		msg.Embed = battleEmbed(v, "⚔️ The battle begins!",
			fmt.Sprintf("%s's %s faces %s's %s. %s moves first!",
				v.Challenger.Name, v.Challenger.Creature.Name, v.Opponent.Name, v.Opponent.Creature.Name, first.Name))
	case model.EventBattleTurn:
		msg.Embed = battleEmbed(v, "⚔️ Battle", TurnText(v, *ann.Turn))
	case model.EventBattleEnded:
		description := BattleEndText(v, battle.WinnerXP)
		if ann.Turn != nil {
			description = TurnText(v, *ann.Turn) + "\n" + description
		}
		msg.Embed = battleEmbed(v, "⚔️ Battle over", description)
	default:
		a.logger.Warn("unknown battle announcement", slog.String("type", string(ann.Type)))
		return
	}
	a.send(ctx, ann.Type, v.Channel, msg)
}

func (a *Announcer) send(ctx context.Context, typ model.EventType, channel model.ChannelID, msg model.Message) {
	if channel == "" || a.notifier == nil {
		return
	}
	a.notifier.Notify(ctx, model.Event{
		Type:      typ,
		Timestamp: a.clock.Now(),
		Channel:   channel,
		Message:   msg,
	})
}
