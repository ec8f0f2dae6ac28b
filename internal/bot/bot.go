package bot

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mcoot/domonhunt/internal/catalog"
	"github.com/mcoot/domonhunt/internal/dependencies/clock"
	"github.com/mcoot/domonhunt/internal/metrics"
	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/services/battle"
	"github.com/mcoot/domonhunt/internal/services/ledger"
	"github.com/mcoot/domonhunt/internal/services/spawn"
)

// Prefix starts every command in chat text
const Prefix = "!"

// Invocation is one command issued from a chat surface
type Invocation struct {
	Command     string          `json:"command"`
	Args        []string        `json:"args,omitempty"`
	User        model.PlayerID  `json:"user"`
	DisplayName string          `json:"display_name,omitempty"`
	Channel     model.ChannelID `json:"channel"`
	Scope       model.ScopeID   `json:"scope,omitempty"` // defaults to the channel

	// Anonymous marks a User the transport could not authenticate. Such
	// invocations never run privileged commands
	Anonymous bool `json:"-"`
}

// Parse splits chat text like "!use Scan Tool" into a command and its
// arguments. ok is false when the text is not a command
func Parse(text string) (command string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, Prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(text, Prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// Config holds dispatcher settings
type Config struct {
	OwnerID  model.PlayerID // only identity allowed to run privileged commands
	Cooldown time.Duration  // minimum spacing between a user's commands, 0 disables
	Burst    int            // commands allowed back to back before the cooldown applies
}

type handler func(ctx context.Context, inv Invocation) (model.Message, error)

type command struct {
	name       string
	usage      string
	help       string
	privileged bool
	run        handler
}

// Bot routes invocations to command handlers
type Bot struct {
	ledger    *ledger.Service
	spawn     *spawn.Controller
	battles   *battle.Manager
	catalog   *catalog.Catalog
	clock     clock.Clock
	metrics   *metrics.Manager
	cfg       Config
	logger    *slog.Logger
	commands  map[string]*command
	cooldowns *cooldowns
}

// New creates a bot with every command registered
func New(
	ledger *ledger.Service,
	spawn *spawn.Controller,
	battles *battle.Manager,
	clock clock.Clock,
	metrics *metrics.Manager,
	cfg Config,
	logger *slog.Logger,
) *Bot {
	b := &Bot{
		ledger:    ledger,
		spawn:     spawn,
		battles:   battles,
		catalog:   ledger.Catalog(),
		clock:     clock,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "bot")),
		commands:  make(map[string]*command),
		cooldowns: newCooldowns(clock, cfg.Cooldown, cfg.Burst),
	}
	b.registerCommands()
	return b
}

func (b *Bot) register(c *command) {
	b.commands[c.name] = c
}

// Commands returns the registered commands sorted by name
func (b *Bot) Commands() []string {
	names := make([]string, 0, len(b.commands))
	for name := range b.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs one invocation and returns the reply. It never panics and
// never returns an empty message for a known command
func (b *Bot) Dispatch(ctx context.Context, inv Invocation) (reply model.Message) {
	start := time.Now()
	name := strings.ToLower(strings.TrimPrefix(inv.Command, Prefix))
	inv.Command = name
	if inv.Scope == "" {
		inv.Scope = model.ScopeID(inv.Channel)
	}
	result := "ok"

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("command panicked",
				slog.String("command", name),
				slog.String("player_id", string(inv.User)),
				slog.Any("panic", r),
			)
			reply = model.TextMessage(genericError)
			result = "panic"
		}
		b.metrics.RecordCommand(name, result, time.Since(start))
	}()

	cmd, ok := b.commands[name]
	if !ok {
		result = "unknown"
		return b.errorReply(inv, model.ErrUnknownCommand)
	}
	if cmd.privileged && !b.isOwner(inv) {
		result = "refused"
		return b.errorReply(inv, model.ErrNotPrivileged)
	}
	if !cmd.privileged {
		if err := b.cooldowns.allow(inv.User); err != nil {
			result = "cooldown"
			return b.errorReply(inv, err)
		}
	}

	reply, err := cmd.run(ctx, inv)
	if err != nil {
		result = "error"
		return b.errorReply(inv, err)
	}
	return reply
}

// errorReply turns a handler error into the player-facing reply
func (b *Bot) isOwner(inv Invocation) bool {
	return !inv.Anonymous && b.cfg.OwnerID != "" && inv.User == b.cfg.OwnerID
}

func (b *Bot) errorReply(inv Invocation, err error) model.Message {
	text, known := errorText(err)
	if !known {
		b.logger.Error("command failed",
			slog.String("command", inv.Command),
			slog.String("player_id", string(inv.User)),
			slog.String("error", err.Error()),
		)
	}
	return model.TextMessage(text)
}

const genericError = "An error occurred. Please try again later."

// errorText maps sentinel errors to replies. known is false for errors the
// player cannot act on
func errorText(err error) (text string, known bool) {
	var cooldown *model.CooldownError
	if errors.As(err, &cooldown) {
		return "Slow down! Try again in " + plural(cooldown.Seconds(), "second") + ".", true
	}

	switch {
	case errors.Is(err, model.ErrUsage):
		return "Usage: `" + strings.TrimPrefix(err.Error(), model.ErrUsage.Error()+": ") + "`", true
	case errors.Is(err, model.ErrUnknownCommand):
		return "Unknown command. Type `!help` to see what I can do.", true
	case errors.Is(err, model.ErrNotPrivileged):
		return "Only the bot owner can use this command.", true

	case errors.Is(err, model.ErrPlayerNotFound):
		return "Type `!start` to begin your hunt!", true
	case errors.Is(err, model.ErrAlreadyStarted):
		return "You already have an account! Use `!inventory`.", true
	case errors.Is(err, model.ErrDailyClaimed):
		return "You already claimed your daily reward today!", true
	case errors.Is(err, model.ErrUnknownItem):
		return "Unknown item. Check `!inventory` for what you own.", true
	case errors.Is(err, model.ErrItemNotOwned):
		return "You don't have that item.", true
	case errors.Is(err, model.ErrEmptyCollection):
		return "You haven't captured any DOMON yet!", true
	case errors.Is(err, model.ErrInvalidAmount):
		return "The amount must be a positive number.", true
	case errors.Is(err, model.ErrCreatureNotFound):
		return "Unknown DOMON.", true

	case errors.Is(err, model.ErrNoActiveSpawn):
		return "No DOMON around right now.", true
	case errors.Is(err, model.ErrSpawnActive):
		return "A DOMON is already spawned.", true
	case errors.Is(err, model.ErrAlreadyClaimed):
		return "Someone already detected this DOMON!", true
	case errors.Is(err, model.ErrNotScanned):
		return "Nobody has detected this DOMON yet. Type `!scan` first!", true
	case errors.Is(err, model.ErrNotClaimant):
		return "Only the first scanner can try to capture this DOMON!", true
	case errors.Is(err, model.ErrAlreadyAttempted):
		return "A capture attempt was already made for this DOMON.", true
	case errors.Is(err, model.ErrClaimExpired):
		return "Too late! The scan expired and the DOMON is free again.", true
	case errors.Is(err, model.ErrNoChannel):
		return "No spawn channel is set. The owner must use `!setspawn`.", true

	case errors.Is(err, model.ErrBattleInProgress):
		return "A battle is already running here!", true
	case errors.Is(err, model.ErrNoActiveBattle):
		return "There is no battle running here.", true
	case errors.Is(err, model.ErrSelfBattle):
		return "You can't battle yourself!", true
	case errors.Is(err, model.ErrNotParticipant):
		return "You are not part of this battle.", true
	case errors.Is(err, model.ErrNotYourTurn):
		return "It's not your turn!", true
	case errors.Is(err, model.ErrAlreadyPicked):
		return "You already picked your DOMON.", true
	case errors.Is(err, model.ErrNotPicking):
		return "That can't be done at this stage of the battle.", true
	case errors.Is(err, model.ErrInvalidMove):
		return "Unknown move. Use `!move <1-4|name>`.", true
	case errors.Is(err, model.ErrBattleOver):
		return "This battle is already over.", true
	}
	return genericError, false
}
