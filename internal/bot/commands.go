package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/services/battle"
	"github.com/mcoot/domonhunt/internal/services/ledger"
)

func (b *Bot) registerCommands() {
	for _, c := range []*command{
		{name: "start", usage: "!start", help: "Create your hunter account with a starter pack", run: b.start},
		{name: "daily", usage: "!daily", help: "Claim your daily Domoballs and a bonus item", run: b.daily},
		{name: "inventory", usage: "!inventory", help: "Show your items", run: b.inventory},
		{name: "collection", usage: "!collection", help: "Show the DOMON you captured", run: b.collection},
		{name: "domodex", usage: "!domodex [page]", help: "Browse every DOMON", run: b.domodex},
		{name: "info", usage: "!info <name|number>", help: "Show one DOMON's details", run: b.info},
		{name: "use", usage: "!use <item>", help: "Use an item from your inventory", run: b.use},
		{name: "scan", usage: "!scan", help: "Detect the current DOMON and claim the capture", run: b.scan},
		{name: "capture", usage: "!capture", help: "Try to capture the DOMON you detected", run: b.capture},
		{name: "battle", usage: "!battle <player>", help: "Challenge another hunter", run: b.battle},
		{name: "pick", usage: "!pick <name|#n>", help: "Choose your DOMON for the battle", run: b.pick},
		{name: "move", usage: "!move <1-4|name>", help: "Play a move in the battle", run: b.move},
		{name: "help", usage: "!help", help: "Show this list", run: b.help},

		{name: "forcespawn", usage: "!forcespawn", help: "Spawn a DOMON now", privileged: true, run: b.forceSpawn},
		{name: "setspawn", usage: "!setspawn", help: "Make this channel the spawn channel", privileged: true, run: b.setSpawn},
		{name: "give", usage: "!give <player> <amount> [item]", help: "Grant items, Domoballs by default", privileged: true, run: b.give},
	} {
		b.register(c)
	}
}

func (b *Bot) start(ctx context.Context, inv Invocation) (model.Message, error) {
	if _, err := b.ledger.Start(ctx, inv.User, inv.DisplayName); err != nil {
		return model.Message{}, err
	}
	return model.TextMessage(fmt.Sprintf(
		"%s Welcome to MYİKKİ DOMON HUNT!\nYou receive: %d Domoballs and %d Scan Tool! Type `!inventory` to see your items.",
		mention(inv.User, inv.DisplayName), ledger.StarterDomoballs, ledger.StarterScanTools,
	)), nil
}

func (b *Bot) daily(ctx context.Context, inv Invocation) (model.Message, error) {
	reward, err := b.ledger.ClaimDaily(ctx, inv.User)
	if errors.Is(err, model.ErrDailyClaimed) {
		wait := b.ledger.NextDaily().Sub(b.clock.Now())
		return model.TextMessage("You already claimed your daily reward today! Come back in " + durationText(wait) + "."), nil
	}
	if err != nil {
		return model.Message{}, err
	}
	return model.TextMessage(fmt.Sprintf("%s received %d Domoballs and 1 bonus item: **%s**!",
		mention(inv.User, inv.DisplayName), reward.Domoballs, reward.Bonus)), nil
}

func (b *Bot) inventory(ctx context.Context, inv Invocation) (model.Message, error) {
	p, err := b.ledger.Get(ctx, inv.User)
	if err != nil {
		return model.Message{}, err
	}
	return model.Message{Embed: inventoryEmbed(p)}, nil
}

func (b *Bot) collection(ctx context.Context, inv Invocation) (model.Message, error) {
	p, err := b.ledger.Get(ctx, inv.User)
	if err != nil {
		return model.Message{}, err
	}
	if len(p.Collection) == 0 {
		return model.Message{}, model.ErrEmptyCollection
	}
	return model.Message{Embed: collectionEmbed(p)}, nil
}

func (b *Bot) domodex(_ context.Context, inv Invocation) (model.Message, error) {
	page := 1
	if len(inv.Args) > 0 {
		n, err := strconv.Atoi(inv.Args[0])
		if err != nil {
			return model.Message{}, model.UsageError("!domodex [page]")
		}
		page = n
	}
	entries, page := b.catalog.Page(page)
	return model.Message{Embed: domodexEmbed(entries, page, b.catalog.Pages())}, nil
}

func (b *Bot) info(_ context.Context, inv Invocation) (model.Message, error) {
	if len(inv.Args) == 0 {
		return model.Message{}, model.UsageError("!info <name|number>")
	}
	c, err := b.catalog.Lookup(strings.Join(inv.Args, " "))
	if err != nil {
		return model.Message{}, err
	}
	return model.Message{Embed: infoEmbed(c)}, nil
}

func (b *Bot) use(ctx context.Context, inv Invocation) (model.Message, error) {
	if len(inv.Args) == 0 {
		return model.Message{}, model.UsageError("!use <item>")
	}
	item := strings.Join(inv.Args, " ")
	if model.CanonicalItem(item) == "" {
		return model.Message{}, fmt.Errorf("%w: %q", model.ErrUnknownItem, item)
	}

	out, err := b.ledger.UseItem(ctx, inv.User, item)
	if err != nil {
		return model.Message{}, err
	}

	switch {
	case out.ForCapture:
		return model.TextMessage(fmt.Sprintf("**%s** is used automatically when you `!capture`.", out.Item)), nil
	case out.NoEffect:
		return model.TextMessage(fmt.Sprintf("**%s** has no effect yet.", out.Item)), nil
	case out.XPGained > 0:
		return model.TextMessage(fmt.Sprintf("%s used a %s: +%d XP (total %d).",
			mention(inv.User, inv.DisplayName), out.Item, out.XPGained, out.Player.XP)), nil
	case out.Bonus != "":
		return model.TextMessage(fmt.Sprintf("The %s revealed a **%s**!", out.Item, out.Bonus)), nil
	case out.DoubleXP:
		return model.TextMessage(fmt.Sprintf("%s armed: your next capture grants double XP.", out.Item)), nil
	case out.Reroll:
		return model.TextMessage(fmt.Sprintf("%s armed: your next failed capture gets a second roll.", out.Item)), nil
	case out.SpawnBoost:
		until, err := b.spawn.ActivateBoost(ctx, inv.User)
		if err != nil {
			return model.Message{}, err
		}
		return model.TextMessage(fmt.Sprintf("%s activated! DOMON will appear more often until %s.", out.Item, untilText(until))), nil
	}
	return model.TextMessage(fmt.Sprintf("Used **%s**.", out.Item)), nil
}

func (b *Bot) scan(ctx context.Context, inv Invocation) (model.Message, error) {
	res, err := b.spawn.Scan(ctx, inv.User)
	if err != nil {
		return model.Message{}, err
	}
	window := res.Deadline.Sub(b.clock.Now())
	return model.TextMessage(fmt.Sprintf("%s detected **%s**!\nType `!capture` within %s to try and catch it!",
		mention(inv.User, inv.DisplayName), res.Creature.Name, plural(int(window.Seconds()), "second"))), nil
}

func (b *Bot) capture(ctx context.Context, inv Invocation) (model.Message, error) {
	res, err := b.spawn.Capture(ctx, inv.User)
	if err != nil {
		return model.Message{}, err
	}
	who := mention(inv.User, inv.DisplayName)

	if res.Forfeited {
		return model.TextMessage(fmt.Sprintf(
			"%s has no capture items left and lost the claim on **%s**. Someone else may `!scan` it now! Get more with `!daily`.",
			who, res.Creature.Name)), nil
	}
	if !res.Success {
		text := fmt.Sprintf("❌ %s failed to capture the DOMON... It escaped!", who)
		if res.Rerolled {
			text = "Your BIMNet gave you a second try, but... " + text
		}
		return model.TextMessage(text), nil
	}

	reward := res.Reward
	lines := []string{fmt.Sprintf("🎉 %s captured **%s**! Added to your collection. +%d XP.",
		who, res.Creature.Name, reward.XPGained)}
	if res.Rerolled {
		lines = append(lines, "Your BIMNet gave you a second chance!")
	}
	if reward.DoubleXP {
		lines = append(lines, "Your SpectraSeal doubled the capture XP!")
	}
	if reward.Evolved != nil {
		lines = append(lines, fmt.Sprintf("✨ Your %s evolved into %s!", res.Creature.Name, reward.Evolved.Name))
	}
	if reward.Milestone != "" {
		lines = append(lines, fmt.Sprintf("You reached %d XP and received a bonus item: **%s**!", reward.TotalXP, reward.Milestone))
	}
	return model.TextMessage(strings.Join(lines, "\n")), nil
}

func (b *Bot) forceSpawn(ctx context.Context, inv Invocation) (model.Message, error) {
	c, err := b.spawn.ForceSpawn(ctx, inv.Channel)
	if err != nil {
		return model.Message{}, err
	}
	return model.TextMessage(SpawnText(*c, true)), nil
}

func (b *Bot) setSpawn(ctx context.Context, inv Invocation) (model.Message, error) {
	if err := b.spawn.SetChannel(ctx, inv.Channel); err != nil {
		return model.Message{}, err
	}
	return model.TextMessage("This channel is now the DOMON spawn channel!"), nil
}

func (b *Bot) give(ctx context.Context, inv Invocation) (model.Message, error) {
	const usage = "!give <player> <amount> [item]"
	if len(inv.Args) < 2 {
		return model.Message{}, model.UsageError(usage)
	}
	target := playerArg(inv.Args[0])
	amount, err := strconv.Atoi(inv.Args[1])
	if err != nil {
		return model.Message{}, model.UsageError(usage)
	}
	item := model.Domoball
	if len(inv.Args) > 2 {
		item = strings.Join(inv.Args[2:], " ")
	}

	p, err := b.ledger.Grant(ctx, target, item, amount)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return model.TextMessage(string(target) + " hasn't started hunting yet."), nil
	}
	if err != nil {
		return model.Message{}, err
	}
	b.logger.Info("items granted",
		slog.String("owner", string(inv.User)),
		slog.String("player_id", string(target)),
		slog.String("item", item),
		slog.Int("amount", amount),
	)
	name := model.CanonicalItem(item)
	return model.TextMessage(fmt.Sprintf("Gave %d× %s to %s (now %d).", amount, name, p.Name(), p.Inventory.Count(name))), nil
}

func (b *Bot) battle(ctx context.Context, inv Invocation) (model.Message, error) {
	if len(inv.Args) != 1 {
		return model.Message{}, model.UsageError("!battle <player>")
	}
	if _, err := b.ledger.Get(ctx, inv.User); err != nil {
		return model.Message{}, err
	}
	target := playerArg(inv.Args[0])
	opponent, err := b.ledger.Get(ctx, target)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return model.TextMessage(string(target) + " hasn't started hunting yet."), nil
	}
	if err != nil {
		return model.Message{}, err
	}

	challenger := battle.Participant{ID: inv.User, Name: displayName(inv)}
	view, err := b.battles.Start(ctx, inv.Scope, inv.Channel, challenger, battle.Participant{ID: target, Name: opponent.Name()})
	if errors.Is(err, model.ErrEmptyCollection) {
		return model.TextMessage("Both hunters need at least one captured DOMON to battle!"), nil
	}
	if err != nil {
		return model.Message{}, err
	}
	return model.Message{Embed: battleEmbed(*view, "⚔️ Battle!",
		fmt.Sprintf("%s challenged %s! Both hunters: `!pick <name|#n>` from your `!collection`.",
			view.Challenger.Name, view.Opponent.Name))}, nil
}

func (b *Bot) pick(ctx context.Context, inv Invocation) (model.Message, error) {
	if len(inv.Args) == 0 {
		return model.Message{}, model.UsageError("!pick <name|#n>")
	}
	view, err := b.battles.Pick(ctx, inv.Scope, inv.User, strings.Join(inv.Args, " "))
	if err != nil {
		return model.Message{}, err
	}
	side := view.Side(inv.User)
	text := fmt.Sprintf("%s picked **%s**!", side.Name, side.Creature.Name)
	if view.Status == model.BattleFighting {
		text += fmt.Sprintf(" The battle begins, %s moves first!", view.Side(view.Turn).Name)
	}
	return model.TextMessage(text), nil
}

func (b *Bot) move(ctx context.Context, inv Invocation) (model.Message, error) {
	if len(inv.Args) == 0 {
		return model.Message{}, model.UsageError("!move <1-4|name>")
	}
	res, view, err := b.battles.Move(ctx, inv.Scope, inv.User, strings.Join(inv.Args, " "))
	if err != nil {
		return model.Message{}, err
	}
	text := TurnText(*view, *res)
	if view.Status == model.BattleFinished {
		text += "\n" + BattleEndText(*view, battle.WinnerXP)
	}
	return model.Message{Embed: battleEmbed(*view, "⚔️ Battle", text)}, nil
}

func (b *Bot) help(_ context.Context, inv Invocation) (model.Message, error) {
	e := &model.Embed{Title: "DOMON HUNT commands", Color: colorHelp}
	for _, name := range b.Commands() {
		c := b.commands[name]
		if c.privileged && !b.isOwner(inv) {
			continue
		}
		e.Fields = append(e.Fields, model.Field{Name: c.usage, Value: c.help})
	}
	return model.Message{Embed: e}, nil
}

// playerArg accepts a raw id or a chat mention like <@123> or @alice
func playerArg(arg string) model.PlayerID {
	arg = strings.TrimSpace(arg)
	arg = strings.TrimPrefix(arg, "<@")
	arg = strings.TrimPrefix(arg, "!")
	arg = strings.TrimSuffix(arg, ">")
	return model.PlayerID(strings.TrimPrefix(arg, "@"))
}

func displayName(inv Invocation) string {
	if inv.DisplayName != "" {
		return inv.DisplayName
	}
	return string(inv.User)
}
