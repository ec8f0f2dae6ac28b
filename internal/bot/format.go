package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/domonhunt/internal/model"
)

// Embed colors
const (
	colorInventory  = 0xFFD700
	colorCollection = 0x7DF9FF
	colorDomodex    = 0x6E34FF
	colorInfo       = 0x8EFFA2
	colorBattle     = 0xE74C3C
	colorHelp       = 0x95A5A6
)

var rarityColors = map[model.Rarity]int{
	model.RarityCommon:    0xB0B0B0,
	model.RarityUncommon:  0x2ECC71,
	model.RarityRare:      0x3498DB,
	model.RarityLegendary: 0xF1C40F,
}

func mention(id model.PlayerID, name string) string {
	if name == "" {
		name = string(id)
	}
	return "@" + name
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

func number(c model.Creature) string {
	return fmt.Sprintf("#%03d", c.Number)
}

// SpawnText is the announcement for a newly spawned creature
func SpawnText(c model.Creature, manual bool) string {
	var sb strings.Builder
	if manual {
		sb.WriteString("**(Admin)** ")
	}
	sb.WriteString("A wild DOMON appeared!\n")
	fmt.Fprintf(&sb, "**%s %s**\n", number(c), c.Name)
	fmt.Fprintf(&sb, "Type: %s | Rarity: %s\n", c.Type, c.Rarity)
	fmt.Fprintf(&sb, "_Description_: %s\n", c.Description)
	sb.WriteString("Type `!scan` to try to detect it!")
	return sb.String()
}

func inventoryEmbed(p *model.PlayerRecord) *model.Embed {
	e := &model.Embed{
		Title:  p.Name() + "'s Inventory",
		Color:  colorInventory,
		Footer: "XP: " + strconv.Itoa(p.XP),
	}
	names := p.Inventory.Names()
	if len(names) == 0 {
		e.Description = "Your inventory is empty. Claim items with `!daily`."
	}
	for _, name := range names {
		e.Fields = append(e.Fields, model.Field{Name: name, Value: strconv.Itoa(p.Inventory.Count(name)), Inline: true})
	}
	if p.Flags.DoubleXP {
		e.Fields = append(e.Fields, model.Field{Name: "Armed", Value: "Double XP on next capture"})
	}
	if p.Flags.Reroll {
		e.Fields = append(e.Fields, model.Field{Name: "Armed", Value: "Reroll on next failed capture"})
	}
	return e
}

func collectionEmbed(p *model.PlayerRecord) *model.Embed {
	var sb strings.Builder
	for i, c := range p.Collection {
		fmt.Fprintf(&sb, "%d. %s %s (%s)\n", i+1, number(c), c.Name, c.Rarity)
	}
	return &model.Embed{
		Title:       p.Name() + "'s Domon Collection",
		Description: strings.TrimSuffix(sb.String(), "\n"),
		Color:       colorCollection,
		Footer:      plural(len(p.Collection), "DOMON") + " | XP: " + strconv.Itoa(p.XP),
	}
}

func domodexEmbed(entries []model.Creature, page, pages int) *model.Embed {
	var sb strings.Builder
	for _, c := range entries {
		fmt.Fprintf(&sb, "%s %s (%s, %s)\n", number(c), c.Name, c.Type, c.Rarity)
	}
	return &model.Embed{
		Title:       fmt.Sprintf("DOMODEX - Page %d/%d", page, pages),
		Description: strings.TrimSuffix(sb.String(), "\n"),
		Color:       colorDomodex,
		Footer:      "Use `!domodex <page>` to browse, `!info <name>` for details",
	}
}

func infoEmbed(c model.Creature) *model.Embed {
	e := &model.Embed{
		Title: fmt.Sprintf("DOMODEX %s - %s", number(c), c.Name),
		Color: colorInfo,
		Fields: []model.Field{
			{Name: "Type", Value: c.Type, Inline: true},
			{Name: "Rarity", Value: c.Rarity.String(), Inline: true},
		},
	}
	if color, ok := rarityColors[c.Rarity]; ok {
		e.Color = color
	}
	if c.HasEvolution() {
		e.Fields = append(e.Fields, model.Field{Name: "Evolution", Value: c.Evolution, Inline: true})
	}
	s := c.Stats
	e.Fields = append(e.Fields,
		model.Field{Name: "Stats", Value: fmt.Sprintf("HP %d | ATK %d | DEF %d | SPD %d", s.Health, s.Attack, s.Defense, s.Speed)},
		model.Field{Name: "Moves", Value: movesText(c)},
		model.Field{Name: "Description", Value: c.Description},
	)
	return e
}

func movesText(c model.Creature) string {
	lines := make([]string, 0, model.MoveCount)
	for i, m := range c.Moves {
		if m.IsSupport() {
			lines = append(lines, fmt.Sprintf("%d. %s (guard)", i+1, m.Name))
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s (power %d, accuracy %d%%)", i+1, m.Name, m.Power, m.Accuracy))
	}
	return strings.Join(lines, "\n")
}

func combatantLine(c model.Combatant) string {
	if !c.Picked() {
		return c.Name + ": choosing..."
	}
	line := fmt.Sprintf("%s: %s %d/%d HP", c.Name, c.Creature.Name, max(0, c.HP), c.Creature.Stats.Health)
	if c.Guard > 0 {
		line += " (guarded)"
	}
	return line
}

// TurnText describes a resolved or skipped turn
func TurnText(v model.BattleView, t model.TurnResult) string {
	att := v.Side(t.Attacker)
	name := string(t.Attacker)
	creature := "its DOMON"
	if att != nil {
		name = att.Name
		if att.Creature != nil {
			creature = att.Creature.Name
		}
	}

	switch {
	case t.Skipped:
		return fmt.Sprintf("%s took too long. Turn skipped!", name)
	case t.Support:
		return fmt.Sprintf("%s's %s used **%s** and braced itself!", name, creature, t.Move)
	case !t.Hit:
		return fmt.Sprintf("%s's %s used **%s**... and missed!", name, creature, t.Move)
	}
	text := fmt.Sprintf("%s's %s used **%s** for %d damage!", name, creature, t.Move, t.Damage)
	if t.Critical {
		text += " Critical hit!"
	}
	return text
}

func battleEmbed(v model.BattleView, title, description string) *model.Embed {
	e := &model.Embed{
		Title:       title,
		Description: description,
		Color:       colorBattle,
		Fields: []model.Field{
			{Name: "Challenger", Value: combatantLine(v.Challenger), Inline: true},
			{Name: "Opponent", Value: combatantLine(v.Opponent), Inline: true},
		},
	}
	if v.Status == model.BattleFighting {
		if side := v.Side(v.Turn); side != nil {
			e.Footer = side.Name + " to move: `!move <1-4|name>`"
		}
	}
	return e
}

// BattleEndText describes how a battle ended
func BattleEndText(v model.BattleView, winnerXP int) string {
	switch v.Status {
	case model.BattleFinished:
		winner := v.Side(v.Winner)
		name := string(v.Winner)
		if winner != nil {
			name = winner.Name
		}
		return fmt.Sprintf("🏆 %s wins the battle and earns %s!", name, plural(winnerXP, "XP point"))
	case model.BattleCancelled:
		return "The battle was cancelled."
	case model.BattleAbandoned:
		return "The battle was abandoned after too many skipped turns. Nobody wins."
	}
	return "The battle is over."
}

func untilText(t time.Time) string {
	return t.UTC().Format("15:04") + " UTC"
}

func durationText(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	if h == 0 {
		return plural(max(1, m), "minute")
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
