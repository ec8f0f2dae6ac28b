package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mcoot/domonhunt/internal/api/response"
	"github.com/mcoot/domonhunt/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.CommandReply:
		fmt.Println(v.Text)
	case model.Event:
		o.printEvent(v)
	case response.Player:
		o.printPlayer(v)
	case response.Spawn:
		o.printSpawn(v)
	case model.BattleView:
		o.printBattle(v)
	case response.DomodexPage:
		o.printDomodexPage(v)
	case model.Creature:
		o.printCreature(v)
	case response.Health:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printEvent(ev model.Event) {
	timestamp := ev.Timestamp.Local().Format("15:04:05")
	fmt.Printf("[%s] %s\n", timestamp, strings.ReplaceAll(ev.Message.PlainText(), "\n", "\n           "))
}

func (o *Output) printPlayer(p response.Player) {
	fmt.Printf("Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Printf("XP: %d\n", p.XP)

	if len(p.Inventory) == 0 {
		fmt.Println("Inventory: empty")
	} else {
		fmt.Println("Inventory:")
		for _, name := range model.Inventory(p.Inventory).Names() {
			fmt.Printf("  - %s x%d\n", name, p.Inventory[name])
		}
	}

	fmt.Printf("Collection (%d):\n", len(p.Collection))
	for i, c := range p.Collection {
		fmt.Printf("  %d. #%03d %s (%s)\n", i+1, c.Number, c.Name, c.Rarity)
	}

	var flags []string
	if p.Flags.DoubleXP {
		flags = append(flags, "double XP armed")
	}
	if p.Flags.Reroll {
		flags = append(flags, "reroll armed")
	}
	if len(flags) > 0 {
		fmt.Printf("Flags: %s\n", strings.Join(flags, ", "))
	}
}

func (o *Output) printSpawn(s response.Spawn) {
	fmt.Printf("Phase: %s\n", s.Phase)
	if s.Channel != "" {
		fmt.Printf("Channel: %s\n", s.Channel)
	}
	if s.Creature != nil {
		fmt.Printf("DOMON: #%03d %s (%s, %s)\n", s.Creature.Number, s.Creature.Name, s.Creature.Type, s.Creature.Rarity)
	}
	if s.Claimant != "" {
		fmt.Printf("Scanned by: %s (%.0fs left)\n", s.Claimant, s.ClaimRemaining)
	}
	if s.Boosted && s.BoostUntil != nil {
		fmt.Printf("Boost until: %s\n", s.BoostUntil.Local().Format("15:04:05"))
	}
}

func (o *Output) printBattle(b model.BattleView) {
	fmt.Printf("Battle: %s\n", b.ID)
	fmt.Printf("Status: %s\n", b.Status)
	for _, side := range []model.Combatant{b.Challenger, b.Opponent} {
		if side.Creature == nil {
			fmt.Printf("  %s: picking\n", side.Name)
			continue
		}
		guard := ""
		if side.Guard > 0 {
			guard = " [guarded]"
		}
		fmt.Printf("  %s: %s %d/%d HP%s\n", side.Name, side.Creature.Name, max(side.HP, 0), side.Creature.Stats.Health, guard)
	}
	if b.Turn != "" {
		fmt.Printf("Turn: %s\n", b.Turn)
	}
	if b.Winner != "" {
		fmt.Printf("Winner: %s\n", b.Winner)
	}
}

func (o *Output) printDomodexPage(p response.DomodexPage) {
	fmt.Printf("DOMODEX - Page %d/%d\n", p.Page, p.Pages)
	for _, c := range p.Entries {
		fmt.Printf("  #%03d %-14s %-10s %s\n", c.Number, c.Name, c.Type, c.Rarity)
	}
}

func (o *Output) printCreature(c model.Creature) {
	fmt.Printf("DOMODEX #%03d - %s\n", c.Number, c.Name)
	fmt.Printf("Type: %s\n", c.Type)
	fmt.Printf("Rarity: %s\n", c.Rarity)
	if c.HasEvolution() {
		fmt.Printf("Evolves into: %s\n", c.Evolution)
	}
	fmt.Println(c.Description)
	fmt.Printf("HP %d  ATK %d  DEF %d  SPD %d\n", c.Stats.Health, c.Stats.Attack, c.Stats.Defense, c.Stats.Speed)
	fmt.Println("Moves:")
	for i, m := range c.Moves {
		if m.IsSupport() {
			fmt.Printf("  %d. %s (guard)\n", i+1, m.Name)
			continue
		}
		fmt.Printf("  %d. %s (power %d, accuracy %d%%)\n", i+1, m.Name, m.Power, m.Accuracy)
	}
}

func (o *Output) printHealth(h response.Health) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Active spawn: %t\n", h.ActiveSpawn)
	fmt.Printf("Subscriptions: %d\n", h.Subscriptions)
}
