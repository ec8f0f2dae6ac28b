package ledger

import (
	"github.com/mcoot/domonhunt/internal/dependencies/random"
	"github.com/mcoot/domonhunt/internal/model"
)

// RepairKitXP is the XP a Small Repair Kit grants
const RepairKitXP = 3

// ItemOutcome reports what using an item did
type ItemOutcome struct {
	Item     string
	Kind     model.ItemKind
	Consumed bool

	XPGained   int
	Bonus      string // item granted by a bonus effect
	DoubleXP   bool   // double XP armed
	Reroll     bool   // reroll armed
	SpawnBoost bool   // caller activates the spawn boost
	NoEffect   bool   // item has no defined effect
	ForCapture bool   // item is only spent by capture

	Player *model.PlayerRecord
}

// effect applies one item kind to a record
type effect func(p *model.PlayerRecord, rnd random.Random, out *ItemOutcome)

var effects = map[model.ItemKind]effect{
	model.ItemXPGrant:    grantXP,
	model.ItemBonusGrant: grantBonus,
	model.ItemDoubleXP:   armDoubleXP,
	model.ItemReroll:     armReroll,
	model.ItemSpawnBoost: requestBoost,
}

func grantXP(p *model.PlayerRecord, _ random.Random, out *ItemOutcome) {
	p.XP += RepairKitXP
	out.XPGained = RepairKitXP
}

func grantBonus(p *model.PlayerRecord, rnd random.Random, out *ItemOutcome) {
	out.Bonus = RandomBonus(rnd)
	p.Inventory.Add(out.Bonus, 1)
}

func armDoubleXP(p *model.PlayerRecord, _ random.Random, out *ItemOutcome) {
	p.Flags.DoubleXP = true
	out.DoubleXP = true
}

func armReroll(p *model.PlayerRecord, _ random.Random, out *ItemOutcome) {
	p.Flags.Reroll = true
	out.Reroll = true
}

func requestBoost(_ *model.PlayerRecord, _ random.Random, out *ItemOutcome) {
	out.SpawnBoost = true
}

// RandomBonus draws one item from the bonus pool
func RandomBonus(rnd random.Random) string {
	return model.BonusItems[rnd.Intn(len(model.BonusItems))]
}

// CaptureItem returns the capture item a capture attempt would spend, preferring guaranteed ones
func CaptureItem(inv model.Inventory) string {
	switch {
	case inv.Count(model.Architectrap) > 0:
		return model.Architectrap
	case inv.Count(model.Domoball) > 0:
		return model.Domoball
	}
	return ""
}
