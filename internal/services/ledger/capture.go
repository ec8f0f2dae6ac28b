package ledger

import (
	"github.com/mcoot/domonhunt/internal/catalog"
	"github.com/mcoot/domonhunt/internal/dependencies/random"
	"github.com/mcoot/domonhunt/internal/model"
)

const (
	captureXP   = 1
	evolutionXP = 2
	// Every multiple of milestoneXP reached by a capture grants a bonus item
	milestoneXP = 10
)

// CaptureReward is what a successful capture added to a record
type CaptureReward struct {
	Creature  model.Creature
	XPGained  int
	DoubleXP  bool
	Evolved   *model.Creature
	Milestone string // bonus item, empty when no milestone was hit
	TotalXP   int
}

// ApplyCapture adds a captured creature to the record and resolves XP,
// evolution and the milestone bonus. It must run inside Service.Update
func ApplyCapture(p *model.PlayerRecord, creature model.Creature, cat *catalog.Catalog, rnd random.Random) CaptureReward {
	reward := CaptureReward{Creature: creature}

	p.Collection = append(p.Collection, creature)
	xp := captureXP
	if p.Flags.DoubleXP {
		xp *= 2
		p.Flags.DoubleXP = false
		reward.DoubleXP = true
	}
	p.XP += xp
	reward.XPGained = xp

	if evolved, ok := Evolve(p, cat); ok {
		reward.Evolved = &evolved
		reward.XPGained += evolutionXP
	}

	if p.XP > 0 && p.XP%milestoneXP == 0 {
		reward.Milestone = RandomBonus(rnd)
		p.Inventory.Add(reward.Milestone, 1)
	}

	reward.TotalXP = p.XP
	return reward
}

// Evolve performs at most one evolution: the first base, in catalog order,
// held at least 3 times whose target is not owned yet
func Evolve(p *model.PlayerRecord, cat *catalog.Catalog) (model.Creature, bool) {
	for _, base := range cat.All() {
		if !base.HasEvolution() || p.Owns(base.Evolution) {
			continue
		}
		if p.CountOf(base.Name) < 3 {
			continue
		}
		target, err := cat.ByName(base.Evolution)
		if err != nil {
			continue
		}
		p.Collection = append(p.Collection, target)
		p.XP += evolutionXP
		return target, true
	}
	return model.Creature{}, false
}
