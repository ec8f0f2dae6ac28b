package battle

import (
	"github.com/mcoot/domonhunt/internal/dependencies/random"
	"github.com/mcoot/domonhunt/internal/model"
)

const (
	// critChance is the percent chance a hit is critical
	critChance = 10
	// dodgeDivisor scales the speed gap into a dodge bonus
	dodgeDivisor = 2
)

// HitChance returns the percent chance move lands against def
func HitChance(att, def model.Stats, move model.Move) int {
	dodge := max(0, def.Speed-att.Speed) / dodgeDivisor
	return move.Accuracy - dodge
}

// Damage returns the damage a landed, non-critical hit deals
func Damage(att, def model.Stats, move model.Move, guarded bool) int {
	defense := def.Defense
	if guarded {
		defense = defense * 3 / 2
	}
	return max(1, move.Power+att.Attack/2-defense/4)
}

// Resolve applies one move from att to def and reports what happened.
// HP only lives on the combatants; catalog stats are never touched
func Resolve(att, def *model.Combatant, move model.Move, rnd random.Random) model.TurnResult {
	result := model.TurnResult{Attacker: att.Owner, Move: move.Name}

	if move.IsSupport() {
		att.Guard = model.GuardTurns
		result.Support = true
		result.Hit = true
		result.TargetHP = def.HP
		return result
	}

	if rnd.Intn(100) >= HitChance(att.Creature.Stats, def.Creature.Stats, move) {
		result.TargetHP = def.HP
		return result
	}

	result.Hit = true
	damage := Damage(att.Creature.Stats, def.Creature.Stats, move, def.Guard > 0)
	if rnd.Intn(100) >= 100-critChance {
		result.Critical = true
		damage = damage * 3 / 2
	}
	def.HP -= damage
	result.Damage = damage
	result.TargetHP = max(0, def.HP)
	return result
}
