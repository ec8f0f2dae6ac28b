package model

import "strings"

// ItemKind is the effect an item has when used
type ItemKind int

const (
	ItemUnknown ItemKind = iota
	ItemCaptureChance
	ItemCaptureGuaranteed
	ItemXPGrant
	ItemBonusGrant
	ItemDoubleXP
	ItemReroll
	ItemSpawnBoost
)

// Item names as they appear in inventories
const (
	Domoball       = "Domoball"
	Architectrap   = "Architectrap"
	SmallRepairKit = "Small Repair Kit"
	CryptoStamp    = "CryptoStamp"
	SpectraSeal    = "SpectraSeal"
	BIMNet         = "BIMNet"
	ScanTool       = "Scan Tool"
)

var itemKinds = map[string]ItemKind{
	Domoball:       ItemCaptureChance,
	Architectrap:   ItemCaptureGuaranteed,
	SmallRepairKit: ItemXPGrant,
	CryptoStamp:    ItemBonusGrant,
	SpectraSeal:    ItemDoubleXP,
	BIMNet:         ItemReroll,
	ScanTool:       ItemSpawnBoost,
}

// BonusItems is the pool random bonus grants draw from
var BonusItems = []string{ScanTool, SmallRepairKit, CryptoStamp, Architectrap, SpectraSeal, BIMNet}

// KindOf returns the kind of a named item
func KindOf(name string) ItemKind {
	return itemKinds[name]
}

// IsCapture reports whether the item is spent by capture attempts
func (k ItemKind) IsCapture() bool {
	return k == ItemCaptureChance || k == ItemCaptureGuaranteed
}

// CanonicalItem resolves a user-typed item name to its inventory name.
// Unknown names are returned trimmed and unchanged.
func CanonicalItem(name string) string {
	name = strings.TrimSpace(name)
	for known := range itemKinds {
		if strings.EqualFold(known, name) {
			return known
		}
	}
	return name
}
