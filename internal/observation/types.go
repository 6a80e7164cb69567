package observation

import "github.com/google/uuid"

// #region player-id
// PlayerID identifies a player. The game hands out UUIDs, so we reuse them verbatim.
type PlayerID = uuid.UUID

// ParsePlayerID parses a textual player UUID.
func ParsePlayerID(s string) (PlayerID, error) {
	return uuid.Parse(s)
}

// #endregion player-id

// #region category
// Category is the closed set of event categories the symbiote observes.
// Each category has its own dampening timer in the voice service.
type Category int

const (
	EnvironmentalHazard Category = iota
	CombatDamage
	FallDamage
	PlayerState
	Sleep
	BondingMilestone
	MiningAnchor
)

var categoryKeys = [...]string{
	EnvironmentalHazard: "environmental_hazard",
	CombatDamage:        "combat",
	FallDamage:          "fall",
	PlayerState:         "player_state",
	Sleep:               "sleep",
	BondingMilestone:    "bonding_milestone",
	MiningAnchor:        "mining_anchor",
}

// Categories lists every category in declaration order.
func Categories() []Category {
	return []Category{
		EnvironmentalHazard, CombatDamage, FallDamage, PlayerState,
		Sleep, BondingMilestone, MiningAnchor,
	}
}

// Key returns the stable string key used in concept ids, corpus tags and config.
func (c Category) Key() string {
	if c < 0 || int(c) >= len(categoryKeys) {
		return "unknown"
	}
	return categoryKeys[c]
}

func (c Category) String() string { return c.Key() }

// FirstConcept is the concept id tracking whether this category was ever observed.
func (c Category) FirstConcept() string {
	return "first_" + c.Key()
}

// IsDamage reports whether events of this category come from damage and
// are therefore subject to chaos suppression.
func (c Category) IsDamage() bool {
	switch c {
	case EnvironmentalHazard, CombatDamage, FallDamage:
		return true
	}
	return false
}

// ParseCategory resolves a category key.
func ParseCategory(key string) (Category, bool) {
	for i, k := range categoryKeys {
		if k == key {
			return Category(i), true
		}
	}
	return 0, false
}

// #endregion category

// #region tier
// Tier is the severity class of a spoken reaction. Order matters: higher tiers win.
type Tier int

const (
	Tier1Ambient Tier = iota + 1
	Tier2Breakthrough
)

// Key returns the corpus tag for the tier.
func (t Tier) Key() string {
	switch t {
	case Tier1Ambient:
		return "tier_1"
	case Tier2Breakthrough:
		return "tier_2"
	}
	return "unknown"
}

func (t Tier) String() string { return t.Key() }

// ParseTier resolves a tier tag ("tier_1", "tier_2").
func ParseTier(key string) (Tier, bool) {
	switch key {
	case "tier_1":
		return Tier1Ambient, true
	case "tier_2":
		return Tier2Breakthrough, true
	}
	return 0, false
}

// #endregion tier

// #region dream-level
// DreamLevel escalates with repeated stalled dream requests and clamps at L3Anchored.
type DreamLevel int

const (
	L1Reflective DreamLevel = iota
	L2Directional
	L3Anchored
)

// MaxDreamLevel is the top of the escalation ladder.
const MaxDreamLevel = L3Anchored

var dreamSuffixes = [...]string{
	L1Reflective:  "reflective",
	L2Directional: "directional",
	L3Anchored:    "anchored",
}

// DreamLevelFromInt clamps n into the valid level range.
func DreamLevelFromInt(n int) DreamLevel {
	if n < int(L1Reflective) {
		return L1Reflective
	}
	if n > int(MaxDreamLevel) {
		return MaxDreamLevel
	}
	return DreamLevel(n)
}

// Suffix is the line-category suffix for this level.
func (d DreamLevel) Suffix() string {
	return dreamSuffixes[DreamLevelFromInt(int(d))]
}

// LineCategory is the corpus category for dream lines at this level, e.g. "dream_reflective".
func (d DreamLevel) LineCategory() string {
	return "dream_" + d.Suffix()
}

func (d DreamLevel) String() string { return d.LineCategory() }

// IsDreamLineCategory reports whether key names one of the dream line categories.
func IsDreamLineCategory(key string) bool {
	for _, s := range dreamSuffixes {
		if key == "dream_"+s {
			return true
		}
	}
	return false
}

// #endregion dream-level
