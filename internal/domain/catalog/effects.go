package catalog

import (
	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
)

// EffectKind names the formula an upgrade track applies on purchase.
type EffectKind string

const (
	EffectCatchRate  EffectKind = "catchRate"  // fishPerAction = level
	EffectFindChance EffectKind = "findChance" // findChancePercent = level*2
	EffectZoneUnlock EffectKind = "zoneUnlock" // zonesUnlocked = min(level+1, zones)
	EffectVessel     EffectKind = "vessel"     // capacity += 25, tickPeriodMs = max(1000, 5000-level*200)
	EffectMultiplier EffectKind = "multiplier" // multiplier = 1 + level*0.1
)

const (
	vesselCapacityStep = 25
	vesselBasePeriodMs = 5000
	vesselMinPeriodMs  = 1000
	vesselPeriodStepMs = 200
)

// effectFunc computes derived stats for the given (new) level. prev carries
// the stats before the purchase for cumulative fields.
type effectFunc func(level int, prev economy.UpgradeState, zoneCount int) economy.UpgradeState

var effects = map[EffectKind]effectFunc{
	EffectCatchRate: func(level int, prev economy.UpgradeState, _ int) economy.UpgradeState {
		prev.FishPerAction = int64(level)
		return prev
	},
	EffectFindChance: func(level int, prev economy.UpgradeState, _ int) economy.UpgradeState {
		prev.FindChancePercent = int64(level) * 2
		return prev
	},
	EffectZoneUnlock: func(level int, prev economy.UpgradeState, zoneCount int) economy.UpgradeState {
		prev.ZonesUnlocked = min(level+1, zoneCount)
		return prev
	},
	EffectVessel: func(level int, prev economy.UpgradeState, _ int) economy.UpgradeState {
		prev.Capacity += vesselCapacityStep
		prev.TickPeriodMs = vesselPeriod(level)
		return prev
	},
	EffectMultiplier: func(level int, prev economy.UpgradeState, _ int) economy.UpgradeState {
		prev.Multiplier = 1 + float64(level)*0.1
		return prev
	},
}

func vesselPeriod(level int) int64 {
	return max(vesselMinPeriodMs, vesselBasePeriodMs-int64(level)*vesselPeriodStepMs)
}

// Advance returns prev moved up one level with its derived stats
// recomputed from the new level.
func (c *Catalog) Advance(id economy.UpgradeID, prev economy.UpgradeState) (economy.UpgradeState, bool) {
	def, ok := c.Upgrade(id)
	if !ok {
		return prev, false
	}
	level := prev.Level + 1
	next := effects[def.Effect](level, prev, len(c.Zones))
	next.Level = level
	return next, true
}

// fillDerived restores stats that are missing (zero) from a stored track.
func (c *Catalog) fillDerived(def UpgradeDefinition, st economy.UpgradeState) economy.UpgradeState {
	base := def.Initial
	level := st.Level
	switch def.Effect {
	case EffectCatchRate:
		if st.FishPerAction == 0 {
			st.FishPerAction = base.FishPerAction
			if level > 0 {
				st.FishPerAction = int64(level)
			}
		}
	case EffectFindChance:
		if st.FindChancePercent == 0 {
			st.FindChancePercent = int64(level) * 2
		}
	case EffectZoneUnlock:
		if st.ZonesUnlocked == 0 {
			st.ZonesUnlocked = max(base.ZonesUnlocked, 1)
			if level > 0 {
				st.ZonesUnlocked = level + 1
			}
		}
		st.ZonesUnlocked = min(st.ZonesUnlocked, len(c.Zones))
	case EffectVessel:
		if st.Capacity == 0 {
			st.Capacity = base.Capacity + int64(level)*vesselCapacityStep
		}
		if st.TickPeriodMs == 0 {
			st.TickPeriodMs = base.TickPeriodMs
			if level > 0 || st.TickPeriodMs == 0 {
				st.TickPeriodMs = vesselPeriod(level)
			}
		}
	case EffectMultiplier:
		if st.Multiplier == 0 {
			st.Multiplier = 1 + float64(level)*0.1
		}
	}
	return st
}
