package engine

import (
	"math"

	"github.com/MRamiBalles/QuietDepths/internal/domain/catalog"
	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
)

// ClickResult describes what a single cast brought in.
type ClickResult struct {
	Suppressed bool
	Yield      int64
	Pearl      bool
	Haul       economy.ItemID // empty when nothing was hauled
}

// SaleResult describes a SellInventory pass.
type SaleResult struct {
	Units    int64
	Proceeds int64
}

// IncomeSystem computes click yield, idle income and inventory sales.
type IncomeSystem struct {
	catalog *catalog.Catalog
	rnd     RandomSource
}

// NewIncomeSystem creates the income rules.
func NewIncomeSystem(cat *catalog.Catalog, rnd RandomSource) *IncomeSystem {
	return &IncomeSystem{catalog: cat, rnd: rnd}
}

// Click applies one player cast. A suppressed cast changes nothing.
func (is *IncomeSystem) Click(st economy.State) (economy.State, ClickResult) {
	mods := activeModifiers(is.catalog, st)
	if mods.Suppressed {
		return st, ClickResult{Suppressed: true}
	}

	yield := int64(math.Floor(float64(st.FishPerAction()) * mods.ClickMult * st.GlobalMultiplier()))
	if yield < 0 {
		yield = 0
	}

	next := st.Clone()
	next.Currencies[economy.Fish] += yield
	next.Stats.TotalActions++
	next.Stats.TotalResourceGained += yield
	res := ClickResult{Yield: yield}

	findChance := float64(st.FindChancePercent()) + mods.BonusChance
	if is.rnd.Float64()*100 < findChance {
		next.Currencies[economy.Pearls]++
		next.Stats.PearlsFound++
		res.Pearl = true
	}

	res.Haul = is.haul(&next)
	return next, res
}

// haul draws one obtainable from the current zone. Items stop once the
// hold (boat capacity) is full; currencies are always credited.
func (is *IncomeSystem) haul(st *economy.State) economy.ItemID {
	zone, ok := is.catalog.Zone(st.CurrentZoneIndex)
	if !ok || len(zone.Items) == 0 {
		return ""
	}
	id := zone.Items[is.rnd.IntN(len(zone.Items))]
	if cur, ok := catalog.AsCurrency(id); ok {
		st.Currencies[cur]++
		if cur == economy.Energy && st.Currencies[cur] > economy.MaxEnergy {
			st.Currencies[cur] = economy.MaxEnergy
		}
		return id
	}
	if hold := st.Upgrade(economy.Boat).Capacity; hold > 0 && inventoryUnits(*st) >= hold {
		return ""
	}
	st.Inventory[id]++
	return id
}

func inventoryUnits(st economy.State) int64 {
	var n int64
	for _, count := range st.Inventory {
		n += count
	}
	return n
}

// IdleTick applies one idle-income cycle and returns the gain.
func (is *IncomeSystem) IdleTick(st economy.State) (economy.State, int64) {
	mods := activeModifiers(is.catalog, st)
	if mods.Suppressed {
		return st, 0
	}

	mult := st.GlobalMultiplier()
	if mods.IdleBoosted {
		mult = mods.IdleMult * st.GlobalMultiplier()
	}
	if mult <= 0 {
		return st, 0
	}

	gain := int64(math.Floor(float64(st.IdleBase()) * mult))
	if gain <= 0 {
		return st, 0
	}

	next := st.Clone()
	next.Currencies[economy.Fish] += gain
	next.Stats.TotalResourceGained += gain
	return next, gain
}

// Sell converts every known inventory item into fish at its catalog value.
// An empty hold is a declined no-op.
func (is *IncomeSystem) Sell(st economy.State) (economy.State, SaleResult) {
	var res SaleResult
	for id, count := range st.Inventory {
		if count <= 0 {
			continue
		}
		if _, ok := is.catalog.Item(id); !ok {
			continue
		}
		res.Units += count
	}
	if res.Units == 0 {
		return st, res
	}

	next := st.Clone()
	for id, count := range st.Inventory {
		def, ok := is.catalog.Item(id)
		if !ok || count <= 0 {
			continue
		}
		res.Proceeds += count * def.Value
		next.Inventory[id] = 0
	}
	next.Currencies[economy.Fish] += res.Proceeds
	next.Stats.TotalResourceGained += res.Proceeds
	return next, res
}
