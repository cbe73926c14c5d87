package engine

import (
	"github.com/MRamiBalles/QuietDepths/internal/domain/catalog"
	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
)

// UpgradeSystem prices and applies upgrade purchases.
type UpgradeSystem struct {
	catalog *catalog.Catalog
}

// NewUpgradeSystem creates the purchase rules over a catalog.
func NewUpgradeSystem(cat *catalog.Catalog) *UpgradeSystem {
	return &UpgradeSystem{catalog: cat}
}

// Cost returns the price of the next level of id. Unknown ids cost nil.
func (us *UpgradeSystem) Cost(st economy.State, id economy.UpgradeID) map[economy.Currency]int64 {
	if _, ok := us.catalog.Upgrade(id); !ok {
		return nil
	}
	return us.catalog.UpgradeCost(id, st.Upgrade(id).Level)
}

// Purchase deducts the cost and advances the track by one level.
// ok=false means the purchase was declined and st is returned unchanged.
func (us *UpgradeSystem) Purchase(st economy.State, id economy.UpgradeID) (economy.State, bool) {
	cost := us.Cost(st, id)
	if cost == nil || !st.CanAfford(cost) {
		return st, false
	}

	delta := make(map[economy.Currency]int64, len(cost))
	for cur, amount := range cost {
		delta[cur] = -amount
	}
	next, ok := st.WithCurrencyDelta(delta)
	if !ok {
		return st, false
	}

	advanced, ok := us.catalog.Advance(id, next.Upgrade(id))
	if !ok {
		return st, false
	}
	next.Upgrades[id] = advanced
	return next, true
}
