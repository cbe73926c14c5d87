package catalog

import (
	"time"

	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
)

// DefaultState builds a fresh session state: empty balances except full
// energy, every upgrade at level 0 with its starting stats.
func (c *Catalog) DefaultState(now time.Time) economy.State {
	ms := now.UnixMilli()
	st := economy.State{
		Currencies: map[economy.Currency]int64{
			economy.Fish:      0,
			economy.Pearls:    0,
			economy.Artifacts: 0,
			economy.Energy:    economy.MaxEnergy,
		},
		Upgrades:  make(map[economy.UpgradeID]economy.UpgradeState, len(c.Upgrades)),
		Inventory: make(map[economy.ItemID]int64, len(c.Items)),
		Stats: economy.Stats{
			SessionStartTime: ms,
			LastObservedTime: ms,
		},
		Settings: economy.Settings{
			SoundEnabled: true,
			MusicEnabled: true,
			Language:     "ru",
		},
		Screen:       economy.ScreenGame,
		Achievements: []string{},
	}
	for _, def := range c.Upgrades {
		initial := def.Initial
		initial.Level = 0
		st.Upgrades[def.ID] = c.fillDerived(def, initial)
	}
	for _, it := range c.Items {
		st.Inventory[it.ID] = 0
	}
	return st
}

// Normalize repairs a state decoded from storage so it satisfies every
// invariant: known tracks present, derived stats filled, balances
// non-negative, zone, event and achievement references valid.
func (c *Catalog) Normalize(st *economy.State) {
	if st.Currencies == nil {
		st.Currencies = make(map[economy.Currency]int64)
	}
	for cur, v := range st.Currencies {
		if v < 0 {
			st.Currencies[cur] = 0
		}
	}
	if st.Currencies[economy.Energy] > economy.MaxEnergy {
		st.Currencies[economy.Energy] = economy.MaxEnergy
	}

	if st.Upgrades == nil {
		st.Upgrades = make(map[economy.UpgradeID]economy.UpgradeState)
	}
	for _, def := range c.Upgrades {
		up, ok := st.Upgrades[def.ID]
		if !ok {
			up = def.Initial
			up.Level = 0
		}
		if up.Level < 0 {
			up.Level = 0
		}
		st.Upgrades[def.ID] = c.fillDerived(def, up)
	}

	if st.Inventory == nil {
		st.Inventory = make(map[economy.ItemID]int64)
	}
	for id, n := range st.Inventory {
		if n < 0 {
			st.Inventory[id] = 0
		}
	}

	if st.CurrentZoneIndex < 0 || st.CurrentZoneIndex >= st.ZonesUnlocked() {
		st.CurrentZoneIndex = 0
	}

	if ev := st.ActiveEvent; ev != nil {
		if _, ok := c.Event(ev.EventID); !ok || ev.RemainingDurationMs <= 0 {
			st.ActiveEvent = nil
		}
	}

	if st.Stats.LastOfflineDuration < 0 {
		st.Stats.LastOfflineDuration = 0
	}
	c.normalizeAchievements(st)
}

// ActiveEffect returns the effect of the running event, if any.
func (c *Catalog) ActiveEffect(st economy.State) (Effect, bool) {
	if st.ActiveEvent == nil {
		return Effect{}, false
	}
	def, ok := c.Event(st.ActiveEvent.EventID)
	if !ok {
		return Effect{}, false
	}
	return def.Effect, true
}
