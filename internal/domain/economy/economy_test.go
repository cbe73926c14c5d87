package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() State {
	return State{
		Currencies: map[Currency]int64{Fish: 10, Pearls: 2, Energy: 100},
		Upgrades: map[UpgradeID]UpgradeState{
			Nets: {Level: 1, FishPerAction: 1},
			Boat: {Level: 3, Capacity: 175, TickPeriodMs: 4400},
		},
		Inventory:    map[ItemID]int64{"commonFish": 4},
		ActiveEvent:  &ActiveEvent{EventID: "storm", RemainingDurationMs: 15000},
		Screen:       ScreenGame,
		Achievements: []string{"first-steps"},
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := sampleState()
	cp := orig.Clone()

	cp.Currencies[Fish] = 999
	cp.Upgrades[Nets] = UpgradeState{Level: 7}
	cp.Inventory["commonFish"] = 0
	cp.ActiveEvent.RemainingDurationMs = 1
	cp.Achievements[0] = "abyss-conqueror"

	assert.Equal(t, int64(10), orig.Currencies[Fish])
	assert.Equal(t, 1, orig.Upgrades[Nets].Level)
	assert.Equal(t, int64(4), orig.Inventory["commonFish"])
	assert.Equal(t, int64(15000), orig.ActiveEvent.RemainingDurationMs)
	assert.NotSame(t, orig.ActiveEvent, cp.ActiveEvent)
	assert.Equal(t, []string{"first-steps"}, orig.Achievements)
}

func TestHasAchievement(t *testing.T) {
	st := sampleState()
	assert.True(t, st.HasAchievement("first-steps"))
	assert.False(t, st.HasAchievement("master-of-depths"))
	assert.False(t, State{}.HasAchievement("first-steps"))
}

func TestWithCurrencyDeltaRejectsInFull(t *testing.T) {
	st := sampleState()

	_, ok := st.WithCurrencyDelta(map[Currency]int64{Fish: -5, Pearls: -3})
	assert.False(t, ok)

	next, ok := st.WithCurrencyDelta(map[Currency]int64{Fish: -10, Pearls: -2})
	require.True(t, ok)
	assert.Equal(t, int64(0), next.Balance(Fish))
	assert.Equal(t, int64(0), next.Balance(Pearls))
	assert.Equal(t, int64(10), st.Balance(Fish), "receiver must stay untouched")
}

func TestWithCurrencyDeltaCapsEnergy(t *testing.T) {
	st := sampleState()
	next, ok := st.WithCurrencyDelta(map[Currency]int64{Energy: 50})
	require.True(t, ok)
	assert.Equal(t, int64(MaxEnergy), next.Balance(Energy))
}

func TestWithInventoryDelta(t *testing.T) {
	st := sampleState()
	_, ok := st.WithInventoryDelta(map[ItemID]int64{"commonFish": -5})
	assert.False(t, ok)

	next, ok := st.WithInventoryDelta(map[ItemID]int64{"commonFish": -4, "corals": 2})
	require.True(t, ok)
	assert.Equal(t, int64(0), next.Inventory["commonFish"])
	assert.Equal(t, int64(2), next.Inventory["corals"])
}

func TestDerivedReads(t *testing.T) {
	st := sampleState()
	assert.Equal(t, int64(2), st.IdleBase(), "floor(3*0.5+1)")
	assert.Equal(t, 4400*time.Millisecond, st.TickPeriod())
	assert.Equal(t, 1.0, st.GlobalMultiplier())
	assert.Equal(t, 1, st.ZonesUnlocked())
	assert.True(t, st.CanAfford(map[Currency]int64{Fish: 10, Pearls: 2}))
	assert.False(t, st.CanAfford(map[Currency]int64{Fish: 11}))

	var zero State
	assert.Equal(t, int64(1), zero.IdleBase())
	assert.Equal(t, 5*time.Second, zero.TickPeriod())
}
