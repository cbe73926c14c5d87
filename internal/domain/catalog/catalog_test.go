package catalog

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
)

func TestDefaultTables(t *testing.T) {
	c := Default()

	assert.Len(t, c.Zones, 4)
	assert.Len(t, c.Upgrades, 5)
	assert.Len(t, c.Events, 3)
	assert.Len(t, c.Items, 5)

	storm, ok := c.Event("storm")
	require.True(t, ok)
	assert.Equal(t, Suppressor, storm.Effect.Kind)
	assert.Equal(t, int64(15000), storm.DurationMs)

	glow, ok := c.Event("jellyfish-glow")
	require.True(t, ok)
	assert.True(t, glow.Effect.Affects(FindChance))
	assert.False(t, glow.Effect.Affects(ClickYield))
}

func TestUpgradeCostMatchesFormula(t *testing.T) {
	c := Default()
	for level := 0; level <= 10; level++ {
		want := int64(math.Floor(10 * math.Pow(1.5, float64(level))))
		got := c.UpgradeCost(economy.Nets, level)
		assert.Equal(t, map[economy.Currency]int64{economy.Fish: want}, got, "level %d", level)
	}

	assert.Equal(t, map[economy.Currency]int64{economy.Fish: 10}, c.UpgradeCost(economy.Nets, 0))
	assert.Equal(t, int64(33), c.UpgradeCost(economy.Nets, 3)[economy.Fish])
	assert.Equal(t, map[economy.Currency]int64{economy.Fish: 225, economy.Pearls: 11},
		c.UpgradeCost(economy.DepthLanterns, 2))
	assert.Nil(t, c.UpgradeCost("anchor", 0))
}

func TestAdvanceEffects(t *testing.T) {
	c := Default()
	st := c.DefaultState(time.Unix(0, 0))

	nets, ok := c.Advance(economy.Nets, st.Upgrade(economy.Nets))
	require.True(t, ok)
	assert.Equal(t, 1, nets.Level)
	assert.Equal(t, int64(1), nets.FishPerAction)

	oysters, _ := c.Advance(economy.PearlOysters, st.Upgrade(economy.PearlOysters))
	oysters, _ = c.Advance(economy.PearlOysters, oysters)
	assert.Equal(t, int64(4), oysters.FindChancePercent)

	lanterns := st.Upgrade(economy.DepthLanterns)
	for i := 0; i < 6; i++ {
		lanterns, _ = c.Advance(economy.DepthLanterns, lanterns)
	}
	assert.Equal(t, 4, lanterns.ZonesUnlocked, "capped at zone count")

	boat, _ := c.Advance(economy.Boat, st.Upgrade(economy.Boat))
	boat, _ = c.Advance(economy.Boat, boat)
	assert.Equal(t, int64(150), boat.Capacity)
	assert.Equal(t, int64(4600), boat.TickPeriodMs)
	for i := 0; i < 30; i++ {
		boat, _ = c.Advance(economy.Boat, boat)
	}
	assert.Equal(t, int64(1000), boat.TickPeriodMs)

	spirit, _ := c.Advance(economy.OceanSpirit, st.Upgrade(economy.OceanSpirit))
	assert.InDelta(t, 1.1, spirit.Multiplier, 1e-9)

	_, ok = c.Advance("anchor", economy.UpgradeState{})
	assert.False(t, ok)
}

func TestDefaultState(t *testing.T) {
	c := Default()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st := c.DefaultState(now)

	assert.Equal(t, int64(economy.MaxEnergy), st.Balance(economy.Energy))
	assert.Equal(t, int64(1), st.FishPerAction())
	assert.Equal(t, 1, st.ZonesUnlocked())
	assert.Equal(t, 5*time.Second, st.TickPeriod())
	assert.Equal(t, 1.0, st.GlobalMultiplier())
	assert.Equal(t, now.UnixMilli(), st.Stats.LastObservedTime)
	assert.Nil(t, st.ActiveEvent)
	for _, def := range c.Upgrades {
		assert.Equal(t, 0, st.Upgrade(def.ID).Level)
	}
}

func TestNormalizeRepairsDrift(t *testing.T) {
	c := Default()
	st := economy.State{
		Currencies:       map[economy.Currency]int64{economy.Fish: -4, economy.Energy: 250},
		CurrentZoneIndex: 3,
		Upgrades: map[economy.UpgradeID]economy.UpgradeState{
			economy.Boat: {Level: 2},
			economy.Nets: {Level: 3},
		},
		Inventory:   map[economy.ItemID]int64{"corals": -1},
		ActiveEvent: &economy.ActiveEvent{EventID: "tsunami", RemainingDurationMs: 1000},
	}

	c.Normalize(&st)

	assert.Equal(t, int64(0), st.Balance(economy.Fish))
	assert.Equal(t, int64(economy.MaxEnergy), st.Balance(economy.Energy))
	assert.Equal(t, 0, st.CurrentZoneIndex, "zone 3 is not unlocked")
	assert.Equal(t, int64(150), st.Upgrade(economy.Boat).Capacity)
	assert.Equal(t, int64(4600), st.Upgrade(economy.Boat).TickPeriodMs)
	assert.Equal(t, int64(3), st.Upgrade(economy.Nets).FishPerAction)
	assert.Equal(t, 1.0, st.Upgrade(economy.OceanSpirit).Multiplier)
	assert.Equal(t, int64(0), st.Inventory["corals"])
	assert.Nil(t, st.ActiveEvent)
	assert.Empty(t, st.Screen, "screen names are opaque and kept as stored")
}

func TestLoadRejectsBadTables(t *testing.T) {
	_, err := Load([]byte("zones: []"))
	assert.Error(t, err)

	_, err = Load([]byte(`
zones:
  - {id: z, items: [commonFish]}
upgrades:
  - {id: nets, growth: 1.5, effect: teleport}
`))
	assert.ErrorContains(t, err, "unknown effect")

	_, err = Load([]byte(`
zones:
  - {id: z, items: [kraken]}
`))
	assert.ErrorContains(t, err, "unknown item")

	_, err = Load([]byte("zones: [a, b"))
	assert.Error(t, err)

	_, err = Load([]byte(`
zones:
  - {id: z, items: [commonFish]}
items:
  - {id: commonFish, value: 1}
events:
  - id: doldrums
    durationMs: 1000
    chance: 1
    effect: {kind: multiplier, targets: [incomeRate, clickYield], value: 0}
`))
	assert.ErrorContains(t, err, "non-positive multiplier")
}

func TestDefaultAchievements(t *testing.T) {
	c := Default()
	require.Len(t, c.Achievements, 5)

	a, ok := c.Achievement("master-of-depths")
	require.True(t, ok)
	assert.Equal(t, GoalFishCaught, a.Goal)
	assert.Equal(t, int64(1000), a.Target)

	_, ok = c.Achievement("kraken-slayer")
	assert.False(t, ok)
}

func TestAchievementProgress(t *testing.T) {
	c := Default()
	st := c.DefaultState(time.Unix(0, 0))
	st.Stats.TotalResourceGained = 250
	st.Stats.PearlsFound = 1
	st.CurrentZoneIndex = 1
	st.Achievements = []string{"first-steps"}

	rows := c.Progress(st)
	require.Len(t, rows, len(c.Achievements))
	byID := make(map[string]AchievementProgress)
	for _, r := range rows {
		byID[r.ID] = r
	}

	assert.True(t, byID["first-steps"].Unlocked)
	assert.Equal(t, int64(1), byID["first-steps"].Current)
	assert.False(t, byID["ocean-treasure"].Unlocked, "reached but not yet granted")
	assert.Equal(t, int64(100), byID["hundred-fish"].Current, "capped at target")
	assert.Equal(t, int64(250), byID["master-of-depths"].Current)
	assert.Equal(t, int64(2), byID["abyss-conqueror"].Current)

	zone, _ := c.Achievement("abyss-conqueror")
	assert.False(t, zone.Reached(st))
	st.CurrentZoneIndex = 3
	assert.True(t, zone.Reached(st))
}

func TestNormalizeDropsUnknownAchievements(t *testing.T) {
	c := Default()
	st := c.DefaultState(time.Unix(0, 0))
	st.Achievements = []string{"first-steps", "kraken-slayer", "first-steps", "hundred-fish"}

	c.Normalize(&st)
	assert.Equal(t, []string{"first-steps", "hundred-fish"}, st.Achievements)
}

func TestLoadRejectsBadAchievements(t *testing.T) {
	_, err := Load([]byte(`
zones:
  - {id: z, items: [commonFish]}
items:
  - {id: commonFish, value: 1}
achievements:
  - {id: a, goal: fishCaught, target: 1}
  - {id: a, goal: fishCaught, target: 2}
`))
	assert.ErrorContains(t, err, "duplicate achievement")

	_, err = Load([]byte(`
zones:
  - {id: z, items: [commonFish]}
items:
  - {id: commonFish, value: 1}
achievements:
  - {id: a, goal: naps, target: 1}
`))
	assert.ErrorContains(t, err, "unknown goal")

	_, err = Load([]byte(`
zones:
  - {id: z, items: [commonFish]}
items:
  - {id: commonFish, value: 1}
achievements:
  - {id: a, goal: zoneReached, target: 0}
`))
	assert.ErrorContains(t, err, "non-positive target")
}
