// Package economy defines the mutable game state of a Quiet Depths session.
// This package is PURE and must NOT import engine or infrastructure packages.
package economy

import (
	"math"
	"time"
)

// Currency identifies a spendable balance.
type Currency string

const (
	Fish      Currency = "fish"
	Pearls    Currency = "pearls"
	Artifacts Currency = "artifacts"
	Energy    Currency = "energy" // 0-100
)

// MaxEnergy caps the Energy balance.
const MaxEnergy = 100

// Currencies lists every balance in display order.
var Currencies = []Currency{Fish, Pearls, Artifacts, Energy}

// UpgradeID identifies an upgrade track.
type UpgradeID string

const (
	Nets          UpgradeID = "nets"          // catch rate
	PearlOysters  UpgradeID = "pearlOysters"  // find chance
	DepthLanterns UpgradeID = "depthLanterns" // zone unlock
	Boat          UpgradeID = "boat"          // vessel: capacity + idle speed
	OceanSpirit   UpgradeID = "oceanSpirit"   // global multiplier
)

// ItemID identifies an inventory item.
type ItemID string

// Screen values understood by the presentation layer. The core stores
// whatever it is given.
const (
	ScreenGame      = "game"
	ScreenUpgrades  = "upgrades"
	ScreenInventory = "inventory"
	ScreenMenu      = "menu"
)

// UpgradeState is the level of one upgrade track plus the stats derived
// from it. Only the fields owned by the track's effect are meaningful.
type UpgradeState struct {
	Level             int     `json:"level" yaml:"level"`
	FishPerAction     int64   `json:"fishPerAction,omitempty" yaml:"fishPerAction,omitempty"`
	FindChancePercent int64   `json:"findChancePercent,omitempty" yaml:"findChancePercent,omitempty"`
	ZonesUnlocked     int     `json:"zonesUnlocked,omitempty" yaml:"zonesUnlocked,omitempty"`
	Capacity          int64   `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	TickPeriodMs      int64   `json:"tickPeriodMs,omitempty" yaml:"tickPeriodMs,omitempty"`
	Multiplier        float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// Stats are lifetime counters. Times are unix milliseconds.
type Stats struct {
	TotalResourceGained int64 `json:"totalResourceGained"`
	TotalActions        int64 `json:"totalActions"`
	PearlsFound         int64 `json:"pearlsFound"` // pearls from casts, spent or not
	SessionStartTime    int64 `json:"sessionStartTime"`
	LastObservedTime    int64 `json:"lastObservedTime"`
	LastOfflineDuration int64 `json:"lastOfflineDuration"`
}

// ActiveEvent is the single running timed modifier.
type ActiveEvent struct {
	EventID             string `json:"eventId"`
	RemainingDurationMs int64  `json:"remainingDurationMs"`
}

// Settings are player preferences. Opaque to the simulation.
type Settings struct {
	SoundEnabled bool   `json:"soundEnabled"`
	MusicEnabled bool   `json:"musicEnabled"`
	Language     string `json:"language"`
}

// State holds the whole game state of a session.
type State struct {
	Currencies       map[Currency]int64         `json:"currencies"`
	CurrentZoneIndex int                        `json:"currentZoneIndex"`
	Upgrades         map[UpgradeID]UpgradeState `json:"upgrades"`
	Inventory        map[ItemID]int64           `json:"inventory"`
	Stats            Stats                      `json:"stats"`
	ActiveEvent      *ActiveEvent               `json:"activeEvent"`
	Settings         Settings                   `json:"settings"`
	Screen           string                     `json:"screen"`
	Achievements     []string                   `json:"achievements"` // unlocked ids, in unlock order
}

// Clone returns a deep copy that shares no maps or pointers with s.
func (s State) Clone() State {
	out := s
	out.Currencies = make(map[Currency]int64, len(s.Currencies))
	for k, v := range s.Currencies {
		out.Currencies[k] = v
	}
	out.Upgrades = make(map[UpgradeID]UpgradeState, len(s.Upgrades))
	for k, v := range s.Upgrades {
		out.Upgrades[k] = v
	}
	out.Inventory = make(map[ItemID]int64, len(s.Inventory))
	for k, v := range s.Inventory {
		out.Inventory[k] = v
	}
	if s.ActiveEvent != nil {
		ev := *s.ActiveEvent
		out.ActiveEvent = &ev
	}
	if s.Achievements != nil {
		out.Achievements = append([]string{}, s.Achievements...)
	}
	return out
}

// HasAchievement reports whether id is unlocked.
func (s State) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// Balance returns the amount held of c.
func (s State) Balance(c Currency) int64 {
	return s.Currencies[c]
}

// Upgrade returns the state of an upgrade track.
func (s State) Upgrade(id UpgradeID) UpgradeState {
	return s.Upgrades[id]
}

// CanAfford reports whether every cost component is covered.
func (s State) CanAfford(cost map[Currency]int64) bool {
	for c, amount := range cost {
		if s.Currencies[c] < amount {
			return false
		}
	}
	return true
}

// WithCurrencyDelta returns a copy of s with delta applied to its balances.
// The change is rejected in full (ok=false) if any balance would go
// negative. Energy is capped at MaxEnergy.
func (s State) WithCurrencyDelta(delta map[Currency]int64) (next State, ok bool) {
	for c, d := range delta {
		if s.Currencies[c]+d < 0 {
			return s, false
		}
	}
	next = s.Clone()
	for c, d := range delta {
		v := next.Currencies[c] + d
		if c == Energy && v > MaxEnergy {
			v = MaxEnergy
		}
		next.Currencies[c] = v
	}
	return next, true
}

// WithInventoryDelta is WithCurrencyDelta for inventory counts.
func (s State) WithInventoryDelta(delta map[ItemID]int64) (next State, ok bool) {
	for id, d := range delta {
		if s.Inventory[id]+d < 0 {
			return s, false
		}
	}
	next = s.Clone()
	for id, d := range delta {
		next.Inventory[id] += d
	}
	return next, true
}

// ZonesUnlocked is the number of selectable zones.
func (s State) ZonesUnlocked() int {
	if n := s.Upgrades[DepthLanterns].ZonesUnlocked; n > 0 {
		return n
	}
	return 1
}

// GlobalMultiplier is the ocean spirit multiplier applied to all income.
func (s State) GlobalMultiplier() float64 {
	if m := s.Upgrades[OceanSpirit].Multiplier; m > 0 {
		return m
	}
	return 1
}

// FishPerAction is the base click yield.
func (s State) FishPerAction() int64 {
	return s.Upgrades[Nets].FishPerAction
}

// FindChancePercent is the base chance in [0,100) of finding a pearl per click.
func (s State) FindChancePercent() int64 {
	return s.Upgrades[PearlOysters].FindChancePercent
}

// IdleBase is the per-tick idle income before multipliers.
func (s State) IdleBase() int64 {
	return int64(math.Floor(float64(s.Upgrades[Boat].Level)*0.5 + 1))
}

// TickPeriod is the idle-income period.
func (s State) TickPeriod() time.Duration {
	ms := s.Upgrades[Boat].TickPeriodMs
	if ms <= 0 {
		ms = 5000
	}
	return time.Duration(ms) * time.Millisecond
}
