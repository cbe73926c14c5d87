// Package catalog holds the static, read-only tables of Quiet Depths:
// zones, upgrades, timed events and inventory items.
// Tables are loaded once at startup and shared by reference.
package catalog

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
)

//go:embed catalog.yaml
var defaultTables []byte

// Zone is a fishing ground.
type Zone struct {
	ID            string           `yaml:"id" json:"id"`
	Name          string           `yaml:"name" json:"name"`
	Color         string           `yaml:"color" json:"color"`
	RequiredLevel int              `yaml:"requiredLevel" json:"required_level"`
	Items         []economy.ItemID `yaml:"items" json:"items"` // obtainable item (or currency) ids
	Description   string           `yaml:"description" json:"description"`
}

// UpgradeDefinition describes one upgrade track.
type UpgradeDefinition struct {
	ID          economy.UpgradeID          `yaml:"id" json:"id"`
	Name        string                     `yaml:"name" json:"name"`
	Description string                     `yaml:"description" json:"description"`
	BaseCost    map[economy.Currency]int64 `yaml:"baseCost" json:"base_cost"`
	Growth      float64                    `yaml:"growth" json:"growth"`
	Effect      EffectKind                 `yaml:"effect" json:"effect"`
	Initial     economy.UpgradeState       `yaml:"initial" json:"initial"`
}

// EffectType is the behavior of a timed event.
type EffectType string

const (
	Multiplier  EffectType = "multiplier"  // scales yield
	Suppressor  EffectType = "suppressor"  // forces yield to zero
	BonusChance EffectType = "bonusChance" // adds to find chance (percentage points)
)

// Target names what an event effect acts on.
type Target string

const (
	IncomeRate Target = "incomeRate"
	ClickYield Target = "clickYield"
	FindChance Target = "findChance"
)

// Effect is the modifier carried by an event.
type Effect struct {
	Kind    EffectType `yaml:"kind" json:"kind"`
	Targets []Target   `yaml:"targets" json:"targets"`
	Value   float64    `yaml:"value" json:"value"`
}

// Affects reports whether the effect applies to t.
func (e Effect) Affects(t Target) bool {
	for _, target := range e.Targets {
		if target == t {
			return true
		}
	}
	return false
}

// EventDefinition describes a random timed event.
type EventDefinition struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	DurationMs  int64   `yaml:"durationMs" json:"duration_ms"`
	Chance      float64 `yaml:"chance" json:"chance"` // per check, once the outer gate passes
	Effect      Effect  `yaml:"effect" json:"effect"`
}

// Rarity tiers of inventory items.
type Rarity string

const (
	Common    Rarity = "common"
	Rare      Rarity = "rare"
	Legendary Rarity = "legendary"
)

// ItemDefinition describes an inventory item.
type ItemDefinition struct {
	ID     economy.ItemID `yaml:"id" json:"id"`
	Name   string         `yaml:"name" json:"name"`
	Rarity Rarity         `yaml:"rarity" json:"rarity"`
	Value  int64          `yaml:"value" json:"value"` // fish per unit when sold
}

// GoalKind is the lifetime figure an achievement measures.
type GoalKind string

const (
	GoalFishCaught  GoalKind = "fishCaught"  // stats.totalResourceGained
	GoalPearlsFound GoalKind = "pearlsFound" // stats.pearlsFound
	GoalZoneReached GoalKind = "zoneReached" // 1-based number of the current zone
)

// AchievementDefinition is a milestone unlocked once its goal is met.
type AchievementDefinition struct {
	ID     string   `yaml:"id" json:"id"`
	Name   string   `yaml:"name" json:"name"`
	Haiku  string   `yaml:"haiku" json:"haiku"`
	Goal   GoalKind `yaml:"goal" json:"goal"`
	Target int64    `yaml:"target" json:"target"`
}

// Catalog is the full set of static tables.
type Catalog struct {
	Zones        []Zone                  `yaml:"zones" json:"zones"`
	Upgrades     []UpgradeDefinition     `yaml:"upgrades" json:"upgrades"`
	Events       []EventDefinition       `yaml:"events" json:"events"`
	Items        []ItemDefinition        `yaml:"items" json:"items"`
	Achievements []AchievementDefinition `yaml:"achievements" json:"achievements"`

	upgrades     map[economy.UpgradeID]int
	events       map[string]int
	items        map[economy.ItemID]int
	achievements map[string]int
}

// Default returns the tables embedded in the binary.
// It panics if they are invalid, which is a build defect.
func Default() *Catalog {
	c, err := Load(defaultTables)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded tables: %v", err))
	}
	return c
}

// LoadFile reads tables from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Load(data)
}

// Load parses and validates YAML tables.
func Load(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	if len(c.Zones) == 0 {
		return fmt.Errorf("catalog has no zones")
	}

	c.upgrades = make(map[economy.UpgradeID]int, len(c.Upgrades))
	for i, u := range c.Upgrades {
		if _, dup := c.upgrades[u.ID]; dup {
			return fmt.Errorf("duplicate upgrade %q", u.ID)
		}
		if _, ok := effects[u.Effect]; !ok {
			return fmt.Errorf("upgrade %q has unknown effect %q", u.ID, u.Effect)
		}
		if u.Growth <= 0 {
			return fmt.Errorf("upgrade %q has non-positive growth", u.ID)
		}
		for cur, amount := range u.BaseCost {
			if amount < 0 {
				return fmt.Errorf("upgrade %q has negative %s cost", u.ID, cur)
			}
		}
		c.upgrades[u.ID] = i
	}

	c.events = make(map[string]int, len(c.Events))
	for i, e := range c.Events {
		if _, dup := c.events[e.ID]; dup {
			return fmt.Errorf("duplicate event %q", e.ID)
		}
		switch e.Effect.Kind {
		case Multiplier, Suppressor, BonusChance:
		default:
			return fmt.Errorf("event %q has unknown effect kind %q", e.ID, e.Effect.Kind)
		}
		if e.Effect.Kind == Multiplier && e.Effect.Value <= 0 {
			return fmt.Errorf("event %q has non-positive multiplier, use a suppressor", e.ID)
		}
		if e.DurationMs <= 0 {
			return fmt.Errorf("event %q has non-positive duration", e.ID)
		}
		c.events[e.ID] = i
	}

	c.items = make(map[economy.ItemID]int, len(c.Items))
	for i, it := range c.Items {
		c.items[it.ID] = i
	}
	for _, z := range c.Zones {
		for _, id := range z.Items {
			if _, ok := c.items[id]; !ok && !isCurrency(id) {
				return fmt.Errorf("zone %q lists unknown item %q", z.ID, id)
			}
		}
	}

	c.achievements = make(map[string]int, len(c.Achievements))
	for i, a := range c.Achievements {
		if _, dup := c.achievements[a.ID]; dup {
			return fmt.Errorf("duplicate achievement %q", a.ID)
		}
		switch a.Goal {
		case GoalFishCaught, GoalPearlsFound, GoalZoneReached:
		default:
			return fmt.Errorf("achievement %q has unknown goal %q", a.ID, a.Goal)
		}
		if a.Target <= 0 {
			return fmt.Errorf("achievement %q has non-positive target", a.ID)
		}
		c.achievements[a.ID] = i
	}
	return nil
}

func isCurrency(id economy.ItemID) bool {
	for _, c := range economy.Currencies {
		if string(c) == string(id) {
			return true
		}
	}
	return false
}

// AsCurrency reports whether an obtainable id names a currency.
func AsCurrency(id economy.ItemID) (economy.Currency, bool) {
	if isCurrency(id) {
		return economy.Currency(id), true
	}
	return "", false
}

// Upgrade looks up an upgrade definition.
func (c *Catalog) Upgrade(id economy.UpgradeID) (UpgradeDefinition, bool) {
	i, ok := c.upgrades[id]
	if !ok {
		return UpgradeDefinition{}, false
	}
	return c.Upgrades[i], true
}

// Event looks up an event definition.
func (c *Catalog) Event(id string) (EventDefinition, bool) {
	i, ok := c.events[id]
	if !ok {
		return EventDefinition{}, false
	}
	return c.Events[i], true
}

// Item looks up an item definition.
func (c *Catalog) Item(id economy.ItemID) (ItemDefinition, bool) {
	i, ok := c.items[id]
	if !ok {
		return ItemDefinition{}, false
	}
	return c.Items[i], true
}

// Zone returns the zone at index i.
func (c *Catalog) Zone(i int) (Zone, bool) {
	if i < 0 || i >= len(c.Zones) {
		return Zone{}, false
	}
	return c.Zones[i], true
}

// UpgradeCost is floor(base * growth^level) per currency. Zero components
// are omitted.
func (c *Catalog) UpgradeCost(id economy.UpgradeID, level int) map[economy.Currency]int64 {
	def, ok := c.Upgrade(id)
	if !ok {
		return nil
	}
	factor := math.Pow(def.Growth, float64(level))
	cost := make(map[economy.Currency]int64, len(def.BaseCost))
	for cur, base := range def.BaseCost {
		if amount := int64(math.Floor(float64(base) * factor)); amount > 0 {
			cost[cur] = amount
		}
	}
	return cost
}
