package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/QuietDepths/internal/clock"
	"github.com/MRamiBalles/QuietDepths/internal/config"
	"github.com/MRamiBalles/QuietDepths/internal/domain/catalog"
	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
	"github.com/MRamiBalles/QuietDepths/internal/events"
	"github.com/MRamiBalles/QuietDepths/internal/infra/storage"
	"github.com/MRamiBalles/QuietDepths/internal/platform/logger"
	"github.com/MRamiBalles/QuietDepths/internal/platform/metrics"
)

// Engine is the single coordinator of a Quiet Depths session.
type Engine struct {
	mu    sync.Mutex
	state economy.State

	saveMu    sync.Mutex
	lastSaved []byte

	catalog *catalog.Catalog
	repo    storage.SaveRepository
	clock   clock.Clock
	cfg     config.Config
	logger  *logger.Logger
	journal *events.Journal
	metrics *metrics.Collector
	ticker  *Ticker

	// Sub-systems
	upgradeSystem     *UpgradeSystem
	eventSystem       *EventSystem
	incomeSystem      *IncomeSystem
	achievementSystem *AchievementSystem
	reconstructor     *Reconstructor
}

// New wires the engine. The live state is the default state until Restore
// is called. A nil journal gets an in-memory one; a nil rnd a seeded one.
func New(cat *catalog.Catalog, repo storage.SaveRepository, clk clock.Clock, rnd RandomSource,
	cfg config.Config, log *logger.Logger, journal *events.Journal) *Engine {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if rnd == nil {
		rnd = NewRandom()
	}
	if log == nil {
		log = logger.NewNop()
	}
	if journal == nil {
		journal = events.NewJournal(cfg.JournalCapacity, clk, nil)
	}

	e := &Engine{
		catalog: cat,
		repo:    repo,
		clock:   clk,
		cfg:     cfg,
		logger:  log,
		journal: journal,
		metrics: metrics.Get(),

		upgradeSystem:     NewUpgradeSystem(cat),
		eventSystem:       NewEventSystem(cat, rnd, cfg.EventGateChance),
		incomeSystem:      NewIncomeSystem(cat, rnd),
		achievementSystem: NewAchievementSystem(cat),
		reconstructor:     NewReconstructor(cfg),
	}
	e.state = cat.DefaultState(clk.Now())
	e.ticker = NewTicker(log, e.state.TickPeriod(), cfg.EventCheckInterval, cfg.SaveInterval,
		e.IdleTick, e.EventCheck, e.persistTick)
	return e
}

// SetMetrics replaces the collector (tests use a private one).
func (e *Engine) SetMetrics(c *metrics.Collector) {
	e.metrics = c
}

// Start spawns the three schedules.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("Starting Quiet Depths engine...")
	e.ticker.Reschedule(e.GetState().TickPeriod())
	e.ticker.Start(ctx)
}

// Stop tears the schedules down together and writes a final snapshot.
func (e *Engine) Stop(ctx context.Context) error {
	e.ticker.Stop()
	if err := e.Save(ctx); err != nil {
		return err
	}
	e.record(events.EntryGameSaved, "", map[string]any{"final": true})
	e.logger.Info("Engine stopped. Final snapshot written.")
	return nil
}

// Catalog exposes the static tables for display.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Journal exposes the activity journal.
func (e *Engine) Journal() *events.Journal {
	return e.journal
}

// GetState returns a deep copy of the live state.
func (e *Engine) GetState() economy.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// mutate replaces the live state with fn's result when fn reports a change.
func (e *Engine) mutate(fn func(economy.State) (economy.State, bool)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, changed := fn(e.state)
	if changed {
		e.state = next
	}
	return changed
}

// Click applies one player cast.
func (e *Engine) Click() {
	var (
		res      ClickResult
		unlocked []catalog.AchievementDefinition
	)
	e.mutate(func(st economy.State) (economy.State, bool) {
		var next economy.State
		next, res = e.incomeSystem.Click(st)
		if res.Suppressed {
			return st, false
		}
		next, unlocked = e.achievementSystem.Check(next)
		return next, true
	})
	e.metrics.RecordClick(res.Yield)
	e.announce(unlocked)
}

// PurchaseUpgrade buys the next level of id if affordable. Declines are
// silent.
func (e *Engine) PurchaseUpgrade(id economy.UpgradeID) {
	var (
		cost          map[economy.Currency]int64
		before, after economy.UpgradeState
		period        time.Duration
		periodChange  bool
	)
	accepted := e.mutate(func(st economy.State) (economy.State, bool) {
		cost = e.upgradeSystem.Cost(st, id)
		before = st.Upgrade(id)
		next, ok := e.upgradeSystem.Purchase(st, id)
		if !ok {
			return st, false
		}
		after = next.Upgrade(id)
		period = next.TickPeriod()
		periodChange = period != st.TickPeriod()
		return next, true
	})
	e.metrics.RecordPurchase(accepted)
	if !accepted {
		return
	}

	if periodChange {
		e.ticker.Reschedule(period)
	}
	e.logger.Info(fmt.Sprintf("[UPGRADE] %s %d -> %d (paid %s)", id, before.Level, after.Level, formatCost(cost)))
	e.record(events.EntryUpgradePurchased, string(id), map[string]any{
		"level": after.Level,
		"cost":  cost,
	})
}

// UpgradeCost is the price of the next level of id. No side effects.
func (e *Engine) UpgradeCost(id economy.UpgradeID) map[economy.Currency]int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.upgradeSystem.Cost(e.state, id)
}

// SetZone moves to an unlocked zone. Out-of-range indices are ignored.
func (e *Engine) SetZone(index int) {
	var unlocked []catalog.AchievementDefinition
	changed := e.mutate(func(st economy.State) (economy.State, bool) {
		if index < 0 || index >= st.ZonesUnlocked() || index == st.CurrentZoneIndex {
			return st, false
		}
		next := st.Clone()
		next.CurrentZoneIndex = index
		next, unlocked = e.achievementSystem.Check(next)
		return next, true
	})
	if !changed {
		return
	}
	subject := fmt.Sprint(index)
	if z, ok := e.catalog.Zone(index); ok {
		subject = z.ID
	}
	e.record(events.EntryZoneChanged, subject, map[string]any{"index": index})
	e.announce(unlocked)
}

// SetScreen stores the presentation screen name.
func (e *Engine) SetScreen(name string) {
	e.mutate(func(st economy.State) (economy.State, bool) {
		next := st.Clone()
		next.Screen = name
		return next, true
	})
}

// UpdateSettings replaces the player preferences.
func (e *Engine) UpdateSettings(s economy.Settings) {
	e.mutate(func(st economy.State) (economy.State, bool) {
		next := st.Clone()
		next.Settings = s
		return next, true
	})
}

// AcknowledgeOffline clears the offline duration shown to the player.
func (e *Engine) AcknowledgeOffline() {
	e.mutate(func(st economy.State) (economy.State, bool) {
		if st.Stats.LastOfflineDuration == 0 {
			return st, false
		}
		next := st.Clone()
		next.Stats.LastOfflineDuration = 0
		return next, true
	})
}

// SellInventory converts the hold into fish.
func (e *Engine) SellInventory() {
	var res SaleResult
	sold := e.mutate(func(st economy.State) (economy.State, bool) {
		var next economy.State
		next, res = e.incomeSystem.Sell(st)
		return next, res.Units > 0
	})
	if !sold {
		return
	}
	e.logger.Info(fmt.Sprintf("[INVENTORY] Sold %s items for %s fish", humanize.Comma(res.Units), humanize.Comma(res.Proceeds)))
	e.record(events.EntryItemsSold, "", map[string]any{"units": res.Units, "proceeds": res.Proceeds})
}

// IdleTick applies one idle-income cycle.
func (e *Engine) IdleTick() {
	var (
		gain     int64
		unlocked []catalog.AchievementDefinition
	)
	e.mutate(func(st economy.State) (economy.State, bool) {
		var next economy.State
		next, gain = e.incomeSystem.IdleTick(st)
		if gain <= 0 {
			return st, false
		}
		next, unlocked = e.achievementSystem.Check(next)
		return next, true
	})
	e.metrics.RecordIdleTick(gain)
	e.announce(unlocked)
}

// EventCheck advances the event machine by one step.
func (e *Engine) EventCheck() {
	var tr EventTransition
	e.mutate(func(st economy.State) (economy.State, bool) {
		var next economy.State
		next, tr = e.eventSystem.Check(st)
		return next, true
	})
	e.metrics.RecordEventCheck(tr.Started != "")

	switch {
	case tr.Started != "":
		name := tr.Started
		if def, ok := e.catalog.Event(tr.Started); ok {
			name = def.Name
		}
		e.logger.Event("EVENT_STARTED", "SEA", name)
		e.record(events.EntryEventStarted, tr.Started, nil)
	case tr.Ended != "":
		e.logger.Event("EVENT_ENDED", "SEA", tr.Ended)
		e.record(events.EntryEventEnded, tr.Ended, nil)
	}
}

func (e *Engine) persistTick() {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.SaveInterval)
	defer cancel()
	_ = e.Save(ctx) // logged and counted inside
}

// announce logs and journals freshly unlocked achievements.
func (e *Engine) announce(unlocked []catalog.AchievementDefinition) {
	for _, a := range unlocked {
		e.logger.Info(fmt.Sprintf("[ACHIEVEMENT] %s (%s)", a.Name, a.ID))
		e.record(events.EntryAchievement, a.ID, map[string]any{"name": a.Name})
	}
}

func (e *Engine) record(typ events.EntryType, subject string, payload map[string]any) {
	if _, err := e.journal.Record(typ, subject, payload); err != nil {
		e.logger.Warn(fmt.Sprintf("[JOURNAL] failed to persist %s: %v", typ, err))
	}
}

func formatCost(cost map[economy.Currency]int64) string {
	out := ""
	for _, cur := range economy.Currencies {
		amount, ok := cost[cur]
		if !ok {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += humanize.Comma(amount) + " " + string(cur)
	}
	return out
}

// formatOffline renders a duration as "1h 5m" or "45s".
func formatOffline(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
