package engine

import (
	"github.com/MRamiBalles/QuietDepths/internal/domain/catalog"
	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
)

// countdownStepMs is subtracted from the active event on every check.
const countdownStepMs = 1000

// EventTransition reports what a check changed. At most one field is set.
type EventTransition struct {
	Started string
	Ended   string
}

// EventSystem runs the Idle -> Active -> Idle machine of timed sea events.
type EventSystem struct {
	catalog    *catalog.Catalog
	rnd        RandomSource
	gateChance float64
}

// NewEventSystem creates the event machine. gateChance is the outer roll
// that must pass before any definition is evaluated.
func NewEventSystem(cat *catalog.Catalog, rnd RandomSource, gateChance float64) *EventSystem {
	return &EventSystem{catalog: cat, rnd: rnd, gateChance: gateChance}
}

// Check advances the machine by one step.
func (es *EventSystem) Check(st economy.State) (economy.State, EventTransition) {
	if st.ActiveEvent != nil {
		next := st.Clone()
		next.ActiveEvent.RemainingDurationMs -= countdownStepMs
		if next.ActiveEvent.RemainingDurationMs <= 0 {
			ended := next.ActiveEvent.EventID
			next.ActiveEvent = nil
			return next, EventTransition{Ended: ended}
		}
		return next, EventTransition{}
	}

	if es.rnd.Float64() >= es.gateChance {
		return st, EventTransition{}
	}

	// every definition rolls independently, then one survivor is picked
	var fired []catalog.EventDefinition
	for _, def := range es.catalog.Events {
		if es.rnd.Float64() < def.Chance {
			fired = append(fired, def)
		}
	}
	if len(fired) == 0 {
		return st, EventTransition{}
	}

	pick := fired[es.rnd.IntN(len(fired))]
	next := st.Clone()
	next.ActiveEvent = &economy.ActiveEvent{
		EventID:             pick.ID,
		RemainingDurationMs: pick.DurationMs,
	}
	return next, EventTransition{Started: pick.ID}
}

// Modifiers is the income-relevant view of the active event, read at the
// moment of each income computation.
type Modifiers struct {
	Suppressed  bool
	ClickMult   float64 // 1 when no multiplier event targets clicks
	IdleBoosted bool    // a multiplier event targets idle income
	IdleMult    float64
	BonusChance float64 // percentage points added to the find chance
}

// Modifiers reads the effect of the active event on income.
func (es *EventSystem) Modifiers(st economy.State) Modifiers {
	return activeModifiers(es.catalog, st)
}

func activeModifiers(cat *catalog.Catalog, st economy.State) Modifiers {
	mods := Modifiers{ClickMult: 1}
	effect, ok := cat.ActiveEffect(st)
	if !ok {
		return mods
	}
	switch effect.Kind {
	case catalog.Suppressor:
		mods.Suppressed = true
	case catalog.Multiplier:
		if effect.Affects(catalog.ClickYield) {
			mods.ClickMult = effect.Value
		}
		if effect.Affects(catalog.IncomeRate) {
			mods.IdleBoosted = true
			mods.IdleMult = effect.Value
		}
	case catalog.BonusChance:
		if effect.Affects(catalog.FindChance) {
			mods.BonusChance = effect.Value
		}
	}
	return mods
}
