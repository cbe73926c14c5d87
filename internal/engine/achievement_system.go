package engine

import (
	"github.com/MRamiBalles/QuietDepths/internal/domain/catalog"
	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
)

// AchievementSystem grants catalog milestones. Unlocks are permanent.
type AchievementSystem struct {
	catalog *catalog.Catalog
}

// NewAchievementSystem creates the achievement rules.
func NewAchievementSystem(cat *catalog.Catalog) *AchievementSystem {
	return &AchievementSystem{catalog: cat}
}

// Check returns st with every newly reached achievement unlocked, plus
// the definitions that were granted. st is returned as is when nothing
// new was reached.
func (as *AchievementSystem) Check(st economy.State) (economy.State, []catalog.AchievementDefinition) {
	var granted []catalog.AchievementDefinition
	for _, a := range as.catalog.Achievements {
		if !st.HasAchievement(a.ID) && a.Reached(st) {
			granted = append(granted, a)
		}
	}
	if len(granted) == 0 {
		return st, nil
	}

	next := st.Clone()
	for _, a := range granted {
		next.Achievements = append(next.Achievements, a.ID)
	}
	return next, granted
}
