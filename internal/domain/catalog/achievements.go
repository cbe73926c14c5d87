package catalog

import "github.com/MRamiBalles/QuietDepths/internal/domain/economy"

// Achievement looks up an achievement definition.
func (c *Catalog) Achievement(id string) (AchievementDefinition, bool) {
	i, ok := c.achievements[id]
	if !ok {
		return AchievementDefinition{}, false
	}
	return c.Achievements[i], true
}

// Measure returns the current value of the figure goal tracks.
func Measure(goal GoalKind, st economy.State) int64 {
	switch goal {
	case GoalFishCaught:
		return st.Stats.TotalResourceGained
	case GoalPearlsFound:
		return st.Stats.PearlsFound
	case GoalZoneReached:
		return int64(st.CurrentZoneIndex + 1)
	}
	return 0
}

// Reached reports whether st meets the goal of a.
func (a AchievementDefinition) Reached(st economy.State) bool {
	return Measure(a.Goal, st) >= a.Target
}

// AchievementProgress is one row of the achievements tab.
type AchievementProgress struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Haiku    string `json:"haiku"`
	Current  int64  `json:"current"` // capped at Target
	Target   int64  `json:"target"`
	Unlocked bool   `json:"unlocked"`
}

// Progress lists every achievement in catalog order with how far st is
// towards it.
func (c *Catalog) Progress(st economy.State) []AchievementProgress {
	out := make([]AchievementProgress, 0, len(c.Achievements))
	for _, a := range c.Achievements {
		unlocked := st.HasAchievement(a.ID)
		current := min(Measure(a.Goal, st), a.Target)
		if unlocked {
			current = a.Target
		}
		out = append(out, AchievementProgress{
			ID:       a.ID,
			Name:     a.Name,
			Haiku:    a.Haiku,
			Current:  current,
			Target:   a.Target,
			Unlocked: unlocked,
		})
	}
	return out
}

// normalizeAchievements drops unknown and repeated ids, keeping order.
func (c *Catalog) normalizeAchievements(st *economy.State) {
	if st.Achievements == nil {
		return
	}
	seen := make(map[string]bool, len(st.Achievements))
	kept := st.Achievements[:0]
	for _, id := range st.Achievements {
		if _, ok := c.achievements[id]; !ok || seen[id] {
			continue
		}
		seen[id] = true
		kept = append(kept, id)
	}
	st.Achievements = kept
}
