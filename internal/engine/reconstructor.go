package engine

import (
	"math"
	"time"

	"github.com/MRamiBalles/QuietDepths/internal/config"
	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
)

// OfflineReport summarizes what happened while the session was closed.
type OfflineReport struct {
	Fresh    bool          `json:"fresh"`    // no prior save was found
	Elapsed  time.Duration `json:"elapsed"`  // clamped to the catch-up cap
	Rewarded bool          `json:"rewarded"` // elapsed passed the minimum
	Fish     int64         `json:"fish"`
	Pearls   int64         `json:"pearls"`
}

// Reconstructor rebuilds a live session from a stored snapshot by
// crediting the idle income missed while offline, at reduced efficiency.
type Reconstructor struct {
	cap        time.Duration
	minimum    time.Duration
	efficiency float64
}

// NewReconstructor reads the catch-up limits from cfg.
func NewReconstructor(cfg config.Config) *Reconstructor {
	return &Reconstructor{
		cap:        cfg.OfflineCap,
		minimum:    cfg.OfflineMinimum,
		efficiency: cfg.OfflineEfficiency,
	}
}

// Reconcile credits the offline reward for the time between the snapshot's
// last observation and now. The reward is granted once; lastOfflineDuration
// is left set for the player to acknowledge.
func (r *Reconstructor) Reconcile(st economy.State, now time.Time) (economy.State, OfflineReport) {
	nowMs := now.UnixMilli()
	elapsedMs := nowMs - st.Stats.LastObservedTime
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	if capMs := r.cap.Milliseconds(); elapsedMs > capMs {
		elapsedMs = capMs
	}

	next := st.Clone()
	next.Stats.LastObservedTime = max(st.Stats.LastObservedTime, nowMs)
	report := OfflineReport{Elapsed: time.Duration(elapsedMs) * time.Millisecond}

	if elapsedMs <= r.minimum.Milliseconds() {
		return next, report
	}

	periodMs := st.TickPeriod().Milliseconds()
	cycles := elapsedMs / periodMs
	hours := float64(elapsedMs) / float64(time.Hour.Milliseconds())

	report.Rewarded = true
	report.Fish = int64(math.Floor(float64(cycles) * float64(st.IdleBase()) * st.GlobalMultiplier() * r.efficiency))
	report.Pearls = int64(math.Floor(hours * float64(st.FindChancePercent()) * 0.01))

	next.Currencies[economy.Fish] += report.Fish
	next.Currencies[economy.Pearls] += report.Pearls
	next.Stats.LastOfflineDuration = elapsedMs
	return next, report
}
