package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
	"github.com/MRamiBalles/QuietDepths/internal/events"
	"github.com/MRamiBalles/QuietDepths/internal/infra/storage"
)

// Save stamps the observation time and writes the snapshot to the slot.
// An unchanged snapshot is not rewritten. Failures leave the in-memory
// state authoritative.
func (e *Engine) Save(ctx context.Context) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	now := e.clock.Now().UnixMilli()
	if now > e.state.Stats.LastObservedTime {
		e.state.Stats.LastObservedTime = now
	}
	data, err := Encode(e.state)
	e.mu.Unlock()
	if err != nil {
		e.metrics.RecordSave(0, err)
		e.logger.Error("[SAVE] " + err.Error())
		return err
	}

	if bytes.Equal(data, e.lastSaved) {
		e.metrics.RecordSaveSkipped()
		return nil
	}

	start := time.Now()
	err = e.repo.Save(ctx, e.cfg.SaveSlot, data)
	e.metrics.RecordSave(time.Since(start), err)
	if err != nil {
		e.logger.Error("[SAVE] " + err.Error())
		return err
	}
	e.lastSaved = data
	return nil
}

// Restore loads the slot and makes it live. A missing slot starts a fresh
// session; an unreadable or corrupt one falls back to the default state.
// Otherwise the offline reward is credited before the state goes live.
func (e *Engine) Restore(ctx context.Context) OfflineReport {
	now := e.clock.Now()
	st, report := e.load(ctx, now)

	e.saveMu.Lock()
	e.mu.Lock()
	e.state = st
	e.lastSaved = nil
	e.mu.Unlock()
	e.saveMu.Unlock()

	e.ticker.Reschedule(st.TickPeriod())

	if report.Rewarded {
		e.logger.Info(fmt.Sprintf("[OFFLINE] Away %s: +%s fish, +%s pearls",
			formatOffline(report.Elapsed), humanize.Comma(report.Fish), humanize.Comma(report.Pearls)))
		e.record(events.EntryOfflineReward, "", map[string]any{
			"elapsedMs": report.Elapsed.Milliseconds(),
			"fish":      report.Fish,
			"pearls":    report.Pearls,
		})
	}
	return report
}

func (e *Engine) load(ctx context.Context, now time.Time) (economy.State, OfflineReport) {
	fresh := func() (economy.State, OfflineReport) {
		return e.catalog.DefaultState(now), OfflineReport{Fresh: true}
	}

	blob, err := e.repo.Load(ctx, e.cfg.SaveSlot)
	if errors.Is(err, storage.ErrSlotNotFound) {
		e.logger.Info("[RESTORE] No save found. Starting a new voyage.")
		return fresh()
	}
	if err != nil {
		e.logger.Warn("[RESTORE] Save unreadable, starting fresh: " + err.Error())
		return fresh()
	}

	st, err := Decode(blob, e.catalog, now)
	if err != nil {
		e.logger.Warn("[RESTORE] Save corrupt, starting fresh: " + err.Error())
		return fresh()
	}
	return e.reconstructor.Reconcile(st, now)
}

// Export returns the encoded live state.
func (e *Engine) Export() ([]byte, error) {
	return Encode(e.GetState())
}

// Import validates blob, stores it in the slot and restores from it, so
// offline reconciliation applies to the imported state too. An invalid
// blob returns ErrInvalidSave and changes nothing.
func (e *Engine) Import(ctx context.Context, blob []byte) (OfflineReport, error) {
	if _, err := Decode(blob, e.catalog, e.clock.Now()); err != nil {
		return OfflineReport{}, err
	}
	if err := e.repo.Save(ctx, e.cfg.SaveSlot, bytes.TrimSpace(blob)); err != nil {
		return OfflineReport{}, fmt.Errorf("failed to store imported save: %w", err)
	}

	report := e.Restore(ctx)
	e.record(events.EntryGameImported, "", map[string]any{"bytes": len(blob)})
	return report, nil
}

// Reset deletes the slot, clears the journal and replaces the live state
// with a new session.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.repo.Delete(ctx, e.cfg.SaveSlot); err != nil {
		return fmt.Errorf("failed to reset save: %w", err)
	}

	st := e.catalog.DefaultState(e.clock.Now())
	e.saveMu.Lock()
	e.mu.Lock()
	e.state = st
	e.lastSaved = nil
	e.mu.Unlock()
	e.saveMu.Unlock()

	e.ticker.Reschedule(st.TickPeriod())
	if err := e.journal.Clear(ctx); err != nil {
		e.logger.Warn("[RESET] Journal not purged: " + err.Error())
	}
	e.logger.Warn("[RESET] Progress wiped. A new voyage begins.")
	e.record(events.EntryGameReset, "", nil)
	return nil
}
