package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/QuietDepths/internal/clock"
	"github.com/MRamiBalles/QuietDepths/internal/events"
)

func openTestDB(t *testing.T) *SQLiteSaveRepository {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "nested", "depths.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteSaveRepository(db)
}

func exerciseRepository(t *testing.T, repo SaveRepository) {
	ctx := context.Background()

	_, err := repo.Load(ctx, "slot")
	assert.ErrorIs(t, err, ErrSlotNotFound)

	require.NoError(t, repo.Save(ctx, "slot", []byte(`{"a":1}`)))
	data, err := repo.Load(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	require.NoError(t, repo.Save(ctx, "slot", []byte(`{"a":2}`)))
	data, err = repo.Load(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	require.NoError(t, repo.Delete(ctx, "slot"))
	require.NoError(t, repo.Delete(ctx, "slot"))
	_, err = repo.Load(ctx, "slot")
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	exerciseRepository(t, repo)
	assert.Equal(t, 2, repo.Saves())
}

func TestSQLiteSaveRepository(t *testing.T) {
	exerciseRepository(t, openTestDB(t))
}

func TestSQLiteJournalRepository(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLiteJournalRepository(db)
	base := time.UnixMilli(1_700_000_000_000)
	for i, typ := range []events.EntryType{events.EntryEventStarted, events.EntryEventEnded, events.EntryGameSaved} {
		require.NoError(t, repo.Append(events.Entry{
			ID:        string(typ),
			Seq:       uint64(i + 1),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Type:      typ,
			Subject:   "storm",
			Payload:   map[string]any{"n": float64(i)},
		}))
	}

	recent, err := repo.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, events.EntryEventEnded, recent[0].Type)
	assert.Equal(t, events.EntryGameSaved, recent[1].Type)
	assert.Equal(t, float64(2), recent[1].Payload["n"])

	require.NoError(t, repo.Purge(context.Background()))
	recent, err = repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestJournalSurvivesRestart(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLiteJournalRepository(db)
	clk := clock.NewFakeClock(time.UnixMilli(1_700_000_000_000))
	ctx := context.Background()

	first := events.NewJournal(8, clk, repo)
	for _, subject := range []string{"nets", "boat", "nets"} {
		_, err := first.Record(events.EntryUpgradePurchased, subject, map[string]any{"level": 1})
		require.NoError(t, err)
	}

	recent, err := repo.Recent(ctx, 8)
	require.NoError(t, err)
	second := events.NewJournal(8, clk, repo)
	second.Rehydrate(recent)

	assert.Equal(t, first.Replay()[2].ID, second.Replay()[2].ID)
	e, err := second.Record(events.EntryGameSaved, "", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), e.Seq)

	require.NoError(t, second.Clear(ctx))
	recent, err = repo.Recent(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, recent, "reset purges the durable journal")
}
