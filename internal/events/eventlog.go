// Package events keeps the activity journal: a bounded, append-only record
// of the notable things that happened to the save (purchases, zone moves,
// sea events, offline catches, achievements, saves and resets).
package events

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MRamiBalles/QuietDepths/internal/clock"
)

// EntryType defines the category of a journal entry.
type EntryType string

const (
	EntryUpgradePurchased EntryType = "UPGRADE_PURCHASED"
	EntryZoneChanged      EntryType = "ZONE_CHANGED"
	EntryEventStarted     EntryType = "EVENT_STARTED"
	EntryEventEnded       EntryType = "EVENT_ENDED"
	EntryOfflineReward    EntryType = "OFFLINE_REWARD"
	EntryItemsSold        EntryType = "ITEMS_SOLD"
	EntryGameSaved        EntryType = "GAME_SAVED"
	EntryGameReset        EntryType = "GAME_RESET"
	EntryGameImported     EntryType = "GAME_IMPORTED"
	EntryAchievement      EntryType = "ACHIEVEMENT_UNLOCKED"
)

// Entry is an immutable record in the journal.
type Entry struct {
	ID        string         `json:"id" db:"id"`
	Seq       uint64         `json:"seq" db:"seq"`
	Timestamp time.Time      `json:"timestamp" db:"timestamp"`
	Type      EntryType      `json:"type" db:"entry_type"`
	Subject   string         `json:"subject" db:"subject"` // upgrade, zone, event or achievement id
	Payload   map[string]any `json:"payload,omitempty" db:"-"`
}

// Persister defines how an entry is durably stored.
type Persister interface {
	Append(entry Entry) error
}

// Purger is implemented by persisters that can drop their history.
type Purger interface {
	Purge(ctx context.Context) error
}

// Journal is the in-memory bounded log. Oldest entries fall off once
// capacity is reached; the persister, if any, keeps everything.
type Journal struct {
	mu        sync.RWMutex
	entries   []Entry
	capacity  int
	seq       uint64
	clock     clock.Clock
	persister Persister
	listeners []func(Entry)
}

// NewJournal creates a journal holding at most capacity entries in memory.
func NewJournal(capacity int, clk clock.Clock, persister Persister) *Journal {
	if capacity <= 0 {
		capacity = 1
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Journal{
		entries:   make([]Entry, 0, capacity),
		capacity:  capacity,
		clock:     clk,
		persister: persister,
	}
}

// Record stamps and appends a new entry.
func (j *Journal) Record(typ EntryType, subject string, payload map[string]any) (Entry, error) {
	return j.Append(Entry{Type: typ, Subject: subject, Payload: payload})
}

// Append assigns ID, sequence and timestamp (when missing) and stores the
// entry. The entry is kept in memory even if the persister fails.
func (j *Journal) Append(e Entry) (Entry, error) {
	j.mu.Lock()
	j.seq++
	e.Seq = j.seq
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = j.clock.Now()
	}
	if len(j.entries) == j.capacity {
		copy(j.entries, j.entries[1:])
		j.entries = j.entries[:len(j.entries)-1]
	}
	j.entries = append(j.entries, e)
	listeners := slices.Clone(j.listeners)
	j.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}

	if j.persister != nil {
		if err := j.persister.Append(e); err != nil {
			return e, err
		}
	}
	return e, nil
}

// Rehydrate loads previously persisted entries, oldest first, and continues
// numbering after the highest sequence seen. Listeners and the persister
// are not called.
func (j *Journal) Rehydrate(entries []Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, e := range entries {
		if e.Seq > j.seq {
			j.seq = e.Seq
		}
	}
	if len(entries) > j.capacity {
		entries = entries[len(entries)-j.capacity:]
	}
	j.entries = append(j.entries[:0], entries...)
}

// Clear drops every retained entry and purges the persister when it
// supports it. Sequence numbers keep increasing.
func (j *Journal) Clear(ctx context.Context) error {
	j.mu.Lock()
	j.entries = j.entries[:0]
	j.mu.Unlock()

	if p, ok := j.persister.(Purger); ok {
		if err := p.Purge(ctx); err != nil {
			return err
		}
	}
	return nil
}

// LastSeq reports the sequence number of the newest entry.
func (j *Journal) LastSeq() uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.seq
}

// Subscribe registers fn to be called after every append.
func (j *Journal) Subscribe(fn func(Entry)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.listeners = append(j.listeners, fn)
}

// Since returns retained entries with a sequence greater than seq.
func (j *Journal) Since(seq uint64) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var result []Entry
	for _, e := range j.entries {
		if e.Seq > seq {
			result = append(result, e)
		}
	}
	return result
}

// ByType returns retained entries of the given type.
func (j *Journal) ByType(typ EntryType) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var result []Entry
	for _, e := range j.entries {
		if e.Type == typ {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of every retained entry, oldest first.
func (j *Journal) Replay() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len reports the number of retained entries.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}
