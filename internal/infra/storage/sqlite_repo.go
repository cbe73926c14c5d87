package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/MRamiBalles/QuietDepths/internal/events"
)

// SQLiteSaveRepository implements SaveRepository for SQLite.
type SQLiteSaveRepository struct {
	db *sqlx.DB
}

// NewSQLiteSaveRepository wraps an initialized database.
func NewSQLiteSaveRepository(db *sqlx.DB) *SQLiteSaveRepository {
	return &SQLiteSaveRepository{db: db}
}

// Load reads the slot's blob, mapping a missing row to ErrSlotNotFound.
func (r *SQLiteSaveRepository) Load(ctx context.Context, slot string) ([]byte, error) {
	var data string
	err := r.db.GetContext(ctx, &data, `SELECT data FROM save_slots WHERE slot = ?`, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot %q: %w", slot, err)
	}
	return []byte(data), nil
}

// Save upserts the slot.
func (r *SQLiteSaveRepository) Save(ctx context.Context, slot string, data []byte) error {
	query := `
		INSERT INTO save_slots (slot, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, slot, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save slot %q: %w", slot, err)
	}
	return nil
}

// Delete removes the slot's row.
func (r *SQLiteSaveRepository) Delete(ctx context.Context, slot string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM save_slots WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("failed to delete slot %q: %w", slot, err)
	}
	return nil
}

// SQLiteJournalRepository persists journal entries. It satisfies
// events.Persister.
type SQLiteJournalRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSQLiteJournalRepository wraps an initialized database. Appends made
// through the events.Persister interface time out after two seconds.
func NewSQLiteJournalRepository(db *sqlx.DB) *SQLiteJournalRepository {
	return &SQLiteJournalRepository{db: db, timeout: 2 * time.Second}
}

type journalRow struct {
	ID        string `db:"id"`
	Seq       uint64 `db:"seq"`
	Timestamp int64  `db:"timestamp"`
	Type      string `db:"entry_type"`
	Subject   string `db:"subject"`
	Payload   string `db:"payload"`
}

// Append writes one entry.
func (r *SQLiteJournalRepository) Append(e events.Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.AppendContext(ctx, e)
}

// AppendContext writes one entry under the caller's context.
func (r *SQLiteJournalRepository) AppendContext(ctx context.Context, e events.Entry) error {
	payloadBytes, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO journal (id, seq, timestamp, entry_type, subject, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.Seq, e.Timestamp.UnixMilli(), string(e.Type), e.Subject, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// Recent returns the newest limit entries, oldest first.
func (r *SQLiteJournalRepository) Recent(ctx context.Context, limit int) ([]events.Entry, error) {
	var rows []journalRow
	query := `SELECT id, seq, timestamp, entry_type, subject, payload FROM journal ORDER BY seq DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	out := make([]events.Entry, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		e := events.Entry{
			ID:        row.ID,
			Seq:       row.Seq,
			Timestamp: time.UnixMilli(row.Timestamp),
			Type:      events.EntryType(row.Type),
			Subject:   row.Subject,
		}
		if err := json.Unmarshal([]byte(row.Payload), &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Purge drops every journal entry. It satisfies events.Purger, so the
// engine's reset clears the durable history too.
func (r *SQLiteJournalRepository) Purge(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM journal`)
	return err
}
