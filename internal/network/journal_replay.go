// Package network - journal_replay.go
// Read-only view of the activity journal for the logbook screen.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/QuietDepths/internal/events"
	"github.com/MRamiBalles/QuietDepths/internal/platform/logger"
)

// JournalHandler provides the journal replay API.
type JournalHandler struct {
	journal *events.Journal
	logger  *logger.Logger
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(j *events.Journal, log *logger.Logger) *JournalHandler {
	return &JournalHandler{
		journal: j,
		logger:  log,
	}
}

// LogbookEntry is a journal entry with a human-readable age.
type LogbookEntry struct {
	events.Entry
	Age string `json:"age"`
}

// ReplayResponse is the API response for a journal replay.
type ReplayResponse struct {
	TotalEntries int            `json:"total_entries"`
	FilteredBy   string         `json:"filtered_by,omitempty"`
	GeneratedAt  string         `json:"generated_at"`
	Entries      []LogbookEntry `json:"entries"`
}

// HandleReplay returns retained journal entries.
// GET /api/journal?since=SEQ&type=EVENT_STARTED
func (jh *JournalHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "Method not allowed"})
		return
	}

	var since uint64
	if s := r.URL.Query().Get("since"); s != "" {
		parsed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid since"})
			return
		}
		since = parsed
	}
	entryType := events.EntryType(r.URL.Query().Get("type"))

	now := time.Now()
	resp := ReplayResponse{
		GeneratedAt: now.Format(time.RFC3339),
		Entries:     []LogbookEntry{},
	}
	if entryType != "" {
		resp.FilteredBy = string(entryType)
	}

	for _, e := range jh.journal.Since(since) {
		if entryType != "" && e.Type != entryType {
			continue
		}
		resp.Entries = append(resp.Entries, LogbookEntry{Entry: e, Age: humanize.RelTime(e.Timestamp, now, "ago", "from now")})
	}
	resp.TotalEntries = len(resp.Entries)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// RegisterRoutes sets up the journal route.
func (jh *JournalHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/journal", jh.HandleReplay)
}

func humanBytes(n int) string {
	return humanize.Bytes(uint64(n))
}
