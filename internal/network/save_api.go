// Package network - save_api.go
// REST surface for the session: state snapshot, catalog, and the save
// slot operations behind the export/import/reset menu.
package network

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/MRamiBalles/QuietDepths/internal/engine"
	"github.com/MRamiBalles/QuietDepths/internal/platform/logger"
)

// maxImportSize bounds an import request body.
const maxImportSize = 1 << 20

// SaveAPI handles the HTTP endpoints of a session.
type SaveAPI struct {
	game   Game
	wsHub  *Hub
	logger *logger.Logger
}

// NewSaveAPI creates the HTTP handlers. hub may be nil.
func NewSaveAPI(game Game, hub *Hub, log *logger.Logger) *SaveAPI {
	return &SaveAPI{
		game:   game,
		wsHub:  hub,
		logger: log,
	}
}

// HandleState returns the snapshot and next-level costs.
// GET /api/state
func (sa *SaveAPI) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sa.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sa.jsonSuccess(w, newStateView(sa.game))
}

// HandleCatalog returns the static zone, upgrade, event and item tables.
// GET /api/catalog
func (sa *SaveAPI) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sa.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sa.jsonSuccess(w, sa.game.Catalog())
}

// HandleExport returns the raw save blob.
// GET /api/export
func (sa *SaveAPI) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sa.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	blob, err := sa.game.Export()
	if err != nil {
		sa.logger.Error("Export failed: " + err.Error())
		sa.jsonError(w, "Export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="quiet-depths-save.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

// HandleImport replaces the session with the posted save blob.
// POST /api/import
func (sa *SaveAPI) HandleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sa.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	blob, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		sa.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	report, err := sa.game.Import(r.Context(), blob)
	if errors.Is(err, engine.ErrInvalidSave) {
		sa.jsonError(w, "Invalid save data", http.StatusBadRequest)
		return
	}
	if err != nil {
		sa.logger.Error("Import failed: " + err.Error())
		sa.jsonError(w, "Import failed", http.StatusInternalServerError)
		return
	}

	sa.logger.Event("SAVE_IMPORTED", "PLAYER", "bytes:"+humanBytes(len(blob)))
	sa.pushState()
	sa.jsonSuccess(w, map[string]interface{}{
		"success": true,
		"offline": report,
	})
}

// HandleReset wipes the save and starts a new session.
// POST /api/reset
func (sa *SaveAPI) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sa.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := sa.game.Reset(r.Context()); err != nil {
		sa.logger.Error("Reset failed: " + err.Error())
		sa.jsonError(w, "Reset failed", http.StatusInternalServerError)
		return
	}
	sa.pushState()
	sa.jsonSuccess(w, map[string]interface{}{"success": true})
}

// RegisterRoutes sets up the session API routes.
func (sa *SaveAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", sa.HandleState)
	mux.HandleFunc("/api/catalog", sa.HandleCatalog)
	mux.HandleFunc("/api/export", sa.HandleExport)
	mux.HandleFunc("/api/import", sa.HandleImport)
	mux.HandleFunc("/api/reset", sa.HandleReset)
}

func (sa *SaveAPI) pushState() {
	if sa.wsHub == nil {
		return
	}
	sa.wsHub.Broadcast(Message{Type: MsgState, Timestamp: time.Now().UnixMilli(), Payload: sa.wsHub.stateView()})
}

// jsonError sends an error response.
func (sa *SaveAPI) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (sa *SaveAPI) jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
