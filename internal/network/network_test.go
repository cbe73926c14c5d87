package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/QuietDepths/internal/clock"
	"github.com/MRamiBalles/QuietDepths/internal/config"
	"github.com/MRamiBalles/QuietDepths/internal/domain/catalog"
	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
	"github.com/MRamiBalles/QuietDepths/internal/engine"
	"github.com/MRamiBalles/QuietDepths/internal/events"
	"github.com/MRamiBalles/QuietDepths/internal/infra/storage"
	"github.com/MRamiBalles/QuietDepths/internal/platform/logger"
)

type fixedRandom struct{}

func (fixedRandom) Float64() float64 { return 0.99 }
func (fixedRandom) IntN(int) int     { return 0 }

func newTestEngine(t *testing.T, cfg config.Config) *engine.Engine {
	t.Helper()
	clk := clock.NewFakeClock(time.UnixMilli(1_700_000_000_000))
	journal := events.NewJournal(cfg.JournalCapacity, clk, nil)
	return engine.New(catalog.Default(), storage.NewMemoryRepository(), clk, fixedRandom{}, cfg, logger.NewNop(), journal)
}

type wsFrame struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readFrames reads one websocket message and splits the batched frames.
func readFrames(t *testing.T, conn *websocket.Conn) []wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frames []wsFrame
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		var f wsFrame
		require.NoError(t, json.Unmarshal(line, &f))
		frames = append(frames, f)
	}
	return frames
}

// waitFor reads until a frame satisfies match.
func waitFor(t *testing.T, conn *websocket.Conn, match func(wsFrame) bool) wsFrame {
	t.Helper()
	for i := 0; i < 50; i++ {
		for _, f := range readFrames(t, conn) {
			if match(f) {
				return f
			}
		}
	}
	t.Fatal("expected frame never arrived")
	return wsFrame{}
}

func stateOf(t *testing.T, f wsFrame) StateView {
	t.Helper()
	var view StateView
	require.NoError(t, json.Unmarshal(f.Payload, &view))
	return view
}

type testServer struct {
	eng    *engine.Engine
	hub    *Hub
	url    string
	cancel context.CancelFunc
}

func startHub(t *testing.T, cfg config.Config) *testServer {
	t.Helper()
	eng := newTestEngine(t, cfg)
	hub := NewHub(eng, cfg, logger.NewNop())
	hub.AttachJournal(eng.Journal())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)
	return &testServer{eng: eng, hub: hub, url: "ws" + strings.TrimPrefix(srv.URL, "http"), cancel: cancel}
}

func (ts *testServer) connect(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(ts.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func dial(t *testing.T, cfg config.Config) (*engine.Engine, *Hub, *websocket.Conn) {
	t.Helper()
	ts := startHub(t, cfg)
	return ts.eng, ts.hub, ts.connect(t)
}

// readUntilClosed drains conn and reports whether the server closed it.
func readUntilClosed(conn *websocket.Conn) bool {
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) && netErr.Timeout() {
				return false
			}
			return true
		}
	}
}

func TestClientReceivesInitialStateAndActs(t *testing.T) {
	eng, hub, conn := dial(t, config.Default())

	first := waitFor(t, conn, func(f wsFrame) bool { return f.Type == MsgState })
	view := stateOf(t, first)
	assert.Equal(t, map[economy.Currency]int64{economy.Fish: 10}, view.Costs[economy.Nets])
	require.Len(t, view.Achievements, len(catalog.Default().Achievements))
	assert.False(t, view.Achievements[0].Unlocked)
	assert.Equal(t, 1, hub.ClientCount())

	require.NoError(t, conn.WriteJSON(PlayerAction{Type: ActionClick}))
	after := waitFor(t, conn, func(f wsFrame) bool {
		return f.Type == MsgState && stateOf(t, f).State.Balance(economy.Fish) == 1
	})
	assert.Equal(t, int64(1), stateOf(t, after).State.Stats.TotalActions)
	assert.True(t, stateOf(t, after).Achievements[0].Unlocked, "first catch")
	assert.Equal(t, int64(1), eng.GetState().Balance(economy.Fish))
}

func TestClientPurchaseBroadcastsJournal(t *testing.T) {
	eng, _, conn := dial(t, config.Default())
	waitFor(t, conn, func(f wsFrame) bool { return f.Type == MsgState })

	for i := 0; i < 10; i++ {
		require.NoError(t, conn.WriteJSON(PlayerAction{Type: ActionClick}))
	}
	require.NoError(t, conn.WriteJSON(PlayerAction{Type: ActionPurchase, Payload: json.RawMessage(`{"upgrade":"nets"}`)}))

	var e events.Entry
	waitFor(t, conn, func(f wsFrame) bool {
		if f.Type != MsgJournal {
			return false
		}
		require.NoError(t, json.Unmarshal(f.Payload, &e))
		return e.Type == events.EntryUpgradePurchased
	})
	assert.Equal(t, "nets", e.Subject)
	assert.Equal(t, 1, eng.GetState().Upgrade(economy.Nets).Level)
}

func TestClientRejectsBadActions(t *testing.T) {
	_, _, conn := dial(t, config.Default())
	waitFor(t, conn, func(f wsFrame) bool { return f.Type == MsgState })

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
	waitFor(t, conn, func(f wsFrame) bool { return f.Type == MsgError })

	require.NoError(t, conn.WriteJSON(PlayerAction{Type: "HARPOON"}))
	errFrame := waitFor(t, conn, func(f wsFrame) bool { return f.Type == MsgError })
	assert.Contains(t, string(errFrame.Payload), "HARPOON")

	require.NoError(t, conn.WriteJSON(PlayerAction{Type: ActionSetZone}))
	errFrame = waitFor(t, conn, func(f wsFrame) bool { return f.Type == MsgError })
	assert.Contains(t, string(errFrame.Payload), "SET_ZONE")
}

func TestClientRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.ActionsPerSecond = 0.001
	cfg.ActionBurst = 2
	eng, _, conn := dial(t, cfg)
	waitFor(t, conn, func(f wsFrame) bool { return f.Type == MsgState })

	for i := 0; i < 5; i++ {
		require.NoError(t, conn.WriteJSON(PlayerAction{Type: ActionClick}))
	}
	errFrame := waitFor(t, conn, func(f wsFrame) bool { return f.Type == MsgError })
	assert.Contains(t, string(errFrame.Payload), "rate limit")
	assert.Equal(t, int64(2), eng.GetState().Balance(economy.Fish))
}

func TestSaveAPI(t *testing.T) {
	eng := newTestEngine(t, config.Default())
	api := NewSaveAPI(eng, nil, logger.NewNop())
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	NewJournalHandler(eng.Journal(), logger.NewNop()).RegisterRoutes(mux)

	eng.Click()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var view StateView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, int64(1), view.State.Balance(economy.Fish))

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	blob := rec.Body.Bytes()

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, eng.GetState().Balance(economy.Fish))

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader("garbage")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader(blob)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), eng.GetState().Balance(economy.Fish))

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/import", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/journal?type=GAME_RESET", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var replay ReplayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replay))
	require.Equal(t, 1, replay.TotalEntries)
	assert.Equal(t, events.EntryGameReset, replay.Entries[0].Type)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/journal?since=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHubShutdownClosesClients(t *testing.T) {
	ts := startHub(t, config.Default())
	conn := ts.connect(t)
	waitFor(t, conn, func(f wsFrame) bool { return f.Type == MsgState })
	require.Equal(t, 1, ts.hub.ClientCount())

	ts.cancel()
	select {
	case <-ts.hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	assert.Equal(t, 0, ts.hub.ClientCount())
	assert.True(t, readUntilClosed(conn), "connection closed by the server")

	conn.WriteJSON(PlayerAction{Type: ActionClick})
	assert.Equal(t, int64(0), ts.eng.GetState().Stats.TotalActions, "no action after shutdown")
}

func TestConnectAfterShutdownIsRefused(t *testing.T) {
	ts := startHub(t, config.Default())
	ts.cancel()
	<-ts.hub.Done()

	conn := ts.connect(t)
	assert.True(t, readUntilClosed(conn))
	assert.Equal(t, 0, ts.hub.ClientCount())
}

func TestDispatchStopsAfterShutdown(t *testing.T) {
	ts := startHub(t, config.Default())

	ran, err := ts.hub.dispatch(func() error { return nil })
	assert.True(t, ran)
	assert.NoError(t, err)

	ts.cancel()
	<-ts.hub.Done()

	called := false
	ran, _ = ts.hub.dispatch(func() error { called = true; return nil })
	assert.False(t, ran)
	assert.False(t, called)
}
