package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/QuietDepths/internal/config"
	"github.com/MRamiBalles/QuietDepths/internal/domain/catalog"
	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
	"github.com/MRamiBalles/QuietDepths/internal/engine"
	"github.com/MRamiBalles/QuietDepths/internal/events"
	"github.com/MRamiBalles/QuietDepths/internal/platform/logger"
	"github.com/MRamiBalles/QuietDepths/internal/platform/metrics"
)

// Game is the session surface the transport drives. *engine.Engine
// implements it.
type Game interface {
	GetState() economy.State
	Click()
	PurchaseUpgrade(id economy.UpgradeID)
	SetZone(index int)
	SetScreen(name string)
	SellInventory()
	AcknowledgeOffline()
	UpdateSettings(s economy.Settings)
	UpgradeCost(id economy.UpgradeID) map[economy.Currency]int64
	Catalog() *catalog.Catalog
	Export() ([]byte, error)
	Import(ctx context.Context, blob []byte) (engine.OfflineReport, error)
	Reset(ctx context.Context) error
}

// MessageType tags outgoing frames.
type MessageType string

const (
	MsgState   MessageType = "STATE"
	MsgJournal MessageType = "JOURNAL"
	MsgError   MessageType = "ERROR"
)

// Message is the envelope of every frame sent to clients.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// StateView is the STATE payload: the snapshot, the price of the next
// level of every upgrade and the achievements tab.
type StateView struct {
	State        economy.State                                    `json:"state"`
	Costs        map[economy.UpgradeID]map[economy.Currency]int64 `json:"costs"`
	Achievements []catalog.AchievementProgress                    `json:"achievements"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	game       Game
	cfg        config.Config
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *logger.Logger
	metrics    *metrics.Collector

	// gate is held shared while a player action runs and exclusively
	// while the hub shuts down, so no action starts after Done closes.
	gate   sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewHub initializes a new WebSocket Hub.
func NewHub(game Game, cfg config.Config, log *logger.Logger) *Hub {
	return &Hub{
		game:       game,
		cfg:        cfg,
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     log,
		metrics:    metrics.Get(),
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
			h.deliver(client, h.stateFrame())
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
					h.metrics.RecordWSConnection(-1)
				}
			}
			h.mu.Unlock()
		}
	}
}

// shutdown stops accepting actions, waits for in-flight ones and closes
// every connection. Done is closed last.
func (h *Hub) shutdown() {
	h.gate.Lock()
	h.closed = true
	h.gate.Unlock()

	h.mu.Lock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
		client.conn.Close()
		h.metrics.RecordWSConnection(-1)
	}
	h.mu.Unlock()
	close(h.done)
}

// Done is closed when Run shuts down, after every client is disconnected.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// dispatch runs a player action unless the hub has shut down.
func (h *Hub) dispatch(fn func() error) (ran bool, err error) {
	h.gate.RLock()
	defer h.gate.RUnlock()
	if h.closed {
		return false, nil
	}
	return true, fn()
}

// ClientCount reports the connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast serializes msg and queues it for every client. A full queue
// drops the frame rather than stall the caller.
func (h *Hub) Broadcast(msg Message) {
	payload := h.encode(msg)
	if payload == nil {
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Broadcast queue full, dropping " + string(msg.Type) + " frame")
	}
}

// AttachJournal pushes every new journal entry to the clients.
func (h *Hub) AttachJournal(j *events.Journal) {
	j.Subscribe(func(e events.Entry) {
		h.Broadcast(Message{Type: MsgJournal, Timestamp: e.Timestamp.UnixMilli(), Payload: e})
	})
}

// StartStatePusher broadcasts the state whenever it changed since the last
// push, checked every interval. Idle income and events reach the clients
// this way.
func (h *Hub) StartStatePusher(ctx context.Context, interval time.Duration) {
	go func() {
		pollInterval := time.NewTicker(interval)
		defer pollInterval.Stop()

		var last []byte
		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				view, err := json.Marshal(h.stateView())
				if err != nil || string(view) == string(last) {
					continue
				}
				last = view
				h.Broadcast(Message{Type: MsgState, Timestamp: time.Now().UnixMilli(), Payload: json.RawMessage(view)})
			}
		}
	}()
}

// ServeWS upgrades the request and attaches a new client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.metrics.RecordWSError()
		h.logger.Error("WebSocket upgrade failed: " + err.Error())
		return
	}

	client := NewClient(h, conn)
	if !client.Register() {
		conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()
}

// deliver queues a frame for one client if it is still registered.
func (h *Hub) deliver(c *Client, frame []byte) {
	if frame == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- frame:
		h.metrics.RecordWSMessage(false)
	default:
	}
}

func (h *Hub) stateView() StateView {
	return newStateView(h.game)
}

func newStateView(game Game) StateView {
	view := StateView{
		State: game.GetState(),
		Costs: make(map[economy.UpgradeID]map[economy.Currency]int64),
	}
	cat := game.Catalog()
	for _, def := range cat.Upgrades {
		view.Costs[def.ID] = game.UpgradeCost(def.ID)
	}
	view.Achievements = cat.Progress(view.State)
	return view
}

func (h *Hub) stateFrame() []byte {
	return h.encode(Message{Type: MsgState, Timestamp: time.Now().UnixMilli(), Payload: h.stateView()})
}

func (h *Hub) encode(msg Message) []byte {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to serialize " + string(msg.Type) + " frame: " + err.Error())
		return nil
	}
	return payload
}
