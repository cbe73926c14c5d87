package network

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Action types accepted from clients.
const (
	ActionClick      = "CLICK"
	ActionPurchase   = "PURCHASE"        // {"upgrade": "nets"}
	ActionSetZone    = "SET_ZONE"        // {"index": 1}
	ActionSetScreen  = "SET_SCREEN"      // {"screen": "upgrades"}
	ActionSell       = "SELL"
	ActionAckOffline = "ACK_OFFLINE"
	ActionSettings   = "UPDATE_SETTINGS" // economy.Settings
	ActionSync       = "SYNC"
)

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client is one WebSocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	buffer := hub.cfg.ClientSendBuffer
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, buffer),
		limiter: rate.NewLimiter(rate.Limit(hub.cfg.ActionsPerSecond), max(hub.cfg.ActionBurst, 1)),
	}
}

// Register adds the client to the hub. It reports false once the hub has
// shut down.
func (c *Client) Register() bool {
	select {
	case c.hub.register <- c:
		return true
	case <-c.hub.done:
		return false
	}
}

// ReadPump pumps actions from the websocket connection into the game.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.metrics.RecordWSError()
				c.hub.logger.Warn("WebSocket read error: " + err.Error())
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Warn("Failed to parse PlayerAction from WebSocket: " + err.Error())
			c.sendError("malformed action")
			continue
		}

		if !c.limiter.Allow() {
			c.sendError("rate limit exceeded")
			continue
		}

		ran, err := c.hub.dispatch(func() error { return c.handlePlayerAction(action) })
		if !ran {
			return
		}
		if err != nil {
			c.sendError(err.Error())
			continue
		}
		c.hub.deliver(c, c.hub.stateFrame())
	}
}

type actionError string

func (e actionError) Error() string { return string(e) }

func (c *Client) handlePlayerAction(action PlayerAction) error {
	game := c.hub.game

	switch action.Type {
	case ActionClick:
		game.Click()
	case ActionPurchase:
		var p struct {
			Upgrade economy.UpgradeID `json:"upgrade"`
		}
		if err := json.Unmarshal(action.Payload, &p); err != nil || p.Upgrade == "" {
			return actionError("PURCHASE needs an upgrade id")
		}
		game.PurchaseUpgrade(p.Upgrade)
	case ActionSetZone:
		var p struct {
			Index *int `json:"index"`
		}
		if err := json.Unmarshal(action.Payload, &p); err != nil || p.Index == nil {
			return actionError("SET_ZONE needs an index")
		}
		game.SetZone(*p.Index)
	case ActionSetScreen:
		var p struct {
			Screen string `json:"screen"`
		}
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return actionError("SET_SCREEN needs a screen")
		}
		game.SetScreen(p.Screen)
	case ActionSell:
		game.SellInventory()
	case ActionAckOffline:
		game.AcknowledgeOffline()
	case ActionSettings:
		var s economy.Settings
		if err := json.Unmarshal(action.Payload, &s); err != nil {
			return actionError("UPDATE_SETTINGS needs settings")
		}
		game.UpdateSettings(s)
	case ActionSync:
	default:
		c.hub.logger.Warn("Unknown PlayerAction type: " + action.Type)
		return actionError("unknown action " + action.Type)
	}
	return nil
}

func (c *Client) sendError(reason string) {
	c.hub.deliver(c, c.hub.encode(Message{
		Type:      MsgError,
		Timestamp: time.Now().UnixMilli(),
		Payload:   map[string]string{"error": reason},
	}))
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
