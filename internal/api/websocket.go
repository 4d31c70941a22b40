package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-gree/internal/auth"
	"github.com/nerrad567/gray-logic-gree/internal/bridges/gree"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/logging"
)

// WebSocket message types.
const (
	WSTypeSubscribe = "subscribe"
	WSTypePing      = "ping"
	WSTypePong      = "pong"
	WSTypeEvent     = "event"
	WSTypeResponse  = "response"
	WSTypeError     = "error"

	// wsSendBufferSize bounds the state events queued for one client.
	wsSendBufferSize = 64
)

// WSMessage is one frame of the climate feed.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload joins the climate feed. Devices narrows the feed to
// the listed unit IDs; empty means every unit.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
	Devices  []string `json:"devices,omitempty"`
}

// wsRequest is an inbound frame with its payload left raw.
type wsRequest struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans climate state changes out to subscribed WebSocket clients.
type Hub struct {
	logger *logging.Logger

	// current lists the units and their latest state; nil without a bridge.
	current func() []gree.DeviceView

	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// WSClient is one connected WebSocket session.
type WSClient struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	subject string

	mu         sync.RWMutex
	subscribed bool
	devices    map[string]struct{} // nil means every unit
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS middleware.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// NewHub creates a hub. current may be nil.
func NewHub(logger *logging.Logger, current func() []gree.DeviceView) *Hub {
	return &Hub{
		logger:  logger,
		current: current,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// Register adds a client.
func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "subject", c.subject, "clients", n)
}

// Unregister removes a client. Only the caller that removes it closes its
// send channel.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		close(c.send)
		h.logger.Debug("websocket client disconnected", "subject", c.subject, "clients", n)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastState sends a unit's state to every client following that unit.
func (h *Hub) BroadcastState(view gree.DeviceView) {
	data, err := json.Marshal(stateEvent(view))
	if err != nil {
		h.logger.Error("failed to marshal climate event", "device", view.ID, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.follows(view.ID) {
			c.trySend(data)
		}
	}
}

func stateEvent(view gree.DeviceView) WSMessage {
	return WSMessage{
		Type:      WSTypeEvent,
		EventType: EventClimateStateChanged,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   view,
	}
}

// knownDevice reports whether id names a bridged unit. Without a bridge
// every ID is accepted.
func (h *Hub) knownDevice(id string) bool {
	if h.current == nil {
		return true
	}
	return slices.ContainsFunc(h.current(), func(v gree.DeviceView) bool { return v.ID == id })
}

// handleWebSocket upgrades a request carrying a ticket from
// POST /auth/ws-ticket into a climate feed session.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		writeUnauthorized(w, "ticket query parameter is required")
		return
	}
	entry, ok := s.tickets.consume(ticket)
	if !ok {
		writeUnauthorized(w, "invalid or expired ticket")
		return
	}
	if !auth.HasPermission(entry.role, auth.PermDeviceRead) {
		writeForbidden(w, "insufficient permissions")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &WSClient{
		hub:     s.hub,
		conn:    conn,
		send:    make(chan []byte, wsSendBufferSize),
		subject: entry.subject,
	}
	s.hub.Register(c)

	go c.writePump(s.wsCfg)
	go c.readPump(s.wsCfg)
}

// keepalive returns the ping period and how long a peer may stay silent.
func keepalive(cfg config.WebSocketConfig) (ping, idle time.Duration) {
	ping = time.Duration(cfg.PingInterval) * time.Second
	return ping, ping + time.Duration(cfg.PongTimeout)*time.Second
}

func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	_, idle := keepalive(cfg)
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(idle)) }

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	extend() //nolint:errcheck // a failed deadline surfaces on the next read
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "subject", c.subject, "error", err)
			}
			return
		}
		// Browsers that ignore protocol pings stay alive by talking.
		extend() //nolint:errcheck // a failed deadline surfaces on the next read
		c.handleMessage(data)
	}
}

func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	ping, _ := keepalive(cfg)
	writeWait := time.Duration(cfg.PongTimeout) * time.Second
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // write error reported below
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				write(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleMessage(data []byte) {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply("", WSTypeError, errorPayload("invalid JSON message"))
		return
	}

	switch req.Type {
	case WSTypeSubscribe:
		c.subscribe(req)
	case WSTypePing:
		c.reply(req.ID, WSTypePong, nil)
	default:
		c.reply(req.ID, WSTypeError, errorPayload("unknown message type: "+req.Type))
	}
}

// subscribe joins the climate feed and answers with the current state of
// every followed unit. Resubscribing replaces the device filter.
func (c *WSClient) subscribe(req wsRequest) {
	var sub WSSubscribePayload
	if err := json.Unmarshal(req.Payload, &sub); err != nil {
		c.reply(req.ID, WSTypeError, errorPayload("invalid subscribe payload"))
		return
	}
	if len(sub.Channels) == 0 {
		c.reply(req.ID, WSTypeError, errorPayload("channels is required"))
		return
	}
	for _, ch := range sub.Channels {
		if ch != EventClimateStateChanged {
			c.reply(req.ID, WSTypeError, errorPayload(fmt.Sprintf("unknown channel %q", ch)))
			return
		}
	}

	var devices map[string]struct{}
	if len(sub.Devices) > 0 {
		devices = make(map[string]struct{}, len(sub.Devices))
		for _, id := range sub.Devices {
			if !c.hub.knownDevice(id) {
				c.reply(req.ID, WSTypeError, errorPayload(fmt.Sprintf("unknown device %q", id)))
				return
			}
			devices[id] = struct{}{}
		}
	}

	c.mu.Lock()
	c.subscribed = true
	c.devices = devices
	c.mu.Unlock()

	states := []gree.DeviceView{}
	if c.hub.current != nil {
		for _, v := range c.hub.current() {
			if c.follows(v.ID) {
				states = append(states, v)
			}
		}
	}

	c.hub.logger.Info("websocket client subscribed", "subject", c.subject, "devices", sub.Devices)
	c.reply(req.ID, WSTypeResponse, map[string]any{
		"subscribed": EventClimateStateChanged,
		"states":     states,
	})
}

// follows reports whether the client wants events for deviceID.
func (c *WSClient) follows(deviceID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.subscribed {
		return false
	}
	if c.devices == nil {
		return true
	}
	_, ok := c.devices[deviceID]
	return ok
}

// trySend queues data, dropping it when the client is slow or gone.
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // send on a channel closed by Unregister
	}()

	select {
	case c.send <- data:
	default:
	}
}

func (c *WSClient) reply(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.trySend(data)
}

func errorPayload(message string) map[string]string {
	return map[string]string{"message": message}
}
