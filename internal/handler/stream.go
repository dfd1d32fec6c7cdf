package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/efreitasn/makeamarket/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Stream event types.
const (
	EventSubscribed = "subscribed"
	EventRound      = "round"
	EventSettlement = "settlement"
)

// streamEvent is one message sent to a stream subscriber.
type streamEvent struct {
	Type   string `json:"type"`
	GameID string `json:"game_id"`
	Data   any    `json:"data"`
}

// Hub fans game events out to websocket subscribers, grouped by game ID.
// It implements service.EventPublisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*streamClient]struct{} // game_id → subscribers

	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates a Hub accepting upgrades from the given origins. "*"
// allows any origin.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		clients: make(map[string]map[*streamClient]struct{}),
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// PublishRound sends a round event to the game's subscribers.
func (h *Hub) PublishRound(v *service.RoundView) {
	h.broadcast(streamEvent{Type: EventRound, GameID: v.GameID, Data: toRound(v)})
}

// PublishSettlement sends a settlement event to the game's subscribers.
func (h *Hub) PublishSettlement(v *service.SettlementView) {
	h.broadcast(streamEvent{Type: EventSettlement, GameID: v.GameID, Data: toSettlementView(v)})
}

// Subscribers returns the number of live subscribers for a game.
func (h *Hub) Subscribers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[gameID])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for gameID, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, gameID)
	}
}

func (h *Hub) broadcast(ev streamEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal stream event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	var slow []*streamClient
	h.mu.RLock()
	for c := range h.clients[ev.GameID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow stream subscriber",
			zap.String("game_id", c.gameID), zap.String("client_id", c.id))
		h.unregister(c)
	}
}

// register adds c and queues its welcome message before any event can
// reach it.
func (h *Hub) register(c *streamClient, welcome []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.gameID]
	if !ok {
		set = make(map[*streamClient]struct{})
		h.clients[c.gameID] = set
	}
	set[c] = struct{}{}
	c.send <- welcome
}

// unregister removes c and closes its send channel. It is a no-op if c is
// already gone.
func (h *Hub) unregister(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.clients[c.gameID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.gameID)
	}
}

// StreamHandler serves GET /games/{game_id}/stream.
type StreamHandler struct {
	hub     *Hub
	gameSvc *service.GameService
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(hub *Hub, gameSvc *service.GameService) *StreamHandler {
	return &StreamHandler{hub: hub, gameSvc: gameSvc}
}

// Stream upgrades the connection and subscribes it to the game's events.
// The first message is a subscribed event carrying the current game state.
func (s *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if _, err := s.gameSvc.GetGame(gameID); err != nil {
		mapGameError(w, err)
		return
	}

	conn, err := s.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.hub.logger.Debug("stream upgrade failed", zap.String("game_id", gameID), zap.Error(err))
		return
	}

	c := &streamClient{
		id:     uuid.New().String(),
		gameID: gameID,
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}

	// The snapshot and the registration happen under the game's lock, so
	// no round can slip between them.
	var registered bool
	err = s.gameSvc.Watch(gameID, func(game *service.GameView) {
		welcome, merr := json.Marshal(streamEvent{Type: EventSubscribed, GameID: gameID, Data: toGame(game)})
		if merr != nil {
			s.hub.logger.Error("marshal stream snapshot", zap.String("game_id", gameID), zap.Error(merr))
			return
		}
		s.hub.register(c, welcome)
		registered = true
	})
	if err != nil || !registered {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "game unavailable"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	s.hub.logger.Debug("stream subscriber connected",
		zap.String("game_id", gameID),
		zap.String("client_id", c.id),
		zap.Int("subscribers", s.hub.Subscribers(gameID)),
	)

	go c.writePump()
	go c.readPump()
}

// streamClient is one websocket subscriber.
type streamClient struct {
	id     string
	gameID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
}

// readPump discards client messages and detects disconnects.
func (c *streamClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("stream read error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
	}
}

// writePump writes one event per websocket message and keeps the
// connection alive with pings.
func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
