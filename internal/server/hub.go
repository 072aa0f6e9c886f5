package server

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/magefree/mage-match-engine/internal/config"
	"github.com/magefree/mage-match-engine/internal/game"
	"github.com/magefree/mage-match-engine/internal/game/deck"
	"github.com/magefree/mage-match-engine/internal/game/rules"
	"go.uber.org/zap"
)

// Hub accepts websocket clients, turns their commands into match operations and fans each
// match's events out to the clients subscribed to it. Every match created through the hub
// gets its own EventBus as sink.
type Hub struct {
	manager  *game.Manager
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	clients map[*Client]struct{}
	buses   map[string]*rules.EventBus
}

// NewHub creates a hub serving matches from manager.
func NewHub(manager *game.Manager, cfg config.WebSocketConfig, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendQueueSize < 1 {
		cfg.SendQueueSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		manager: manager,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[*Client]struct{}),
		buses:   make(map[string]*rules.EventBus),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// ServeHTTP upgrades the request and starts the client's read and write loops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	client := &Client{
		id:     id,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.cfg.SendQueueSize),
		logger: h.logger.With(zap.String("client_id", id)),
		subs:   make(map[string]int),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client connected",
		zap.String("client_id", id),
		zap.String("remote_addr", r.RemoteAddr),
		zap.Int("clients", total),
	)

	go client.writePump()
	go client.readPump()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	for gameID, handle := range c.shutdown() {
		if bus, ok := h.bus(gameID); ok {
			bus.Unsubscribe(handle)
		}
	}
	h.logger.Info("client disconnected", zap.String("client_id", c.id), zap.Int("clients", total))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Matches stay registered with the manager.
func (h *Hub) Close() {
	h.cancel()

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

func (h *Hub) bus(gameID string) (*rules.EventBus, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	bus, ok := h.buses[gameID]
	return bus, ok
}

// dropBus forgets a finished match's event stream and every client subscription to it.
func (h *Hub) dropBus(gameID string) {
	h.mu.Lock()
	delete(h.buses, gameID)
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.dropSubscription(gameID)
	}
	h.logger.Debug("event stream closed", zap.String("game_id", gameID))
}

func (h *Hub) handleMessage(c *Client, msg ClientMessage) {
	msg.GameID = strings.TrimSpace(msg.GameID)
	msg.PlayerID = strings.TrimSpace(msg.PlayerID)
	c.logger.Debug("received message",
		zap.String("type", msg.Type),
		zap.String("game_id", msg.GameID),
	)

	var err error
	switch msg.Type {
	case MsgCreateMatch:
		err = h.createMatch(c, msg)
	case MsgSubscribe:
		err = h.subscribe(c, msg)
	case MsgUnsubscribe:
		err = h.unsubscribe(c, msg)
	case MsgState:
		err = h.withMatch(c, msg, func(*game.Match) error { return nil })
	case MsgAdvance:
		err = h.withMatch(c, msg, (*game.Match).AdvancePhase)
	case MsgAbandon:
		err = h.withMatch(c, msg, (*game.Match).Abandon)
	case MsgConcede:
		err = h.withPlayer(c, msg, (*game.Match).Concede)
	case MsgMulligan:
		err = h.withPlayer(c, msg, (*game.Match).Mulligan)
	case MsgKeepHand:
		err = h.withPlayer(c, msg, (*game.Match).KeepHand)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}

	if err != nil {
		c.enqueue(errorMessage(msg, err))
	}
}

func (h *Hub) createMatch(c *Client, msg ClientMessage) error {
	gameID := msg.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}
	opts := []game.CreateOption{game.WithGameID(gameID)}
	if msg.Seed != 0 {
		opts = append(opts, game.WithSeed(msg.Seed))
	}
	if msg.Format != "" {
		format, err := deck.FormatByName(msg.Format)
		if err != nil {
			return err
		}
		opts = append(opts, game.WithFormat(format))
	}

	h.mu.Lock()
	if _, exists := h.buses[gameID]; exists {
		h.mu.Unlock()
		return fmt.Errorf("game %s already exists", gameID)
	}
	bus := rules.NewEventBus()
	h.buses[gameID] = bus
	h.mu.Unlock()

	// Typed listeners run after catch-all ones, so clients see GAME_ENDED before the stream
	// is dropped.
	bus.SubscribeTyped(rules.EventGameEnded, func(rules.Event) {
		h.dropBus(gameID)
	})

	// Subscribe before creation so the creator sees MATCH_CREATED.
	c.setSubscription(gameID, bus.Subscribe(c.listener(gameID)))

	match, err := h.manager.Create(h.ctx, msg.Players, msg.Decks, bus.Publish, opts...)
	if err != nil {
		c.dropSubscription(gameID)
		h.mu.Lock()
		delete(h.buses, gameID)
		h.mu.Unlock()
		return err
	}

	h.logger.Info("match created over websocket",
		zap.String("game_id", gameID),
		zap.String("client_id", c.id),
		zap.Strings("players", msg.Players),
	)
	c.enqueue(ServerMessage{
		Type:      MsgAck,
		RequestID: msg.RequestID,
		GameID:    gameID,
		State:     newMatchView(match.Snapshot()),
	})
	return nil
}

func (h *Hub) subscribe(c *Client, msg ClientMessage) error {
	if msg.GameID == "" {
		return fmt.Errorf("game_id is required")
	}
	match, err := h.manager.Get(msg.GameID)
	if err != nil {
		return err
	}
	bus, ok := h.bus(msg.GameID)
	if !ok {
		return fmt.Errorf("%w: %s has no event stream", game.ErrUnknownGame, msg.GameID)
	}
	if _, already := c.subscription(msg.GameID); !already {
		c.setSubscription(msg.GameID, bus.Subscribe(c.listener(msg.GameID)))
	}
	c.enqueue(ServerMessage{
		Type:      MsgAck,
		RequestID: msg.RequestID,
		GameID:    msg.GameID,
		State:     newMatchView(match.Snapshot()),
	})
	return nil
}

func (h *Hub) unsubscribe(c *Client, msg ClientMessage) error {
	handle, ok := c.dropSubscription(msg.GameID)
	if !ok {
		return fmt.Errorf("not subscribed to %s", msg.GameID)
	}
	if bus, ok := h.bus(msg.GameID); ok {
		bus.Unsubscribe(handle)
	}
	c.enqueue(ServerMessage{Type: MsgAck, RequestID: msg.RequestID, GameID: msg.GameID})
	return nil
}

func (h *Hub) withMatch(c *Client, msg ClientMessage, op func(*game.Match) error) error {
	if msg.GameID == "" {
		return fmt.Errorf("game_id is required")
	}
	match, err := h.manager.Get(msg.GameID)
	if err != nil {
		return err
	}
	if err := op(match); err != nil {
		return err
	}
	c.enqueue(ServerMessage{
		Type:      MsgAck,
		RequestID: msg.RequestID,
		GameID:    msg.GameID,
		State:     newMatchView(match.Snapshot()),
	})
	return nil
}

func (h *Hub) withPlayer(c *Client, msg ClientMessage, op func(*game.Match, string) error) error {
	if msg.PlayerID == "" {
		return fmt.Errorf("player_id is required")
	}
	return h.withMatch(c, msg, func(m *game.Match) error {
		return op(m, msg.PlayerID)
	})
}

func (c *Client) listener(gameID string) rules.Listener {
	return func(evt rules.Event) {
		c.enqueue(ServerMessage{Type: MsgEvent, GameID: gameID, Event: &evt})
	}
}
