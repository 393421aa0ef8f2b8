package realtime

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/pkg/logger"
	"github.com/charlesng35/storedesk/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10

	sendBuffer = 32
)

// Message is the JSON frame written to devices.
type Message struct {
	Stream string `json:"stream"`
	Event  string `json:"event"`
	Data   any    `json:"data,omitempty"`
}

type controlMessage struct {
	Action  string   `json:"action"`
	Streams []string `json:"streams"`
}

// Hub fans messages out to connected devices, keyed by stream and user.
type Hub struct {
	mu       sync.RWMutex
	streams  map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub constructs a Hub.
func NewHub() *Hub {
	return &Hub{
		streams: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOriginOrLoopback,
		},
		log: logger.WithModule("realtime"),
	}
}

// Serve upgrades the request and subscribes the device to streams until it disconnects.
func (h *Hub) Serve(userID string, streams []string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		hub:     h,
		conn:    conn,
		userID:  userID,
		send:    make(chan Message, sendBuffer),
		streams: make(map[string]struct{}),
	}
	h.subscribe(c, streams)
	metrics.PushConnections.Inc()
	defer metrics.PushConnections.Dec()

	go c.writeLoop()
	c.readLoop()
}

// PublishToUser delivers message to every device of userID listening on stream.
func (h *Hub) PublishToUser(stream, userID string, message Message) int {
	return h.publish(stream, message, func(c *client) bool { return c.userID == userID })
}

// Broadcast delivers message to every device listening on stream.
func (h *Hub) Broadcast(stream string, message Message) int {
	return h.publish(stream, message, func(*client) bool { return true })
}

// Listeners returns the number of devices on stream.
func (h *Hub) Listeners(stream string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[normalizeStream(stream)])
}

func (h *Hub) publish(stream string, message Message, match func(*client) bool) int {
	stream = normalizeStream(stream)
	if stream == "" {
		return 0
	}
	message.Stream = stream

	h.mu.RLock()
	var targets []*client
	for c := range h.streams[stream] {
		if match(c) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(message)
	}
	return len(targets)
}

func (h *Hub) subscribe(c *client, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, stream := range uniqueStreams(streams) {
		if h.streams[stream] == nil {
			h.streams[stream] = make(map[*client]struct{})
		}
		h.streams[stream][c] = struct{}{}
		c.streams[stream] = struct{}{}
	}
}

func (h *Hub) unsubscribe(c *client, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, stream := range uniqueStreams(streams) {
		h.removeLocked(c, stream)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for stream := range c.streams {
		h.removeLocked(c, stream)
	}
}

func (h *Hub) removeLocked(c *client, stream string) {
	delete(c.streams, stream)
	members := h.streams[stream]
	if members == nil {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.streams, stream)
	}
}

type client struct {
	hub     *Hub
	conn    *websocket.Conn
	userID  string
	send    chan Message
	streams map[string]struct{}

	closeMu sync.Mutex
	closed  bool
}

func (c *client) enqueue(message Message) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- message:
	default:
		c.hub.log.Warn("dropping slow device", zap.String("user_id", c.userID))
		c.closeLocked()
	}
}

func (c *client) readLoop() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("device disconnected", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(ctrl.Action)) {
		case "subscribe":
			c.hub.subscribe(c, ctrl.Streams)
		case "unsubscribe":
			c.hub.unsubscribe(c, ctrl.Streams)
		case "ping":
			c.enqueue(Message{Event: EventPong})
		}
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
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

func (c *client) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	c.closeLocked()
}

func (c *client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	c.hub.unregister(c)
	close(c.send)
}

func sameOriginOrLoopback(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	originHost := stripPort(u.Host)
	if originHost == stripPort(r.Host) {
		return true
	}
	if ip := net.ParseIP(originHost); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(originHost, "localhost")
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}

func uniqueStreams(streams []string) []string {
	seen := make(map[string]struct{}, len(streams))
	var out []string
	for _, stream := range streams {
		stream = normalizeStream(stream)
		if stream == "" {
			continue
		}
		if _, ok := seen[stream]; ok {
			continue
		}
		seen[stream] = struct{}{}
		out = append(out, stream)
	}
	return out
}
