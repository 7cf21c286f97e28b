package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"arena/internal/game"
	"arena/internal/input"
	"arena/internal/netsync"
	"arena/internal/telemetry"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MaxWSConnectionsTotal caps open WebSocket connections.
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP caps connections from one address.
	MaxWSConnectionsPerIP = 10

	// maxEffectsPerFrame bounds one binary effect batch.
	maxEffectsPerFrame = 256

	clientSendBuffer = 64
	writeWait        = 5 * time.Second
)

// Event names of JSON text frames.
const (
	EventState        = "combat:state"
	EventCommandError = "command:error"
)

// StreamSource is what the broadcast loop reads from the engine.
type StreamSource interface {
	Snapshot() *game.Snapshot
	Outbox() *netsync.Outbox
}

type wsFrame struct {
	msgType int
	data    []byte
}

type wsClient struct {
	conn *websocket.Conn
	ip   string
	send chan wsFrame
}

type directFrame struct {
	client *wsClient
	frame  wsFrame
}

// WebSocketHub fans out snapshots and effect batches to browsers and
// feeds their commands into the input queue. The clients map is owned by
// Run.
type WebSocketHub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan wsFrame
	direct     chan directFrame
	done       chan struct{}
	active     atomic.Int64

	upgrader  websocket.Upgrader
	connLimit *ConnLimiter
	commands  CommandSink
	tracer    trace.Tracer
	log       *slog.Logger
}

// NewWebSocketHub creates a hub. commands may be nil to make the socket
// read-only.
func NewWebSocketHub(origins *OriginPolicy, commands CommandSink, tracer trace.Tracer, logger *slog.Logger) *WebSocketHub {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = telemetry.Tracer("ws")
	}
	h := &WebSocketHub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan wsFrame, 16),
		direct:     make(chan directFrame, 16),
		done:       make(chan struct{}),
		connLimit:  NewConnLimiter(MaxWSConnectionsPerIP),
		commands:   commands,
		tracer:     tracer,
		log:        logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origins == nil || origins.Allowed(origin) {
				return true
			}
			h.log.Warn("⚠️ websocket origin rejected", "origin", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run owns the client set until ctx is done, then closes every connection.
func (h *WebSocketHub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			h.setActive()
			return nil

		case c := <-h.register:
			h.clients[c] = true
			h.setActive()
			h.log.Info("📱 client connected", "ip", c.ip, "total", len(h.clients))

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				h.setActive()
				h.log.Info("📱 client disconnected", "ip", c.ip, "remaining", len(h.clients))
			}

		case f := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- f:
				default:
					// Slow client, skip this frame
				}
			}

		case d := <-h.direct:
			if h.clients[d.client] {
				select {
				case d.client.send <- d.frame:
				default:
				}
			}
		}
	}
}

func (h *WebSocketHub) drop(c *wsClient) {
	delete(h.clients, c)
	close(c.send)
	h.connLimit.Release(c.ip)
}

func (h *WebSocketHub) setActive() {
	h.active.Store(int64(len(h.clients)))
	UpdateWSConnections(len(h.clients))
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	return int(h.active.Load())
}

func (h *WebSocketHub) enqueue(f wsFrame) {
	select {
	case h.broadcast <- f:
	default:
		// Hub busy, drop (backpressure)
	}
}

// Broadcast sends a JSON event to every client.
func (h *WebSocketHub) Broadcast(event string, data any) {
	msg, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		h.log.Error("encode broadcast", "event", event, "error", err)
		return
	}
	h.enqueue(wsFrame{msgType: websocket.TextMessage, data: msg})
	wsMessagesTotal.WithLabelValues("state").Inc()
}

// BroadcastEffects sends a msgpack effect batch to every client.
func (h *WebSocketHub) BroadcastEffects(tick uint64, effects []netsync.Descriptor) {
	data, err := netsync.Encode(netsync.Batch{Tick: tick, Effects: effects})
	if err != nil {
		h.log.Error("encode effects", "error", err)
		return
	}
	h.enqueue(wsFrame{msgType: websocket.BinaryMessage, data: data})
	wsMessagesTotal.WithLabelValues("effects").Inc()
}

// RunBroadcastLoop publishes the latest snapshot fps times per second and
// flushes mirrored effects. The outbox is drained even with no clients
// so stale effects never reach a late joiner.
func (h *WebSocketHub) RunBroadcastLoop(ctx context.Context, src StreamSource, fps int) error {
	if fps <= 0 {
		fps = 10
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		snap := src.Snapshot()
		effects := src.Outbox().Drain(maxEffectsPerFrame)
		if h.ClientCount() == 0 {
			continue
		}
		if len(effects) > 0 {
			h.BroadcastEffects(snap.Tick, effects)
		}
		if snap.Sequence != lastSeq {
			lastSeq = snap.Sequence
			h.Broadcast(EventState, snap)
		}
	}
}

// HandleWebSocket upgrades the request and serves the connection.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		h.log.Warn("⚠️ websocket rejected: total limit", "total", total)
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.connLimit.Acquire(ip) {
		h.log.Warn("⚠️ websocket rejected: per-IP limit", "ip", ip)
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", "ip", ip, "error", err)
		h.connLimit.Release(ip)
		return
	}
	conn.SetReadLimit(input.MaxCommandSize)

	c := &wsClient{conn: conn, ip: ip, send: make(chan wsFrame, clientSendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		h.connLimit.Release(ip)
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *WebSocketHub) writePump(c *wsClient) {
	defer c.conn.Close()
	for f := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(f.msgType, f.data); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
}

// readPump turns text frames into commands until the connection fails.
func (h *WebSocketHub) readPump(c *wsClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if h.commands == nil {
			h.reply(c, EventCommandError, map[string]string{"error": "commands disabled"})
			continue
		}
		if _, _, err := submitCommand(context.Background(), h.tracer, h.commands, "ws", c.ip, data); err != nil {
			h.reply(c, EventCommandError, map[string]string{"error": err.Error()})
		}
	}
}

func (h *WebSocketHub) reply(c *wsClient, event string, data any) {
	msg, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		return
	}
	select {
	case h.direct <- directFrame{client: c, frame: wsFrame{msgType: websocket.TextMessage, data: msg}}:
	case <-h.done:
	default:
	}
}

// UpdateWSConnections sets the connection gauge.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}
