package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quotecheck/internal/domain/model"
	"quotecheck/internal/domain/port"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Hub pushes every new comparison to connected websocket clients. A client
// that cannot keep up loses records instead of slowing the monitor down.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	upgrader   websocket.Upgrader
	bufferSize int
	logger     *slog.Logger
}

var _ port.ComparisonSink = (*Hub)(nil)

type client struct {
	conn      *websocket.Conn
	send      chan model.ComparisonRecord
	symbols   map[string]bool
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) wants(symbol string) bool {
	return len(c.symbols) == 0 || c.symbols[symbol]
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func NewHub(bufferSize int, logger *slog.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Hub{
		clients:    make(map[*client]struct{}),
		bufferSize: bufferSize,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SaveComparison never blocks and never fails.
func (h *Hub) SaveComparison(ctx context.Context, rec model.ComparisonRecord) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(rec.Symbol) {
			continue
		}
		select {
		case c.send <- rec:
		case <-c.done:
		default:
			h.logger.Debug("stream client too slow, dropping comparison", "symbol", rec.Symbol, "remote", c.conn.RemoteAddr().String())
		}
	}
	return nil
}

// ServeWS upgrades the request and streams comparisons until the client
// goes away. ?symbols=HWM,BAC limits the stream.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:    conn,
		send:    make(chan model.ComparisonRecord, h.bufferSize),
		symbols: parseSymbols(r.URL.Query().Get("symbols")),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("stream client connected", "remote", conn.RemoteAddr().String())

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.close()
		h.logger.Info("stream client disconnected", "remote", conn.RemoteAddr().String())
	}()

	go h.writeLoop(c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case rec := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(rec); err != nil {
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

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func parseSymbols(raw string) map[string]bool {
	set := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			set[s] = true
		}
	}
	return set
}
