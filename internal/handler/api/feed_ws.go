package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	models "ShopPulse/internal/domain/models"
	"ShopPulse/internal/usecase"
	xhttp "ShopPulse/pkg/http"
	xlogger "ShopPulse/pkg/logger"
)

// FeedHub fans recommendation events out to dashboard websocket clients.
// A client whose send buffer is full is dropped rather than blocking the publisher.
type FeedHub struct {
	logger   *xlogger.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*feedClient]struct{}
	closed  bool

	sendBuf    int
	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

var (
	_ usecase.Broadcaster = (*FeedHub)(nil)
	_ xhttp.Handler       = (*FeedHub)(nil)
)

type FeedOption func(*FeedHub)

// WithSendBuffer sets how many events may queue per client before it is dropped.
func WithSendBuffer(n int) FeedOption {
	return func(h *FeedHub) {
		if n > 0 {
			h.sendBuf = n
		}
	}
}

// WithPingInterval sets the keepalive period. Clients silent for twice as long are closed.
func WithPingInterval(d time.Duration) FeedOption {
	return func(h *FeedHub) {
		if d > 0 {
			h.pingPeriod = d
			h.pongWait = 2 * d
		}
	}
}

// WithAllowedOrigins restricts the upgrade to the given origins. Empty allows any.
func WithAllowedOrigins(origins []string) FeedOption {
	return func(h *FeedHub) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			allowed[o] = struct{}{}
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			if _, ok := allowed["*"]; ok {
				return true
			}
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		}
	}
}

func NewFeedHub(logger *xlogger.Logger, opts ...FeedOption) *FeedHub {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &FeedHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:    make(map[*feedClient]struct{}),
		sendBuf:    64,
		writeWait:  10 * time.Second,
		pingPeriod: 30 * time.Second,
		pongWait:   60 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *FeedHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/pricing/feed", h.Serve)
}

// Serve upgrades the request and blocks until the client goes away.
func (h *FeedHub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the error response
		h.logger.Debug("feed upgrade failed", xlogger.Error(err))
		return nil
	}
	cl := &feedClient{conn: conn, send: make(chan []byte, h.sendBuf)}
	if !h.add(cl) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(h.writeWait))
		return conn.Close()
	}
	h.logger.Debug("feed client connected", xlogger.String("remote", c.RealIP()))

	go h.writePump(cl)
	h.readPump(cl)
	return nil
}

// Broadcast queues ev for every connected client.
func (h *FeedHub) Broadcast(ev models.RecommendationEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("feed marshal failed", xlogger.Error(err))
		return
	}

	var slow []*feedClient
	h.mu.RLock()
	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			slow = append(slow, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range slow {
		h.logger.Warn("dropping slow feed client")
		h.drop(cl)
	}
}

// Clients returns the number of connected clients.
func (h *FeedHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *FeedHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
	}
}

func (h *FeedHub) add(cl *feedClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl] = struct{}{}
	return true
}

// drop unregisters cl. Closing send makes the write pump say goodbye and close the conn.
func (h *FeedHub) drop(cl *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

// readPump only consumes control frames; clients never send data.
func (h *FeedHub) readPump(cl *feedClient) {
	defer h.drop(cl)
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("feed client read error", xlogger.Error(err))
			}
			return
		}
	}
}

func (h *FeedHub) writePump(cl *feedClient) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.drop(cl)
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(cl)
				return
			}
		}
	}
}
