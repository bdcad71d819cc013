package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"icu-monitor/internal/metrics"
)

const wsWriteTimeout = 5 * time.Second

// wsClient 单个 /ws 连接；写操作串行
type wsClient struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *wsClient) write(msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() { _ = c.conn.Close() })
}

// WSHub /ws 连接集合，实现 service.Sink
type WSHub struct {
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewWSHub 创建 WSHub；m 可为 nil
func NewWSHub(m *metrics.Metrics, logger *zap.Logger) *WSHub {
	return &WSHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		metrics: m,
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// ServeHTTP 升级连接并注册；客户端发来的帧读取后丢弃
func (h *WSHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	c := &wsClient{conn: conn}
	h.add(c)
	h.logger.Info("WebSocket client connected", zap.String("remote", r.RemoteAddr))
	go h.readLoop(c)
}

func (h *WSHub) readLoop(c *wsClient) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetWSClients(n)
}

func (h *WSHub) remove(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.close()
	if ok {
		h.metrics.SetWSClients(n)
		h.logger.Info("WebSocket client disconnected")
	}
}

func (h *WSHub) snapshot() []*wsClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

// Broadcast 写给所有客户端，写失败的客户端被移除；返回成功数
func (h *WSHub) Broadcast(msg []byte) int {
	sent := 0
	for _, c := range h.snapshot() {
		if err := c.write(msg); err != nil {
			h.logger.Warn("WebSocket write failed, dropping client", zap.Error(err))
			h.remove(c)
			continue
		}
		sent++
	}
	return sent
}

// Count 当前连接数
func (h *WSHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close 关闭全部连接，读 goroutine 随之退出
func (h *WSHub) Close() {
	for _, c := range h.snapshot() {
		h.remove(c)
	}
}
