package internal

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// 系統設計問題：
//   如何讓慢連接不拖累房間廣播與活性掃描？
//
// 設計方案：
//   ✅ 每個連接一對 goroutine：readPump 產生事件，writePump 負責所有寫入
//   ✅ 發送與 ping 都是非阻塞入列，I/O 只在 writePump 發生
//   ✅ 讀取大小上限（10 KiB），超過由 gorilla 直接關閉連接

const (
	// writeWait 單次寫入期限
	writeWait = 10 * time.Second

	// DefaultMaxMessageSize 入站訊息大小上限
	DefaultMaxMessageSize = 10 * 1024

	// DefaultSendBuffer 每個連接的發送佇列長度
	DefaultSendBuffer = 64
)

// WebSocketHub WebSocket 連接中心
//
// 只負責傳輸：升級連接、把讀到的資料與 pong 轉成 Event 交給 Dispatcher。
// 連接的追蹤由 Registry 負責。
type WebSocketHub struct {
	dispatcher     *Dispatcher
	registry       *Registry
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	maxMessageSize int64
	sendBuffer     int
}

// HubOptions WebSocket 參數
type HubOptions struct {
	MaxMessageSize  int
	SendBuffer      int
	ReadBufferSize  int
	WriteBufferSize int
}

// NewWebSocketHub 創建 WebSocket Hub
func NewWebSocketHub(dispatcher *Dispatcher, registry *Registry, opts HubOptions, logger *slog.Logger) *WebSocketHub {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = 1024
	}
	if opts.WriteBufferSize <= 0 {
		opts.WriteBufferSize = 1024
	}

	return &WebSocketHub{
		dispatcher: dispatcher,
		registry:   registry,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// 在生產環境應該檢查來源
				return true
			},
			ReadBufferSize:  opts.ReadBufferSize,
			WriteBufferSize: opts.WriteBufferSize,
		},
		maxMessageSize: int64(opts.MaxMessageSize),
		sendBuffer:     opts.SendBuffer,
	}
}

// ServeWS 處理 WebSocket 連接
func (hub *WebSocketHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("升級 WebSocket 失敗", "error", err)
		return
	}

	t := newWSTransport(conn, hub.sendBuffer)
	c := hub.dispatcher.Connect(t)

	go t.writePump(hub.logger)
	go hub.readPump(c, t)
}

// readPump 讀取客戶端消息
//
// pong 只重置 liveness 旗標，是否驅逐由 Monitor 決定，因此不設讀取期限。
func (hub *WebSocketHub) readPump(c *Connection, t *wsTransport) {
	defer func() {
		t.Close()
		hub.dispatcher.Handle(c, Event{Kind: EventClose})
	}()

	t.conn.SetReadLimit(hub.maxMessageSize)
	t.conn.SetPongHandler(func(string) error {
		hub.dispatcher.Handle(c, Event{Kind: EventPong})
		return nil
	})

	for {
		messageType, message, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				hub.logger.Warn("WebSocket 讀取錯誤", "error", err, "conn_id", c.ID)
			}
			return
		}

		if messageType == websocket.TextMessage {
			hub.dispatcher.Handle(c, Event{Kind: EventMessage, Data: message})
		}
	}
}

// Stop 關閉所有連接
func (hub *WebSocketHub) Stop() {
	conns := hub.registry.Snapshot()
	for _, c := range conns {
		c.Terminate()
		hub.dispatcher.Handle(c, Event{Kind: EventClose})
	}
	hub.logger.Info("WebSocket Hub 已停止", "closed", len(conns))
}

// wsTransport 以 gorilla/websocket 實作 Transport
type wsTransport struct {
	conn      *websocket.Conn
	send      chan []byte
	ping      chan struct{}
	done      chan struct{}
	open      atomic.Bool
	closeOnce sync.Once
}

func newWSTransport(conn *websocket.Conn, sendBuffer int) *wsTransport {
	t := &wsTransport{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		ping: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	t.open.Store(true)
	return t
}

// Write 放入發送佇列；佇列滿時回傳 ErrSendBufferFull
func (t *wsTransport) Write(data []byte) error {
	if !t.open.Load() {
		return ErrTransportClosed
	}
	select {
	case t.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Ping 請求 writePump 送出 ping；已有待送的 ping 時合併
func (t *wsTransport) Ping() error {
	if !t.open.Load() {
		return ErrTransportClosed
	}
	select {
	case t.ping <- struct{}{}:
	default:
	}
	return nil
}

// Close 關閉連接（可重複呼叫）
func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.open.Store(false)
		close(t.done)
		err = t.conn.Close()
	})
	return err
}

// IsOpen 連接是否仍開啟
func (t *wsTransport) IsOpen() bool {
	return t.open.Load()
}

// writePump 寫入消息到客戶端
func (t *wsTransport) writePump(logger *slog.Logger) {
	defer t.Close()

	for {
		select {
		case message := <-t.send:
			if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := t.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("發送消息失敗", "error", err)
				return
			}

		case <-t.ping:
			if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-t.done:
			return
		}
	}
}
