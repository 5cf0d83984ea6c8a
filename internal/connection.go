package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// 傳輸層錯誤
var (
	ErrTransportClosed = errors.New("連接已關閉")
	ErrSendBufferFull  = errors.New("發送緩衝區已滿")
)

// Transport 連接的底層通道
//
// 所有方法都必須是非阻塞的：Write 與 Ping 只把資料放入佇列，
// 實際 I/O 由傳輸層自己的 goroutine 完成。Close 必須可重複呼叫。
type Transport interface {
	Write(data []byte) error
	Ping() error
	Close() error
	IsOpen() bool
}

// Connection 連接記錄
//
// 由傳輸層擁有生命週期；核心只在房間成員期間持有非擁有參考。
type Connection struct {
	ID          string
	ConnectedAt time.Time

	transport Transport
	logger    *slog.Logger
	alive     atomic.Bool

	mu     sync.Mutex // 保護 room 與 closed
	room   *Room
	closed bool

	closeOnce sync.Once
}

// NewConnection 建立連接記錄（liveness 初始為 true）
func NewConnection(t Transport, logger *slog.Logger) *Connection {
	c := &Connection{
		ID:          uuid.NewString(),
		ConnectedAt: time.Now(),
		transport:   t,
		logger:      logger,
	}
	c.alive.Store(true)
	return c
}

// Send 序列化並送出單一訊息
func (c *Connection) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化訊息: %w", err)
	}
	return c.write(data)
}

// write 寫入已序列化的資料
//
// 緩衝區滿代表客戶端消費過慢，直接終止連接，由關閉流程清理房間。
func (c *Connection) write(data []byte) error {
	if !c.transport.IsOpen() {
		return ErrTransportClosed
	}

	err := c.transport.Write(data)
	if errors.Is(err, ErrSendBufferFull) {
		c.logger.Warn("連接緩衝區滿，終止連接", "conn_id", c.ID)
		c.Terminate()
	}
	return err
}

// IsOpen 底層通道是否仍開啟
func (c *Connection) IsOpen() bool {
	return c.transport.IsOpen()
}

// Alive 目前的 liveness 旗標
func (c *Connection) Alive() bool {
	return c.alive.Load()
}

// MarkAlive 收到 pong 時重置 liveness
func (c *Connection) MarkAlive() {
	c.alive.Store(true)
}

// probe 清除旗標並送出探測；旗標原本就是 false 時回傳 false
func (c *Connection) probe() bool {
	if !c.alive.CompareAndSwap(true, false) {
		return false
	}
	if err := c.transport.Ping(); err != nil && !errors.Is(err, ErrTransportClosed) {
		c.logger.Debug("送出 ping 失敗", "conn_id", c.ID, "error", err)
	}
	return true
}

// Terminate 強制關閉底層通道
func (c *Connection) Terminate() {
	if err := c.transport.Close(); err != nil {
		c.logger.Debug("關閉連接失敗", "conn_id", c.ID, "error", err)
	}
}

// Room 目前所在房間（可能為 nil）
func (c *Connection) Room() *Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// detach 標記連接已關閉並取出所在房間
func (c *Connection) detach() *Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	r := c.room
	c.room = nil
	return r
}
