package internal

import (
	"errors"
	"log/slog"
)

// EventKind 連接事件種類
type EventKind int

const (
	EventMessage EventKind = iota // 收到一則資料訊息
	EventPong                     // 收到 pong
	EventClose                    // 連接關閉（客戶端關閉、讀取錯誤或被驅逐）
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventPong:
		return "pong"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event 連接事件
type Event struct {
	Kind EventKind
	Data []byte
}

// Dispatcher 訊息分派器
//
// 每個連接的所有事件都經過 Handle，狀態轉換集中在 Room 與 Manager，
// 不需要真實傳輸層即可測試。
type Dispatcher struct {
	manager        *Manager
	registry       *Registry
	logger         *slog.Logger
	maxMessageSize int
}

// NewDispatcher 創建訊息分派器
func NewDispatcher(manager *Manager, registry *Registry, maxMessageSize int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		manager:        manager,
		registry:       registry,
		logger:         logger,
		maxMessageSize: maxMessageSize,
	}
}

// Connect 為新的傳輸通道建立並註冊連接記錄
func (d *Dispatcher) Connect(t Transport) *Connection {
	c := NewConnection(t, d.logger)
	d.registry.Register(c)
	d.logger.Info("連接建立", "conn_id", c.ID)
	return c
}

// Handle 處理單一連接事件
func (d *Dispatcher) Handle(c *Connection, ev Event) {
	switch ev.Kind {
	case EventMessage:
		d.handleMessage(c, ev.Data)
	case EventPong:
		c.MarkAlive()
	case EventClose:
		d.handleClose(c)
	default:
		d.logger.Debug("未知事件", "conn_id", c.ID, "kind", ev.Kind)
	}
}

// Evict 強制終止連接，走與客戶端關閉相同的清理流程
func (d *Dispatcher) Evict(c *Connection) {
	d.logger.Info("連接無回應，強制關閉", "conn_id", c.ID)
	c.Terminate()
	d.Handle(c, Event{Kind: EventClose})
}

// handleMessage 解析並路由訊息；任何不合法輸入都靜默丟棄
func (d *Dispatcher) handleMessage(c *Connection, data []byte) {
	msg, err := ParseInbound(data, d.maxMessageSize)
	if err != nil {
		d.logger.Debug("丟棄無法解析的訊息", "conn_id", c.ID, "error", err)
		return
	}

	switch msg.Type {
	case TypeJoinRoom:
		if msg.Room == nil {
			d.logger.Debug("JOIN_ROOM 缺少 room 欄位", "conn_id", c.ID)
			return
		}
		d.handleJoin(c, *msg.Room)
	case TypeDraw:
		outcome := d.manager.Draw(c)
		if outcome == DrawIgnored {
			// 非輪到、非成員的抽牌不回覆客戶端
			d.logger.Debug("忽略抽牌", "conn_id", c.ID)
		}
	default:
		d.logger.Debug("收到未知消息類型", "conn_id", c.ID, "type", msg.Type)
	}
}

// handleJoin 加入房間；只有房滿會回覆錯誤
func (d *Dispatcher) handleJoin(c *Connection, code string) {
	_, err := d.manager.JoinRoom(code, c)
	switch {
	case err == nil:
	case errors.Is(err, ErrRoomFull), errors.Is(err, ErrRoomUnavailable):
		if sendErr := c.Send(newError(MsgRoomFull)); sendErr != nil {
			d.logger.Debug("發送房滿錯誤失敗", "conn_id", c.ID, "error", sendErr)
		}
		d.logger.Info("房間已滿，拒絕加入", "room", code, "conn_id", c.ID)
	default:
		d.logger.Debug("忽略加入請求", "room", code, "conn_id", c.ID, "error", err)
	}
}

// handleClose 清理連接（可重複呼叫）
func (d *Dispatcher) handleClose(c *Connection) {
	c.closeOnce.Do(func() {
		d.manager.LeaveRoom(c)
		d.registry.Unregister(c)
		d.logger.Info("連接關閉", "conn_id", c.ID)
	})
}
