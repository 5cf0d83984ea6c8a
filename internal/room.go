package internal

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// 系統設計問題：
//   兩名玩家共用一副牌，如何在併發連接下保證輪流抽牌？
//
// 核心挑戰：
//   1. 狀態管理：waiting → active → finished
//   2. 並發控制：join / draw / leave 可能同時來自不同連接
//   3. 訊息順序：兩名玩家看到的事件順序必須一致
//
// 設計方案：
//   ✅ 有限狀態機（FSM）
//   ✅ 每個房間一把 Mutex，三個操作完全線性化
//   ✅ 在持鎖期間把訊息放入各連接的發送佇列（非阻塞）

// RoomStatus 房間狀態
//
//	waiting → active → finished
//
// 狀態轉換規則：
//   - waiting → active：第二名玩家加入
//   - active → finished：抽到勝利卡
//   - 玩家離開不會改變狀態，剩下的玩家已無合法動作
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusActive   RoomStatus = "active"
	StatusFinished RoomStatus = "finished"
)

// MaxPlayers 每房間玩家上限
const MaxPlayers = 2

// 房間錯誤
var (
	ErrRoomFull        = errors.New("房間已滿")
	ErrRoomUnavailable = errors.New("房間狀態不允許加入")
	ErrRoomClosed      = errors.New("房間已關閉")
)

// DrawOutcome 抽牌結果
type DrawOutcome int

const (
	DrawIgnored DrawOutcome = iota // 非成員、非輪到、狀態不符或牌組已空
	DrawCardDrawn
	DrawWinner
)

func (o DrawOutcome) String() string {
	switch o {
	case DrawCardDrawn:
		return "drawn"
	case DrawWinner:
		return "winner"
	default:
		return "ignored"
	}
}

// Room 遊戲房間
//
// 玩家切片的索引就是玩家編號（0 或 1）。turn 只有在兩名玩家都在時才有意義。
// 房間變空時標記 closed，Manager 隨即把它從目錄移除。
type Room struct {
	Code      string
	CreatedAt time.Time

	mu      sync.Mutex
	players []*Connection
	deck    *Deck
	turn    int
	status  RoomStatus
	closed  bool

	winning Card
	hand    []Card
	logger  *slog.Logger
}

// NewRoom 創建新房間（waiting、turn 0）
func NewRoom(code string, deck *Deck, winning Card, hand []Card, logger *slog.Logger) *Room {
	return &Room{
		Code:      code,
		CreatedAt: time.Now(),
		players:   make([]*Connection, 0, MaxPlayers),
		deck:      deck,
		status:    StatusWaiting,
		winning:   winning,
		hand:      hand,
		logger:    logger,
	}
}

// Join 加入房間
//
// 成功時回傳玩家編號，並發送 INITIAL_HAND 給加入者；
// 第二名玩家加入時切換為 active 並廣播 GAME_START。
func (r *Room) Join(c *Connection) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrRoomClosed
	}

	// 容量檢查優先，房滿時不論狀態都回報房滿
	if len(r.players) >= MaxPlayers {
		return 0, ErrRoomFull
	}

	if r.status != StatusWaiting {
		return 0, ErrRoomUnavailable
	}

	r.players = append(r.players, c)
	slot := len(r.players) - 1

	if err := c.Send(newInitialHand(r.hand, slot)); err != nil {
		r.logger.Debug("發送起始手牌失敗", "room", r.Code, "conn_id", c.ID, "error", err)
	}

	if len(r.players) == MaxPlayers {
		r.status = StatusActive
		Broadcast(r.players, newGameStart(r.turn), nil, r.logger)
		r.logger.Info("遊戲開始", "room", r.Code)
	}

	return slot, nil
}

// Draw 抽牌
//
// 不合法的抽牌（非成員、非輪到、狀態不符）一律靜默忽略，不回覆任何訊息。
func (r *Room) Draw(c *Connection) DrawOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusActive || len(r.players) != MaxPlayers {
		return DrawIgnored
	}

	slot := r.slotOf(c)
	if slot < 0 || slot != r.turn {
		return DrawIgnored
	}

	card, ok := r.deck.Draw()
	if !ok {
		return DrawIgnored
	}

	if card == r.winning {
		r.status = StatusFinished
		if err := c.Send(newWinner(card)); err != nil {
			r.logger.Debug("發送勝利訊息失敗", "room", r.Code, "conn_id", c.ID, "error", err)
		}
		Broadcast(r.players, newGameOver(slot), c, r.logger)
		r.logger.Info("遊戲結束", "room", r.Code, "winner", slot)
		return DrawWinner
	}

	if err := c.Send(newDrawnCard(card)); err != nil {
		r.logger.Debug("發送抽牌結果失敗", "room", r.Code, "conn_id", c.ID, "error", err)
	}
	r.turn = 1 - r.turn
	Broadcast(r.players, newNextTurn(r.turn), nil, r.logger)

	return DrawCardDrawn
}

// Leave 離開房間
//
// 不論狀態都移除玩家；仍有人時通知對手斷線。回傳剩餘人數。
func (r *Room) Leave(c *Connection) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.slotOf(c)
	if slot < 0 {
		return len(r.players)
	}

	r.players = append(r.players[:slot], r.players[slot+1:]...)

	if len(r.players) == 0 {
		r.closed = true
		return 0
	}

	Broadcast(r.players, newError(MsgOpponentDisconnected), c, r.logger)
	return len(r.players)
}

// slotOf 玩家編號，不在房間時回傳 -1（需持有鎖）
func (r *Room) slotOf(c *Connection) int {
	for i, p := range r.players {
		if p == c {
			return i
		}
	}
	return -1
}

// Status 目前狀態
func (r *Room) Status() RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Turn 目前輪到的玩家編號
func (r *Room) Turn() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turn
}

// DeckSize 剩餘牌數
func (r *Room) DeckSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deck.Len()
}

// GetPlayerCount 獲取玩家數量
func (r *Room) GetPlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Players 成員快照（依玩家編號排序）
func (r *Room) Players() []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Connection(nil), r.players...)
}

// GetState 獲取房間狀態（用於序列化）
func (r *Room) GetState() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make([]string, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p.ID)
	}

	return map[string]any{
		"room":       r.Code,
		"status":     r.status,
		"players":    players,
		"turn":       r.turn,
		"deck_size":  r.deck.Len(),
		"created_at": r.CreatedAt,
	}
}
