package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"unicode/utf8"
)

// MaxRoomCodeLength 房間代碼最大長度（以字元計）
const MaxRoomCodeLength = 20

// 目錄錯誤
var (
	ErrInvalidRoomCode  = errors.New("無效的房間代碼")
	ErrAlreadyInRoom    = errors.New("連接已在房間中")
	ErrConnectionClosed = errors.New("連接已關閉")
	ErrRoomNotFound     = errors.New("房間不存在")
)

// JoinResult 加入結果
type JoinResult struct {
	Room         *Room
	PlayerNumber int
	Created      bool
}

// Manager 房間目錄
//
// 房間代碼 → 房間的唯一真實來源。首次加入時建立，變空時立即刪除。
// 由 main 明確建立並傳入連接處理層，不使用套件層級的全域變數。
type Manager struct {
	rooms  map[string]*Room
	mu     sync.RWMutex
	decks  *DeckFactory
	hand   []Card
	logger *slog.Logger
}

// NewManager 創建房間目錄
func NewManager(decks *DeckFactory, hand []Card, logger *slog.Logger) *Manager {
	return &Manager{
		rooms:  make(map[string]*Room),
		decks:  decks,
		hand:   append([]Card(nil), hand...),
		logger: logger,
	}
}

// ValidateRoomCode 檢查房間代碼（非空且不超過 20 字元）
func ValidateRoomCode(code string) error {
	if code == "" || utf8.RuneCountInString(code) > MaxRoomCodeLength {
		return fmt.Errorf("%w: %q", ErrInvalidRoomCode, code)
	}
	return nil
}

// JoinRoom 加入房間
//
// 鎖順序：connection → manager → room。
// 與「房間變空被刪除」競爭時，Room.Join 回傳 ErrRoomClosed，此時重新建立房間再試。
func (m *Manager) JoinRoom(code string, c *Connection) (*JoinResult, error) {
	if err := ValidateRoomCode(code); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectionClosed
	}
	if c.room != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInRoom, c.room.Code)
	}

	for {
		room, created := m.getOrCreate(code)

		slot, err := room.Join(c)
		if errors.Is(err, ErrRoomClosed) {
			m.removeRoom(room)
			continue
		}
		if err != nil {
			return nil, err
		}

		c.room = room

		m.logger.Info("玩家加入房間",
			"room", code,
			"conn_id", c.ID,
			"player_number", slot)

		return &JoinResult{Room: room, PlayerNumber: slot, Created: created}, nil
	}
}

// getOrCreate 取得或建立房間
func (m *Manager) getOrCreate(code string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room, exists := m.rooms[code]; exists {
		return room, false
	}

	room := NewRoom(code, m.decks.Build(), m.decks.WinningCard(), m.hand, m.logger)
	m.rooms[code] = room

	m.logger.Info("房間已創建", "room", code)
	return room, true
}

// LeaveRoom 離開目前所在房間並標記連接已關閉
//
// 可重複呼叫；房間變空時立即從目錄刪除。
func (m *Manager) LeaveRoom(c *Connection) {
	room := c.detach()
	if room == nil {
		return
	}

	remaining := room.Leave(c)

	m.logger.Info("玩家離開房間",
		"room", room.Code,
		"conn_id", c.ID,
		"remaining", remaining)

	if remaining == 0 {
		m.removeRoom(room)
	}
}

// Draw 在連接目前所在的房間抽牌
func (m *Manager) Draw(c *Connection) DrawOutcome {
	room := c.Room()
	if room == nil {
		return DrawIgnored
	}
	return room.Draw(c)
}

// removeRoom 移除房間（只在目錄中仍是同一個實例時）
func (m *Manager) removeRoom(room *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.rooms[room.Code]; exists && current == room {
		delete(m.rooms, room.Code)
		m.logger.Info("房間已移除", "room", room.Code)
	}
}

// GetRoom 獲取房間
func (m *Manager) GetRoom(code string) (*Room, error) {
	m.mu.RLock()
	room, exists := m.rooms[code]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	}

	return room, nil
}

// RoomCount 目前房間數
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// ListRooms 列出房間（依代碼排序）
func (m *Manager) ListRooms(status RoomStatus) []map[string]any {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].Code < rooms[j].Code
	})

	result := make([]map[string]any, 0, len(rooms))
	for _, room := range rooms {
		if status != "" && room.Status() != status {
			continue
		}
		result = append(result, map[string]any{
			"room":            room.Code,
			"status":          room.Status(),
			"current_players": room.GetPlayerCount(),
			"max_players":     MaxPlayers,
		})
	}

	return result
}

// Stats 獲取統計資訊
func (m *Manager) Stats() map[string]any {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.RUnlock()

	statusCount := make(map[RoomStatus]int)
	totalPlayers := 0

	for _, room := range rooms {
		statusCount[room.Status()]++
		totalPlayers += room.GetPlayerCount()
	}

	return map[string]any{
		"total_rooms":   len(rooms),
		"total_players": totalPlayers,
		"by_status":     statusCount,
	}
}

// Stop 停止管理器並丟棄所有房間
func (m *Manager) Stop() {
	m.mu.Lock()
	count := len(m.rooms)
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()

	m.logger.Info("房間管理器已停止", "dropped_rooms", count)
}
