package internal

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType 訊息類型
type MessageType string

// 入站訊息
const (
	TypeJoinRoom MessageType = "JOIN_ROOM"
	TypeDraw     MessageType = "DRAW"
)

// 出站訊息
const (
	TypeInitialHand MessageType = "INITIAL_HAND"
	TypeGameStart   MessageType = "GAME_START"
	TypeError       MessageType = "ERROR"
	TypeDrawnCard   MessageType = "DRAWN_CARD"
	TypeNextTurn    MessageType = "NEXT_TURN"
	TypeWinner      MessageType = "WINNER"
	TypeGameOver    MessageType = "GAME_OVER"
)

// 客戶端可見的錯誤訊息
const (
	MsgRoomFull             = "Sala cheia!"
	MsgOpponentDisconnected = "Oponente desconectou"
)

// 解析錯誤
var (
	ErrMalformedMessage = errors.New("訊息格式錯誤")
	ErrMessageTooLarge  = errors.New("訊息超過大小上限")
)

// Inbound 入站訊息
//
// Room 為指標，以區分「欄位缺失」與「空字串」。
type Inbound struct {
	Type MessageType `json:"type"`
	Room *string     `json:"room,omitempty"`
}

// ParseInbound 解析入站訊息
//
// 解析失敗回傳錯誤，由呼叫端決定如何處理（dispatcher 一律丟棄）。
// maxSize <= 0 表示不限制。
func ParseInbound(data []byte, maxSize int) (Inbound, error) {
	if maxSize > 0 && len(data) > maxSize {
		return Inbound{}, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(data))
	}

	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return msg, nil
}

// InitialHandMessage 起始手牌
type InitialHandMessage struct {
	Type         MessageType `json:"type"`
	Cards        []Card      `json:"cards"`
	PlayerNumber int         `json:"playerNumber"`
}

// GameStartMessage 遊戲開始
type GameStartMessage struct {
	Type MessageType `json:"type"`
	Turn int         `json:"turno"`
}

// ErrorMessage 錯誤通知
type ErrorMessage struct {
	Type MessageType `json:"type"`
	Msg  string      `json:"msg"`
}

// DrawnCardMessage 抽到的卡
type DrawnCardMessage struct {
	Type MessageType `json:"type"`
	Card Card        `json:"card"`
}

// NextTurnMessage 換手
type NextTurnMessage struct {
	Type MessageType `json:"type"`
	Turn int         `json:"turno"`
}

// WinnerMessage 抽到勝利卡（只發給抽牌者）
type WinnerMessage struct {
	Type MessageType `json:"type"`
	Card Card        `json:"card"`
}

// GameOverMessage 遊戲結束（發給其他玩家）
type GameOverMessage struct {
	Type   MessageType `json:"type"`
	Winner string      `json:"winner"`
}

func newInitialHand(hand []Card, playerNumber int) InitialHandMessage {
	return InitialHandMessage{Type: TypeInitialHand, Cards: hand, PlayerNumber: playerNumber}
}

func newGameStart(turn int) GameStartMessage {
	return GameStartMessage{Type: TypeGameStart, Turn: turn}
}

func newError(msg string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Msg: msg}
}

func newDrawnCard(card Card) DrawnCardMessage {
	return DrawnCardMessage{Type: TypeDrawnCard, Card: card}
}

func newNextTurn(turn int) NextTurnMessage {
	return NextTurnMessage{Type: TypeNextTurn, Turn: turn}
}

func newWinner(card Card) WinnerMessage {
	return WinnerMessage{Type: TypeWinner, Card: card}
}

// newGameOver slot 為 0-based，訊息中以 1-based 顯示
func newGameOver(slot int) GameOverMessage {
	return GameOverMessage{Type: TypeGameOver, Winner: fmt.Sprintf("Jogador %d", slot+1)}
}
