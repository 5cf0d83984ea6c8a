package internal

import (
	"encoding/json"
	"errors"
	"log/slog"
)

// Broadcast 廣播訊息給房間成員
//
// 訊息只序列化一次。跳過 exclude（可為 nil）與已關閉的連接；
// 0 或 1 名成員時只是空轉。
func Broadcast(players []*Connection, msg any, exclude *Connection, logger *slog.Logger) {
	if len(players) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("序列化廣播訊息失敗", "error", err)
		return
	}

	for _, c := range players {
		if c == exclude || !c.IsOpen() {
			continue
		}
		if err := c.write(data); err != nil && !errors.Is(err, ErrTransportClosed) {
			logger.Warn("廣播失敗", "conn_id", c.ID, "error", err)
		}
	}
}
