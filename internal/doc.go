// Package internal 實現兩人回合制抽牌對戰的即時房間服務器。
//
// 客戶端透過 WebSocket 連線，以房間代碼加入房間；房間湊滿兩人後開始遊戲，
// 雙方輪流從同一副洗好的牌抽牌，直到有人抽到勝利卡或有玩家斷線。
//
// # 元件
//
//   - DeckFactory：每個房間一副獨立洗牌的牌組，隨機源可注入
//   - Room：waiting → active → finished 狀態機，每房間一把鎖
//   - Manager：房間目錄，首次加入時建立，變空時立即刪除
//   - Connection / Registry：連接記錄與 liveness 旗標
//   - Monitor：固定週期的 ping/驅逐掃描
//   - Dispatcher：每個連接唯一的事件入口（message / pong / close）
//   - WebSocketHub：gorilla/websocket 傳輸層
//   - Handler：唯讀 HTTP 查詢（/health、/stats、/api/v1/rooms）
//
// # 協議
//
// 入站：
//
//	{"type":"JOIN_ROOM","room":"ygo1"}
//	{"type":"DRAW"}
//
// 出站：INITIAL_HAND、GAME_START、ERROR、DRAWN_CARD、NEXT_TURN、WINNER、GAME_OVER。
//
// 任何無法解析、缺欄位、未知類型、房間代碼不合法或非輪到的請求都靜默丟棄，
// 連接保持開啟。
//
// # 使用範例
//
//	decks, _ := internal.NewDeckFactory(internal.DefaultCards, internal.DefaultWinningCard, nil)
//	manager := internal.NewManager(decks, internal.DefaultStarterHand, logger)
//	registry := internal.NewRegistry()
//	dispatcher := internal.NewDispatcher(manager, registry, internal.DefaultMaxMessageSize, logger)
//	hub := internal.NewWebSocketHub(dispatcher, registry, internal.HubOptions{}, logger)
//	monitor := internal.NewMonitor(registry, 30*time.Second, dispatcher.Evict, logger)
//	monitor.Start()
//
//	http.HandleFunc("/ws", hub.ServeWS)
package internal
