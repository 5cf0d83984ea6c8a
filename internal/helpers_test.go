package internal_test

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/koopa0/system-design/14-card-duel/internal"
	"github.com/stretchr/testify/require"
)

// 創建測試用的 logger
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // 測試時只顯示錯誤
	}))
}

// identityShuffler 不洗牌，抽牌順序就是設定順序的反向
type identityShuffler struct{}

func (identityShuffler) Shuffle(int, func(i, j int)) {}

// 測試牌組：依序抽出 c3、WIN、c2、c1
var (
	testWinning = "WIN"
	testCards   = []string{"c1", "c2", testWinning, "c3"}
	testHand    = []string{"h1", "h2", "h3", "h4"}
)

// fakeTransport 記錄所有寫入的 Transport
type fakeTransport struct {
	mu       sync.Mutex
	messages [][]byte
	pings    int
	closed   bool
	full     bool
}

func (f *fakeTransport) Write(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return internal.ErrTransportClosed
	}
	if f.full {
		return internal.ErrSendBufferFull
	}
	f.messages = append(f.messages, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return internal.ErrTransportClosed
	}
	f.pings++
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeTransport) setFull(full bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.full = full
}

func (f *fakeTransport) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

// Messages 解碼所有收到的訊息
func (f *fakeTransport) Messages(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]map[string]any, 0, len(f.messages))
	for _, raw := range f.messages {
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		result = append(result, m)
	}
	return result
}

// Types 收到的訊息類型序列
func (f *fakeTransport) Types(t *testing.T) []string {
	t.Helper()
	var types []string
	for _, m := range f.Messages(t) {
		types = append(types, m["type"].(string))
	}
	return types
}

// Last 最後一則訊息
func (f *fakeTransport) Last(t *testing.T) map[string]any {
	t.Helper()
	msgs := f.Messages(t)
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func (f *fakeTransport) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// Reset 清除已記錄的訊息
func (f *fakeTransport) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = nil
}

// testServer 組裝好的核心元件
type testServer struct {
	manager    *internal.Manager
	registry   *internal.Registry
	dispatcher *internal.Dispatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := testLogger()
	decks, err := internal.NewDeckFactory(testCards, testWinning, identityShuffler{})
	require.NoError(t, err)

	manager := internal.NewManager(decks, testHand, logger)
	registry := internal.NewRegistry()
	dispatcher := internal.NewDispatcher(manager, registry, internal.DefaultMaxMessageSize, logger)

	t.Cleanup(manager.Stop)

	return &testServer{
		manager:    manager,
		registry:   registry,
		dispatcher: dispatcher,
	}
}

// connect 建立一個使用 fakeTransport 的連接
func (s *testServer) connect() (*internal.Connection, *fakeTransport) {
	ft := &fakeTransport{}
	return s.dispatcher.Connect(ft), ft
}

// send 以 JSON 送出一則入站訊息
func (s *testServer) send(t *testing.T, c *internal.Connection, msg any) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	s.dispatcher.Handle(c, internal.Event{Kind: internal.EventMessage, Data: data})
}

func (s *testServer) join(t *testing.T, c *internal.Connection, room string) {
	t.Helper()
	s.send(t, c, map[string]any{"type": "JOIN_ROOM", "room": room})
}

func (s *testServer) draw(t *testing.T, c *internal.Connection) {
	t.Helper()
	s.send(t, c, map[string]any{"type": "DRAW"})
}

func (s *testServer) close(c *internal.Connection) {
	s.dispatcher.Handle(c, internal.Event{Kind: internal.EventClose})
}
