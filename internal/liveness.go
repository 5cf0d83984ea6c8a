package internal

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultLivenessInterval 預設掃描週期
const DefaultLivenessInterval = 30 * time.Second

// Monitor 連接活性監控
//
// 每個週期對所有連接：旗標為 false 就驅逐，否則清除旗標並送出 ping。
// 沒有回應 pong 的連接會在下一個週期被驅逐，最壞偵測延遲約兩個週期。
// ping 只是放進佇列，某個連接卡住不會拖慢其他連接的掃描。
type Monitor struct {
	registry *Registry
	interval time.Duration
	evict    func(*Connection)
	logger   *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMonitor 創建活性監控
func NewMonitor(registry *Registry, interval time.Duration, evict func(*Connection), logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultLivenessInterval
	}
	return &Monitor{
		registry: registry,
		interval: interval,
		evict:    evict,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start 啟動掃描 goroutine
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.loop()
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stopCh:
			return
		}
	}
}

// Sweep 執行一次掃描（公開方法供測試使用），回傳被驅逐的連接數
func (m *Monitor) Sweep() int {
	evicted := 0
	for _, c := range m.registry.Snapshot() {
		if c.probe() {
			continue
		}
		m.evict(c)
		evicted++
	}

	if evicted > 0 {
		m.logger.Info("活性掃描完成", "evicted", evicted, "connections", m.registry.Len())
	}
	return evicted
}

// Stop 停止監控
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	m.wg.Wait()
}
