package internal

import "sync"

// Registry 連接註冊表
type Registry struct {
	conns map[string]*Connection
	mu    sync.RWMutex
}

// NewRegistry 創建連接註冊表
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Register 註冊連接
func (r *Registry) Register(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID] = c
}

// Unregister 取消註冊連接
func (r *Registry) Unregister(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, exists := r.conns[c.ID]; exists && current == c {
		delete(r.conns, c.ID)
	}
}

// Get 依 ID 查詢連接
func (r *Registry) Get(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// Snapshot 所有連接的快照，呼叫端可在不持鎖的情況下遍歷
func (r *Registry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		result = append(result, c)
	}
	return result
}

// Len 連接數
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
