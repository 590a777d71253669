package backend

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RouteMemo remembers which fallback candidate answered for an operation so
// later calls skip routes that are known to 404.
type RouteMemo interface {
	Get(ctx context.Context, op string) (int, bool)
	Set(ctx context.Context, op string, index int)
}

// MemoryMemo is a process local RouteMemo.
type MemoryMemo struct {
	mu     sync.RWMutex
	routes map[string]int
}

// NewMemoryMemo constructs an empty MemoryMemo.
func NewMemoryMemo() *MemoryMemo {
	return &MemoryMemo{routes: make(map[string]int)}
}

// Get returns the remembered candidate index.
func (m *MemoryMemo) Get(_ context.Context, op string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.routes[op]
	return idx, ok
}

// Set remembers the candidate index.
func (m *MemoryMemo) Set(_ context.Context, op string, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[op] = index
}

// RedisMemo shares remembered routes between dashboard instances.
type RedisMemo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMemo constructs a RedisMemo whose entries expire after ttl.
func NewRedisMemo(client *redis.Client, ttl time.Duration) *RedisMemo {
	return &RedisMemo{client: client, ttl: ttl}
}

// Get returns the remembered candidate index. Redis errors count as a miss.
func (m *RedisMemo) Get(ctx context.Context, op string) (int, bool) {
	idx, err := m.client.Get(ctx, m.key(op)).Int()
	if err != nil {
		return 0, false
	}
	return idx, true
}

// Set remembers the candidate index; failures are ignored.
func (m *RedisMemo) Set(ctx context.Context, op string, index int) {
	_ = m.client.Set(ctx, m.key(op), index, m.ttl).Err()
}

func (m *RedisMemo) key(op string) string {
	return "impact:backend:route:" + op
}
