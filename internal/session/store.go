package session

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long an untouched session survives.
const DefaultTTL = 2 * time.Hour

// Store persists State by session id. Get on an unknown id returns New()
// and false.
type Store interface {
	Get(ctx context.Context, id string) (State, bool, error)
	Save(ctx context.Context, id string, s State) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	state    State
	lastSeen time.Time
}

// MemoryStore keeps sessions in process memory. Entries idle for longer
// than the TTL expire on Get and are swept on Save.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]memoryEntry
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions:  make(map[string]memoryEntry),
		ttl:       ttl,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return New(), false, nil
	}
	now := m.now()
	if now.Sub(e.lastSeen) > m.ttl {
		delete(m.sessions, id)
		return New(), false, nil
	}
	e.lastSeen = now
	m.sessions[id] = e
	return e.state, true, nil
}

func (m *MemoryStore) Save(ctx context.Context, id string, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if now.Sub(m.lastSweep) >= m.ttl {
		m.sweep(now)
	}
	m.sessions[id] = memoryEntry{state: s, lastSeen: now}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// sweep drops expired entries. Callers hold mu.
func (m *MemoryStore) sweep(now time.Time) {
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.ttl {
			delete(m.sessions, id)
		}
	}
	m.lastSweep = now
}
