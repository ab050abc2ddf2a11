package idempotency

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Idempotency for single-instance deployments and tests.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	state   State
	expires time.Time
}

func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}

	return &Memory{now: now, entries: make(map[string]memoryEntry)}
}

func (m *Memory) Acquire(_ context.Context, key string, lockDuration time.Duration) (State, error) {
	if lockDuration < time.Millisecond {
		return StateError, ErrInvalidDuration
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.entries[key]; ok && now.Before(e.expires) {
		return e.state, nil
	}

	m.entries[key] = memoryEntry{state: StateInProgress, expires: now.Add(lockDuration)}

	return StateNone, nil
}

func (m *Memory) MarkCompleted(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{state: StateCompleted, expires: m.now().Add(ttl)}

	return nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)

	return nil
}
