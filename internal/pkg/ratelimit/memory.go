package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a fixed-window Limiter local to the process.
type Memory struct {
	mu          sync.Mutex
	rule        Rule
	entries     map[string]*window
	lastCleanup time.Time
}

type window struct {
	count int
	reset time.Time
}

// NewMemory returns a Memory limiter.
func NewMemory(rule Rule) (*Memory, error) {
	if rule.Window <= 0 {
		return nil, ErrInvalidWindow
	}

	return &Memory{rule: rule, entries: make(map[string]*window)}, nil
}

// Allow counts one attempt at now.
func (l *Memory) Allow(_ context.Context, key string, now time.Time) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) >= l.rule.Window {
		for k, w := range l.entries {
			if !now.Before(w.reset) {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	w, ok := l.entries[key]
	if !ok || !now.Before(w.reset) {
		l.entries[key] = &window{count: 1, reset: now.Add(l.rule.Window)}
		return true, 0, nil
	}

	w.count++
	if w.count > l.rule.Limit {
		return false, w.reset.Sub(now), nil
	}

	return true, 0, nil
}
