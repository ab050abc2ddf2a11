package messaging

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Noop accepts every message and drops it.
type Noop struct{}

// Close implements io.Closer.
func (Noop) Close() error { return nil }

// Publish implements Publisher.
func (Noop) Publish(ctx context.Context, destination string, _ OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Memory records published messages per destination.
type Memory struct {
	mu     sync.RWMutex
	topics map[string][]OutgoingMessage
	closed bool
}

// NewMemory returns an empty in-process publisher.
func NewMemory() *Memory {
	return &Memory{topics: map[string][]OutgoingMessage{}}
}

// Close marks the publisher as closed. Recorded messages stay readable.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Publish stores a copy of msg under destination.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return PublishResult{}, ErrClosed
	}

	msg.Body = slices.Clone(msg.Body)
	msg.Key = slices.Clone(msg.Key)
	msg.Headers = slices.Clone(msg.Headers)
	m.topics[destination] = append(m.topics[destination], msg)

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Messages returns the messages published to destination, oldest first.
func (m *Memory) Messages(destination string) []OutgoingMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.topics[destination])
}
