// Package idempotency tracks in-flight and completed operations by key so a
// burst of identical requests runs the expensive path once.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidDuration = errors.New("lock duration must be at least a millisecond")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

func (s State) String() string {
	return string(s)
}

func parseState(v string) (State, error) {
	switch State(v) {
	case StateInProgress, StateCompleted:
		return State(v), nil
	default:
		return StateError, ErrInvalidState
	}
}

// Idempotency guards one operation per key. Acquire returning StateNone
// hands the caller the key until it calls MarkCompleted or Release.
type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// acquireScript claims KEYS[1] for ARGV[2] milliseconds, or returns the state
// already stored there. An empty reply means the caller owns the key.
var acquireScript = redis.NewScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2]) then
	return ""
end
return redis.call("GET", KEYS[1])
`)

// StateTracker keeps states in Redis so every instance sees the same guard.
type StateTracker struct {
	client redis.Cmdable
	prefix string
}

// New builds a tracker on any go-redis client (single node, ring or cluster).
func New(client redis.Cmdable) *StateTracker {
	return &StateTracker{client: client, prefix: "idempotency:"}
}

func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	if lockDuration < time.Millisecond {
		return StateError, ErrInvalidDuration
	}

	reply, err := acquireScript.Run(ctx, s.client, []string{s.prefix + key},
		StateInProgress.String(), lockDuration.Milliseconds()).Text()
	if err != nil {
		return StateError, err
	}
	if reply == "" {
		return StateNone, nil
	}

	return parseState(reply)
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, StateCompleted.String(), ttl).Err()
}

func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
