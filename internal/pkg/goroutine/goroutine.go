// Package goroutine runs fire-and-forget work with a concurrency cap,
// panic recovery and a shutdown barrier.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/shandysiswandi/authgate/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// DefaultTaskTimeout bounds a single task when none is configured.
const DefaultTaskTimeout = 10 * time.Second

// ErrRejected is returned by Go when the task was not scheduled.
var ErrRejected = errors.New("goroutine: task rejected")

// Manager runs functions in goroutines with a configurable concurrency limit.
//
// Tasks outlive the request that scheduled them: the context passed to a
// task keeps the caller's values (correlation id, span) but not its
// cancellation, and is bounded by the task timeout instead.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	timeout time.Duration
	stateMu sync.RWMutex
	closed  atomic.Bool
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int, timeout time.Duration) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = DefaultMaxGoroutine
	}
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}

	return &Manager{
		sema:    make(chan struct{}, maxGoroutine),
		timeout: timeout,
	}
}

// Go schedules f. It never blocks: when the manager is closed or full the
// task is dropped, logged and ErrRejected returned.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) error {
	if g == nil {
		return ErrRejected
	}

	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed.Load() {
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping new goroutine")
		return ErrRejected
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(pCtx, "maximum goroutine limit reached, skipping new goroutine", "limit", cap(g.sema))
		return ErrRejected
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(pCtx), g.timeout)
	g.wg.Go(func() {
		defer func() {
			cancel()
			<-g.sema

			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
					slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", paths)
				} else {
					slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", string(stack))
				}
			}
		}()

		if err := f(ctx); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	})

	return nil
}

// Wait stops accepting tasks, blocks until running ones finish and returns
// their joined errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed.Store(true)
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()

	return errors.Join(g.errs...)
}
