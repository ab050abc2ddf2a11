package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedis_FixedWindow(t *testing.T) {
	// Arrange
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	lim, err := NewRedis(client, Rule{Limit: 2, Window: 500 * time.Millisecond}, "test:")
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	ctx := context.Background()

	// Act & Assert
	for i := range 2 {
		allowed, _, err := lim.Allow(ctx, "ip", time.Now())
		if err != nil || !allowed {
			t.Fatalf("attempt %d: allowed = %v, err = %v", i+1, allowed, err)
		}
	}

	allowed, retryAfter, err := lim.Allow(ctx, "ip", time.Now())
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Fatalf("third attempt allowed")
	}
	if retryAfter <= 0 || retryAfter > 500*time.Millisecond {
		t.Fatalf("retryAfter = %v", retryAfter)
	}

	if allowed, _, _ := lim.Allow(ctx, "other", time.Now()); !allowed {
		t.Fatalf("independent key limited")
	}
	if !s.Exists("test:ip") {
		t.Fatalf("prefixed key missing")
	}

	s.FastForward(600 * time.Millisecond)
	if allowed, _, err := lim.Allow(ctx, "ip", time.Now()); err != nil || !allowed {
		t.Fatalf("after window: allowed = %v, err = %v", allowed, err)
	}
}

func TestRedis_Unavailable(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	lim, _ := NewRedis(client, Rule{Limit: 1, Window: time.Second}, "")
	s.Close()

	if _, _, err := lim.Allow(context.Background(), "k", time.Now()); err == nil {
		t.Fatalf("Allow() error = nil with redis down")
	}
}

func TestMemory_FixedWindow(t *testing.T) {
	lim, err := NewMemory(Rule{Limit: 3, Window: time.Minute})
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range 3 {
		if allowed, _, _ := lim.Allow(ctx, "k", now.Add(time.Duration(i)*time.Second)); !allowed {
			t.Fatalf("attempt %d limited", i+1)
		}
	}

	allowed, retryAfter, _ := lim.Allow(ctx, "k", now.Add(10*time.Second))
	if allowed {
		t.Fatalf("fourth attempt allowed")
	}
	if retryAfter != 50*time.Second {
		t.Fatalf("retryAfter = %v, want 50s", retryAfter)
	}

	if allowed, _, _ := lim.Allow(ctx, "k", now.Add(time.Minute)); !allowed {
		t.Fatalf("attempt in next window limited")
	}
}

func TestNew_InvalidWindow(t *testing.T) {
	if _, err := NewMemory(Rule{Limit: 1}); err != ErrInvalidWindow {
		t.Fatalf("NewMemory() error = %v", err)
	}
	if _, err := NewRedis(nil, Rule{Limit: 1}, ""); err != ErrInvalidWindow {
		t.Fatalf("NewRedis() error = %v", err)
	}
}
