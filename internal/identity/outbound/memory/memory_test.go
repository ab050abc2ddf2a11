package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
)

func newStoreWithUser(t *testing.T) *Store {
	t.Helper()

	s := NewStore(clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	if err := s.CreateUser(context.Background(), entity.NewUser{
		ID: 1, Email: "a@x.com", FullName: "A", PasswordHash: "hash",
	}); err != nil {
		t.Fatalf("CreateUser() err = %v", err)
	}

	return s
}

func TestStore_CreateUser_Duplicate(t *testing.T) {
	t.Parallel()

	s := newStoreWithUser(t)

	err := s.CreateUser(context.Background(), entity.NewUser{ID: 2, Email: "a@x.com"})
	if !errors.Is(err, goerror.ErrConflict) {
		t.Fatalf("CreateUser() err = %v, want ErrConflict", err)
	}

	if _, err := s.GetUserByEmail(context.Background(), "b@x.com"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("GetUserByEmail() err = %v, want ErrNotFound", err)
	}
}

func TestStore_SwapRefreshToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStoreWithUser(t)

	if err := s.SetRefreshToken(ctx, 1, "d1"); err != nil {
		t.Fatalf("SetRefreshToken() err = %v", err)
	}

	if err := s.SwapRefreshToken(ctx, entity.RefreshTokenSwap{UserID: 1, Expected: "stale", Next: "d2"}); !errors.Is(err, goerror.ErrConflict) {
		t.Fatalf("SwapRefreshToken(stale) err = %v, want ErrConflict", err)
	}

	if err := s.SwapRefreshToken(ctx, entity.RefreshTokenSwap{UserID: 1, Expected: "d1", Next: "d2"}); err != nil {
		t.Fatalf("SwapRefreshToken() err = %v", err)
	}

	u, err := s.GetUserByRefreshToken(ctx, "d2")
	if err != nil || u.ID != 1 {
		t.Fatalf("GetUserByRefreshToken() = %v, %v", u, err)
	}
	if _, err := s.GetUserByRefreshToken(ctx, "d1"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("old digest err = %v, want ErrNotFound", err)
	}

	if err := s.SwapRefreshToken(ctx, entity.RefreshTokenSwap{UserID: 1, Expected: "d2"}); err != nil {
		t.Fatalf("clear err = %v", err)
	}
	if _, err := s.GetUserByRefreshToken(ctx, ""); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("empty digest err = %v, want ErrNotFound", err)
	}
}

func TestStore_SwapRefreshToken_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStoreWithUser(t)
	if err := s.SetRefreshToken(ctx, 1, "d0"); err != nil {
		t.Fatalf("SetRefreshToken() err = %v", err)
	}

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := range n {
		wg.Go(func() {
			err := s.SwapRefreshToken(ctx, entity.RefreshTokenSwap{
				UserID: 1, Expected: "d0", Next: string(rune('a' + i)),
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("wins = %d, want 1", wins)
	}
}

func TestStore_TwoFactor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStoreWithUser(t)

	if err := s.EnableTwoFactor(ctx, 1, nil); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("EnableTwoFactor() without secret err = %v, want ErrNotFound", err)
	}

	sealed := []byte("sealed")
	if err := s.SetTwoFactorSecret(ctx, 1, sealed); err != nil {
		t.Fatalf("SetTwoFactorSecret() err = %v", err)
	}
	sealed[0] = 'X'

	if err := s.EnableTwoFactor(ctx, 1, []byte("other")); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("EnableTwoFactor() with replaced secret err = %v, want ErrNotFound", err)
	}
	if u, _ := s.GetUserByID(ctx, 1); u.TwoFactorEnabled {
		t.Fatal("replaced secret must not enable two factor")
	}

	if err := s.EnableTwoFactor(ctx, 1, []byte("sealed")); err != nil {
		t.Fatalf("EnableTwoFactor() err = %v", err)
	}

	u, err := s.GetUserByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserByID() err = %v", err)
	}
	if !u.TwoFactorEnabled || string(u.TwoFactorSecret) != "sealed" {
		t.Fatalf("user = %+v", u)
	}
}

func TestStore_AdvanceTOTPStep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStoreWithUser(t)

	tests := []struct {
		step int64
		want bool
	}{
		{step: 100, want: true},
		{step: 100, want: false},
		{step: 99, want: false},
		{step: 101, want: true},
	}

	for _, tt := range tests {
		got, err := s.AdvanceTOTPStep(ctx, 1, tt.step)
		if err != nil {
			t.Fatalf("AdvanceTOTPStep(%d) err = %v", tt.step, err)
		}
		if got != tt.want {
			t.Fatalf("AdvanceTOTPStep(%d) = %v, want %v", tt.step, got, tt.want)
		}
	}

	if _, err := s.AdvanceTOTPStep(ctx, 404, 1); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("unknown user err = %v, want ErrNotFound", err)
	}
}
