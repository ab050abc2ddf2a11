package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/jwt"
)

func loginTokens(t *testing.T, f *fixture) *LoginOutput {
	t.Helper()

	f.seedUser(t, 7, "a@x.com", "secret1")
	out, err := f.uc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() err = %v", err)
	}

	return out
}

func TestUsecase_RefreshToken_Rotation(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newFixture(t)
	login := loginTokens(t, f)

	// Act
	out, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: login.RefreshToken})

	// Assert
	if err != nil {
		t.Fatalf("RefreshToken() err = %v", err)
	}
	if out.RefreshToken == login.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if _, err := f.codec.Verify(out.AccessToken, jwt.ClassAccess); err != nil {
		t.Fatalf("new access token err = %v", err)
	}

	_, err = f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: login.RefreshToken})
	assertBusiness(t, err, entity.ErrInvalidOrExpiredRefreshToken, goerror.CodeForbidden)

	if _, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: out.RefreshToken}); err != nil {
		t.Fatalf("RefreshToken() with rotated token err = %v", err)
	}
}

func TestUsecase_RefreshToken_Expired(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newFixture(t)
	login := loginTokens(t, f)
	f.clock.Advance(jwt.DefaultRefreshTTL + time.Minute)

	// Act
	_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: login.RefreshToken})

	// Assert
	assertBusiness(t, err, entity.ErrInvalidOrExpiredRefreshToken, goerror.CodeForbidden)

	u, _ := f.store.GetUserByID(context.Background(), 7)
	if u.HasSession() {
		t.Fatal("expired refresh token must clear the stored session")
	}

	if err := f.gm.Wait(); err != nil {
		t.Fatalf("Wait() err = %v", err)
	}
	if len(f.events.revoked) != 1 || f.events.revoked[0].Reason != revokeReasonInvalidToken {
		t.Fatalf("revoked events = %+v", f.events.revoked)
	}
}

func TestUsecase_RefreshToken_SubjectMismatch(t *testing.T) {
	t.Parallel()

	// Arrange: a genuine refresh token for user 8 planted as user 7's digest
	f := newFixture(t)
	loginTokens(t, f)
	foreign, err := f.codec.IssueRefresh(8, "b@x.com")
	if err != nil {
		t.Fatalf("IssueRefresh() err = %v", err)
	}
	digest, _ := f.uc.hmac.Hash(foreign)
	if err := f.store.SetRefreshToken(context.Background(), 7, string(digest)); err != nil {
		t.Fatalf("SetRefreshToken() err = %v", err)
	}

	// Act
	_, err = f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: foreign})

	// Assert
	assertBusiness(t, err, entity.ErrInvalidOrExpiredRefreshToken, goerror.CodeForbidden)
	u, _ := f.store.GetUserByID(context.Background(), 7)
	if u.HasSession() {
		t.Fatal("mismatched subject must clear the stored session")
	}
}

func TestUsecase_RefreshToken_AccessTokenRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	login := loginTokens(t, f)
	digest, _ := f.uc.hmac.Hash(login.AccessToken)
	if err := f.store.SetRefreshToken(context.Background(), 7, string(digest)); err != nil {
		t.Fatalf("SetRefreshToken() err = %v", err)
	}

	_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: login.AccessToken})

	assertBusiness(t, err, entity.ErrInvalidOrExpiredRefreshToken, goerror.CodeForbidden)
}

func TestUsecase_RefreshToken_Unknown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "garbage"})

	assertBusiness(t, err, entity.ErrInvalidOrExpiredRefreshToken, goerror.CodeForbidden)
}

func TestUsecase_RefreshToken_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newFixture(t)
	login := loginTokens(t, f)

	const n = 16
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		mu      sync.Mutex
		winners []string
		losers  int
	)

	// Act
	for range n {
		wg.Go(func() {
			<-start
			out, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: login.RefreshToken})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				losers++
				return
			}
			winners = append(winners, out.RefreshToken)
		})
	}
	close(start)
	wg.Wait()

	// Assert
	if len(winners) != 1 || losers != n-1 {
		t.Fatalf("winners = %d, losers = %d", len(winners), losers)
	}

	u, _ := f.store.GetUserByID(context.Background(), 7)
	if !f.uc.hmac.Verify(u.RefreshTokenHash, winners[0]) {
		t.Fatal("stored digest does not belong to the winning token")
	}
}
