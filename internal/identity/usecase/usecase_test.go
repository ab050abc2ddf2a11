package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	potp "github.com/pquerna/otp"
	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/identity/outbound/memory"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/authgate/internal/pkg/hash"
	"github.com/shandysiswandi/authgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/jwt"
	"github.com/shandysiswandi/authgate/internal/pkg/mfa"
	"github.com/shandysiswandi/authgate/internal/pkg/otp"
	"github.com/shandysiswandi/authgate/internal/pkg/uid"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
)

type recordedEvents struct {
	mu         sync.Mutex
	registered []UserRegisteredEvent
	enabled    []TwoFactorEnabledEvent
	revoked    []SessionRevokedEvent
}

func (r *recordedEvents) PublishUserRegistered(_ context.Context, msg UserRegisteredEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered = append(r.registered, msg)
	return nil
}

func (r *recordedEvents) PublishTwoFactorEnabled(_ context.Context, msg TwoFactorEnabledEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = append(r.enabled, msg)
	return nil
}

func (r *recordedEvents) PublishSessionRevoked(_ context.Context, msg SessionRevokedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, msg)
	return nil
}

type fixture struct {
	uc     *Usecase
	dep    Dependency
	store  *memory.Store
	clock  *clock.Manual
	codec  *jwt.Codec
	totp   *otp.TOTP
	events *recordedEvents
	gm     *goroutine.Manager
	idemp  *idempotency.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	return newFixtureWithPassword(t, hash.NewBcrypt(4, ""))
}

func newFixtureWithPassword(t *testing.T, password hash.Password) *fixture {
	t.Helper()

	clk := clock.NewManual(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	store := memory.NewStore(clk)

	codec, err := jwt.NewCodec(jwt.CodecConfig{
		AccessSecret:  []byte(strings.Repeat("a", 64)),
		RefreshSecret: []byte(strings.Repeat("r", 64)),
		Issuer:        "authgate",
		Audiences:     []string{"authgate-api"},
		Clock:         clk,
		UUID:          uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("NewCodec() err = %v", err)
	}

	enc, err := mfa.NewStaticAESGCMEncryptor([]byte(strings.Repeat("k", 32)))
	if err != nil {
		t.Fatalf("NewStaticAESGCMEncryptor() err = %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() err = %v", err)
	}

	sf, err := uid.NewSnowflakeNode(1)
	if err != nil {
		t.Fatalf("NewSnowflakeNode() err = %v", err)
	}

	totp := otp.NewTOTP("authgate", 30, 1, potp.DigitsSix)
	events := &recordedEvents{}
	gm := goroutine.NewManager(8, time.Second)
	idemp := idempotency.NewMemory(clk.Now)

	dep := Dependency{
		RepoDB:        store,
		RepoMessaging: events,
		Validator:     v,
		Password:      password,
		HMAC:          hash.NewHMACSHA256("refresh-digest-secret"),
		Idempotency:   idemp,
		MFAEncryptor:  enc,
		UID:           sf,
		Totp:          totp,
		Clock:         clk,
		Codec:         codec,
		Instrument:    instrument.NewNoop(),
		Goroutine:     gm,
	}

	return &fixture{uc: New(dep), dep: dep, store: store, clock: clk, codec: codec, totp: totp, events: events, gm: gm, idemp: idemp}
}

// register creates a user through the usecase and returns its id.
func (f *fixture) register(t *testing.T, email, password string) int64 {
	t.Helper()

	out, err := f.uc.Register(context.Background(), RegisterInput{
		Email: email, Password: password, FullName: "Alice Example",
	})
	if err != nil {
		t.Fatalf("Register() err = %v", err)
	}

	return out.UserID
}

// enableTwoFactor runs setup and confirm for userID and returns the secret.
// The clock is moved one period forward so the confirm code cannot be replayed.
func (f *fixture) enableTwoFactor(t *testing.T, userID int64, email string) string {
	t.Helper()

	ctx := authCtx(userID, email)
	setup, err := f.uc.TOTPSetup(ctx)
	if err != nil {
		t.Fatalf("TOTPSetup() err = %v", err)
	}

	code, err := f.totp.GenerateCode(setup.Secret, f.clock.Now())
	if err != nil {
		t.Fatalf("GenerateCode() err = %v", err)
	}
	if err := f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: code}); err != nil {
		t.Fatalf("TOTPConfirm() err = %v", err)
	}

	f.clock.Advance(30 * time.Second)
	return setup.Secret
}

func authCtx(userID int64, email string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID, UserEmail: email})
}

func assertBusiness(t *testing.T, err, sentinel error, code goerror.Code) {
	t.Helper()

	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want %v", err, sentinel)
	}

	ge, ok := goerror.As(err)
	if !ok {
		t.Fatalf("err = %T, want *goerror.Error", err)
	}
	if ge.Code() != code {
		t.Fatalf("code = %v, want %v", ge.Code(), code)
	}
}

// seedUser writes a user straight into the store, bypassing signup rules.
func (f *fixture) seedUser(t *testing.T, id int64, email, password string) {
	t.Helper()

	h, err := f.uc.password.Hash(password)
	if err != nil {
		t.Fatalf("Hash() err = %v", err)
	}
	if err := f.store.CreateUser(context.Background(), entity.NewUser{
		ID: id, Email: email, FullName: "Seeded", PasswordHash: string(h),
	}); err != nil {
		t.Fatalf("CreateUser() err = %v", err)
	}
}
