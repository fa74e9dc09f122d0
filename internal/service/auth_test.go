package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/obelenko/lurelab/internal/lockout"
	"github.com/obelenko/lurelab/internal/models"
	"github.com/obelenko/lurelab/internal/password"
	"github.com/obelenko/lurelab/internal/repository"
	"github.com/obelenko/lurelab/internal/token"
)

type mockUsers struct {
	GetByEmailFunc        func(ctx context.Context, email string) (*models.User, error)
	GetByIDFunc           func(ctx context.Context, id string) (*models.User, error)
	CreateFunc            func(ctx context.Context, u *models.User) error
	UpdateCredentialsFunc func(ctx context.Context, id, hash string) error
	UpdateLockStateFunc   func(ctx context.Context, u *models.User) error
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetByEmailFunc(ctx, email)
}
func (m *mockUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockUsers) Create(ctx context.Context, u *models.User) error {
	return m.CreateFunc(ctx, u)
}
func (m *mockUsers) UpdateCredentials(ctx context.Context, id, hash string) error {
	return m.UpdateCredentialsFunc(ctx, id, hash)
}
func (m *mockUsers) UpdateLockState(ctx context.Context, u *models.User) error {
	return m.UpdateLockStateFunc(ctx, u)
}

type mockResets struct {
	CreateFunc     func(ctx context.Context, t *models.ResetToken) error
	GetByValueFunc func(ctx context.Context, value string) (*models.ResetToken, error)
	MarkUsedFunc   func(ctx context.Context, id string) error
}

func (m *mockResets) Create(ctx context.Context, t *models.ResetToken) error {
	return m.CreateFunc(ctx, t)
}
func (m *mockResets) GetByValue(ctx context.Context, value string) (*models.ResetToken, error) {
	return m.GetByValueFunc(ctx, value)
}
func (m *mockResets) MarkUsed(ctx context.Context, id string) error {
	return m.MarkUsedFunc(ctx, id)
}

type mockMailer struct {
	SendFunc func(ctx context.Context, to, resetURL string) error
	sent     []string
}

func (m *mockMailer) Send(ctx context.Context, to, resetURL string) error {
	m.sent = append(m.sent, resetURL)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, resetURL)
	}
	return nil
}

// newTestService wires an AuthService with in-place mocks. The provided
// users mock gets no-op persistence funcs when unset.
func newTestService(t *testing.T, users *mockUsers, resets *mockResets, mailer *mockMailer) *AuthService {
	t.Helper()
	if users.UpdateLockStateFunc == nil {
		users.UpdateLockStateFunc = func(context.Context, *models.User) error { return nil }
	}
	if users.UpdateCredentialsFunc == nil {
		users.UpdateCredentialsFunc = func(context.Context, string, string) error { return nil }
	}
	if resets == nil {
		resets = &mockResets{}
	}
	if mailer == nil {
		mailer = &mockMailer{}
	}
	svc, err := NewAuthService(
		users, resets, mailer,
		lockout.New(lockout.DefaultConfig()),
		token.NewManager([]byte("test-secret")),
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("NewAuthService returned error: %v", err)
	}
	return svc
}

func hashFor(t *testing.T, secret string) string {
	t.Helper()
	h, err := password.Hash(secret)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return h
}

func TestLogin_UnknownEmail(t *testing.T) {
	users := &mockUsers{
		GetByEmailFunc: func(context.Context, string) (*models.User, error) {
			return nil, nil
		},
	}
	svc := newTestService(t, users, nil, nil)

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login error = %v; want ErrInvalidCredentials", err)
	}
}

func TestLogin_WrongPassword_ReportsRemaining(t *testing.T) {
	u := &models.User{ID: "u1", Email: "a@b.c", PasswordHash: hashFor(t, "right password 1")}
	var persisted bool
	users := &mockUsers{
		GetByEmailFunc: func(context.Context, string) (*models.User, error) { return u, nil },
		UpdateLockStateFunc: func(ctx context.Context, got *models.User) error {
			persisted = true
			return nil
		},
	}
	svc := newTestService(t, users, nil, nil)

	_, _, err := svc.Login(context.Background(), u.Email, "wrong password 1")
	var attempts *AttemptsRemainingError
	if !errors.As(err, &attempts) {
		t.Fatalf("Login error = %v; want AttemptsRemainingError", err)
	}
	if attempts.Remaining != 9 {
		t.Errorf("Remaining = %d; want 9", attempts.Remaining)
	}
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Error("AttemptsRemainingError does not match ErrInvalidCredentials")
	}
	if !persisted {
		t.Error("failure was not persisted")
	}
	if u.FailedAttempts != 1 || u.LastFailedAt == nil {
		t.Errorf("failure state = %+v; want one stamped failure", u)
	}
}

func TestLogin_TenthFailureLocks(t *testing.T) {
	u := &models.User{ID: "u1", Email: "a@b.c", PasswordHash: hashFor(t, "right password 1"), FailedAttempts: 9}
	failedAt := time.Now()
	u.LastFailedAt = &failedAt
	users := &mockUsers{
		GetByEmailFunc: func(context.Context, string) (*models.User, error) { return u, nil },
	}
	svc := newTestService(t, users, nil, nil)

	_, _, err := svc.Login(context.Background(), u.Email, "wrong password 1")
	var locked *LockedError
	if !errors.As(err, &locked) {
		t.Fatalf("Login error = %v; want LockedError", err)
	}
	if !locked.LockedNow {
		t.Error("LockedNow = false on the failure that locked the account")
	}
	if !errors.Is(err, ErrAccountLocked) {
		t.Error("LockedError does not match ErrAccountLocked")
	}
	if !u.Locked || u.LockedUntil == nil {
		t.Errorf("user not locked: %+v", u)
	}
}

func TestLogin_BlockedWhileLocked(t *testing.T) {
	until := time.Now().Add(20 * time.Minute)
	u := &models.User{ID: "u1", Email: "a@b.c", PasswordHash: hashFor(t, "right password 1"),
		FailedAttempts: 10, Locked: true, LockedUntil: &until}
	users := &mockUsers{
		GetByEmailFunc: func(context.Context, string) (*models.User, error) { return u, nil },
	}
	svc := newTestService(t, users, nil, nil)

	// Even the correct password is rejected while locked.
	_, _, err := svc.Login(context.Background(), u.Email, "right password 1")
	var locked *LockedError
	if !errors.As(err, &locked) {
		t.Fatalf("Login error = %v; want LockedError", err)
	}
	if locked.LockedNow {
		t.Error("LockedNow = true for a pre-existing lock")
	}
}

func TestLogin_ExpiredLockIsFreshAttempt(t *testing.T) {
	hash := hashFor(t, "right password 1")
	until := time.Now().Add(-time.Minute)
	failedAt := time.Now().Add(-31 * time.Minute)
	u := &models.User{ID: "u1", Email: "a@b.c", PasswordHash: hash,
		FailedAttempts: 10, Locked: true, LockedUntil: &until, LastFailedAt: &failedAt}
	persists := 0
	users := &mockUsers{
		GetByEmailFunc: func(context.Context, string) (*models.User, error) { return u, nil },
		UpdateLockStateFunc: func(context.Context, *models.User) error {
			persists++
			return nil
		},
	}
	svc := newTestService(t, users, nil, nil)

	got, session, err := svc.Login(context.Background(), u.Email, "right password 1")
	if err != nil {
		t.Fatalf("Login after lock expiry returned error: %v", err)
	}
	if got.Locked || got.FailedAttempts != 0 {
		t.Errorf("lock state not cleared: %+v", got)
	}
	if session == "" {
		t.Error("no session token issued")
	}
	if persists == 0 {
		t.Error("cleared lock state was not persisted")
	}
}

func TestLogin_SuccessResetsCounters(t *testing.T) {
	hash := hashFor(t, "right password 1")
	failedAt := time.Now()
	u := &models.User{ID: "u1", Email: "a@b.c", PasswordHash: hash,
		FailedAttempts: 4, LastFailedAt: &failedAt}
	persisted := false
	users := &mockUsers{
		GetByEmailFunc: func(context.Context, string) (*models.User, error) { return u, nil },
		UpdateLockStateFunc: func(context.Context, *models.User) error {
			persisted = true
			return nil
		},
	}
	svc := newTestService(t, users, nil, nil)

	got, session, err := svc.Login(context.Background(), u.Email, "right password 1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if got.FailedAttempts != 0 || got.LastFailedAt != nil {
		t.Errorf("counters not reset: %+v", got)
	}
	if !persisted {
		t.Error("reset counters were not persisted")
	}

	// The session token must verify for the session purpose only.
	mgr := token.NewManager([]byte("test-secret"))
	if _, err := mgr.Verify(session, token.PurposeSession); err != nil {
		t.Errorf("session token does not verify: %v", err)
	}
	if _, err := mgr.Verify(session, token.PurposeReset); err == nil {
		t.Error("session token verifies for the reset purpose")
	}
}

func TestRegister_WeakPassword(t *testing.T) {
	users := &mockUsers{
		CreateFunc: func(context.Context, *models.User) error {
			t.Fatal("Create called for a weak password")
			return nil
		},
	}
	svc := newTestService(t, users, nil, nil)

	_, err := svc.Register(context.Background(), "a@b.c", "short")
	if !errors.Is(err, ErrWeakPassword) {
		t.Errorf("Register error = %v; want ErrWeakPassword", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := &mockUsers{
		CreateFunc: func(context.Context, *models.User) error {
			return repository.ErrDuplicateEmail
		},
	}
	svc := newTestService(t, users, nil, nil)

	_, err := svc.Register(context.Background(), "taken@b.c", "good password 1")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register error = %v; want ErrEmailTaken", err)
	}
}

func TestRegister_Success(t *testing.T) {
	var created *models.User
	users := &mockUsers{
		CreateFunc: func(_ context.Context, u *models.User) error {
			created = u
			return nil
		},
	}
	svc := newTestService(t, users, nil, nil)

	u, err := svc.Register(context.Background(), "new@b.c", "good password 1")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if created == nil || created.ID == "" {
		t.Fatal("no user row created")
	}
	if !password.Verify("good password 1", u.PasswordHash) {
		t.Error("stored credential does not verify against the password")
	}
}

func TestChangePassword(t *testing.T) {
	oldHash := hashFor(t, "old password 1")
	u := &models.User{ID: "u1", Email: "a@b.c", PasswordHash: oldHash}
	var newHash string
	users := &mockUsers{
		GetByIDFunc: func(context.Context, string) (*models.User, error) { return u, nil },
		UpdateCredentialsFunc: func(_ context.Context, _, hash string) error {
			newHash = hash
			return nil
		},
	}
	svc := newTestService(t, users, nil, nil)

	// Wrong current password is a generic credentials failure.
	err := svc.ChangePassword(context.Background(), "u1", "not the old one 1", "next password 1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("ChangePassword error = %v; want ErrInvalidCredentials", err)
	}
	if newHash != "" {
		t.Fatal("credentials updated despite wrong current password")
	}

	// Weak replacement is rejected after the current password checks out.
	err = svc.ChangePassword(context.Background(), "u1", "old password 1", "short")
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("ChangePassword error = %v; want ErrWeakPassword", err)
	}

	// Happy path: the new credential verifies, the old one no longer does.
	if err := svc.ChangePassword(context.Background(), "u1", "old password 1", "next password 1"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	if !password.Verify("next password 1", newHash) {
		t.Error("new credential does not verify")
	}
	if password.Verify("old password 1", newHash) {
		t.Error("old password still verifies against the new credential")
	}
}
