package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/careerconsult/internal/model"
	"github.com/hitoshi/careerconsult/internal/repository/memrepo"
)

// --- モック定義 ---

type mockSessionGateway struct {
	createFn  func(ctx context.Context, accountID int64, kind model.AccountKind, status model.LoginStatus, ttl time.Duration) (*model.Session, error)
	destroyFn func(ctx context.Context, sessionID string) error
}

func (m *mockSessionGateway) Create(ctx context.Context, accountID int64, kind model.AccountKind, status model.LoginStatus, ttl time.Duration) (*model.Session, error) {
	if m.createFn != nil {
		return m.createFn(ctx, accountID, kind, status, ttl)
	}
	return &model.Session{SessionID: "sess-1", AccountID: accountID, Kind: kind, LoginStatus: status}, nil
}

func (m *mockSessionGateway) Destroy(ctx context.Context, sessionID string) error {
	if m.destroyFn != nil {
		return m.destroyFn(ctx, sessionID)
	}
	return nil
}

// --- テストヘルパー ---

const (
	testEmail    = "user@example.com"
	testPassword = "correct horse battery staple"
)

var testNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

var testConfig = ServiceConfig{SessionTTL: time.Hour, LoginSessionTTL: 10 * time.Minute}

func putAccount(t *testing.T, store *memrepo.Store, kind model.AccountKind, mfaEnabled, disabled bool) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	a := model.Account{AccountID: 1, Kind: kind, Email: testEmail, HashedPassword: hashed}
	ts := testNow.Add(-time.Hour)
	if mfaEnabled {
		a.MfaEnabledAt = &ts
	}
	if disabled {
		a.DisabledAt = &ts
	}
	store.PutAccount(a)
}

func assertAPIErrorCode(t *testing.T, err error, code int) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("expected code %d, got %d", code, apiErr.Code)
	}
}

// --- Login ---

func TestLogin_WithoutMfa_FinishesLogin(t *testing.T) {
	store := memrepo.New()
	putAccount(t, store, model.AccountKindUser, false, false)

	var gotTTL time.Duration
	sessions := &mockSessionGateway{
		createFn: func(_ context.Context, accountID int64, kind model.AccountKind, status model.LoginStatus, ttl time.Duration) (*model.Session, error) {
			gotTTL = ttl
			return &model.Session{SessionID: "sess-1", AccountID: accountID, Kind: kind, LoginStatus: status}, nil
		},
	}
	svc := NewService(model.AccountKindUser, store.Accounts(model.AccountKindUser), sessions, testConfig)

	sess, err := svc.Login(context.Background(), testEmail, testPassword, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.LoginStatus != model.LoginStatusFinish {
		t.Errorf("expected status %q, got %q", model.LoginStatusFinish, sess.LoginStatus)
	}
	if gotTTL != time.Hour {
		t.Errorf("expected ttl 1h, got %v", gotTTL)
	}
	account, _ := store.Account(model.AccountKindUser, 1)
	if !account.LastLoginTime.Equal(testNow) {
		t.Errorf("expected last login time to be updated, got %v", account.LastLoginTime)
	}
}

func TestLogin_WithMfa_NeedsMoreVerification(t *testing.T) {
	store := memrepo.New()
	putAccount(t, store, model.AccountKindAdmin, true, false)

	var gotTTL time.Duration
	sessions := &mockSessionGateway{
		createFn: func(_ context.Context, accountID int64, kind model.AccountKind, status model.LoginStatus, ttl time.Duration) (*model.Session, error) {
			gotTTL = ttl
			return &model.Session{SessionID: "sess-1", AccountID: accountID, Kind: kind, LoginStatus: status}, nil
		},
	}
	svc := NewService(model.AccountKindAdmin, store.Accounts(model.AccountKindAdmin), sessions, testConfig)

	sess, err := svc.Login(context.Background(), testEmail, testPassword, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.LoginStatus != model.LoginStatusNeedMoreVerification {
		t.Errorf("expected status %q, got %q", model.LoginStatusNeedMoreVerification, sess.LoginStatus)
	}
	if sess.Kind != model.AccountKindAdmin {
		t.Errorf("expected kind admin, got %q", sess.Kind)
	}
	if gotTTL != 10*time.Minute {
		t.Errorf("expected ttl 10m, got %v", gotTTL)
	}
	account, _ := store.Account(model.AccountKindAdmin, 1)
	if !account.LastLoginTime.IsZero() {
		t.Error("expected last login time not to be updated before mfa")
	}
}

func TestLogin_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		disabled bool
		wantCode int
	}{
		{name: "パスワード誤り", email: testEmail, password: "wrong", wantCode: model.ErrCodeEmailOrPasswordIncorrect},
		{name: "未登録のメールアドレス", email: "nobody@example.com", password: testPassword, wantCode: model.ErrCodeEmailOrPasswordIncorrect},
		{name: "無効化済み", email: testEmail, password: testPassword, disabled: true, wantCode: model.ErrCodeAccountDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memrepo.New()
			putAccount(t, store, model.AccountKindUser, false, tt.disabled)
			created := false
			sessions := &mockSessionGateway{
				createFn: func(context.Context, int64, model.AccountKind, model.LoginStatus, time.Duration) (*model.Session, error) {
					created = true
					return nil, nil
				},
			}
			svc := NewService(model.AccountKindUser, store.Accounts(model.AccountKindUser), sessions, testConfig)

			_, err := svc.Login(context.Background(), tt.email, tt.password, testNow)
			assertAPIErrorCode(t, err, tt.wantCode)
			if created {
				t.Error("expected no session to be created")
			}
		})
	}
}

func TestLogin_SessionError(t *testing.T) {
	store := memrepo.New()
	putAccount(t, store, model.AccountKindUser, false, false)
	sessions := &mockSessionGateway{
		createFn: func(context.Context, int64, model.AccountKind, model.LoginStatus, time.Duration) (*model.Session, error) {
			return nil, errors.New("redis down")
		},
	}
	svc := NewService(model.AccountKindUser, store.Accounts(model.AccountKindUser), sessions, testConfig)

	_, err := svc.Login(context.Background(), testEmail, testPassword, testNow)
	var apiErr *model.APIError
	if err == nil || errors.As(err, &apiErr) {
		t.Fatalf("expected unexpected error, got %v", err)
	}
}

// --- Logout ---

func TestLogout_DestroysSession(t *testing.T) {
	var destroyed string
	sessions := &mockSessionGateway{
		destroyFn: func(_ context.Context, sessionID string) error {
			destroyed = sessionID
			return nil
		},
	}
	svc := NewService(model.AccountKindUser, memrepo.New().Accounts(model.AccountKindUser), sessions, testConfig)

	if err := svc.Logout(context.Background(), "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if destroyed != "sess-1" {
		t.Errorf("expected sess-1 to be destroyed, got %q", destroyed)
	}
}

func TestLogout_EmptySessionID_ReturnsError(t *testing.T) {
	svc := NewService(model.AccountKindUser, memrepo.New().Accounts(model.AccountKindUser), &mockSessionGateway{}, testConfig)

	if err := svc.Logout(context.Background(), ""); err == nil {
		t.Error("expected error for empty session ID")
	}
}
