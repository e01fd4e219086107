package mfa

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

type mockSessionUpdater struct {
	setLoginStatusFn func(ctx context.Context, sess *model.Session, status model.LoginStatus, ttl time.Duration) error
	calls            int
	lastTTL          time.Duration
}

func (m *mockSessionUpdater) SetLoginStatus(ctx context.Context, sess *model.Session, status model.LoginStatus, ttl time.Duration) error {
	m.calls++
	m.lastTTL = ttl
	if m.setLoginStatusFn != nil {
		return m.setLoginStatusFn(ctx, sess, status, ttl)
	}
	sess.LoginStatus = status
	return nil
}

// --- テストヘルパー ---

const testAccountID int64 = 7

const testRecoveryCode = "0123456789abcdef0123456789abcdef"

var testNow = time.Unix(1234567890, 0).UTC()

type fixture struct {
	store    *memrepo.Store
	auth     *Authenticator
	sessions *mockSessionUpdater
	svc      *Service
}

func newFixture(t *testing.T, kind model.AccountKind) *fixture {
	t.Helper()
	store := memrepo.New()
	auth := NewAuthenticator(kind, store, store.Accounts(kind), store.MfaInfos(kind), nil)
	sessions := &mockSessionUpdater{}

	enabledAt := testNow.Add(-24 * time.Hour)
	store.PutAccount(model.Account{
		AccountID:    testAccountID,
		Kind:         kind,
		Email:        "someone@example.com",
		MfaEnabledAt: &enabledAt,
	})
	hashed, err := bcrypt.GenerateFromPassword([]byte(testRecoveryCode), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash recovery code: %v", err)
	}
	store.PutMfaInfo(kind, model.MfaInfo{
		AccountID:           testAccountID,
		Base32EncodedSecret: EncodeSecret(rfcSecret),
		HashedRecoveryCode:  hashed,
	})

	return &fixture{
		store:    store,
		auth:     auth,
		sessions: sessions,
		svc:      NewService(auth, sessions, time.Hour),
	}
}

func pendingSession(kind model.AccountKind) *model.Session {
	return &model.Session{
		SessionID:   "sess-1",
		AccountID:   testAccountID,
		Kind:        kind,
		LoginStatus: model.LoginStatusNeedMoreVerification,
	}
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

// --- Authenticator ---

func TestVerifyPassCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantCode int
	}{
		{name: "現在のパスコード", code: GeneratePassCode(rfcSecret, testNow)},
		{name: "1つ前のパスコード", code: GeneratePassCode(rfcSecret, testNow.Add(-PassCodePeriod))},
		{name: "2つ前のパスコード", code: GeneratePassCode(rfcSecret, testNow.Add(-2*PassCodePeriod)), wantCode: model.ErrCodePassCodeDoesNotMatch},
		{name: "形式不正", code: "12ab56", wantCode: model.ErrCodeInvalidPassCode},
		{name: "桁数不足", code: "12345", wantCode: model.ErrCodeInvalidPassCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, model.AccountKindUser)
			err := f.auth.VerifyPassCode(context.Background(), testAccountID, testNow, tt.code)
			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			assertAPIErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestVerifyPassCode_MfaNotEnabled(t *testing.T) {
	f := newFixture(t, model.AccountKindUser)
	f.store.PutAccount(model.Account{AccountID: testAccountID, Kind: model.AccountKindUser})

	err := f.auth.VerifyPassCode(context.Background(), testAccountID, testNow, GeneratePassCode(rfcSecret, testNow))
	assertAPIErrorCode(t, err, model.ErrCodeMfaIsNotEnabled)
}

func TestVerifyPassCode_MissingSecretIsUnexpected(t *testing.T) {
	f := newFixture(t, model.AccountKindUser)
	if err := f.store.MfaInfos(model.AccountKindUser).DeleteByAccountID(context.Background(), testAccountID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := f.auth.VerifyPassCode(context.Background(), testAccountID, testNow, GeneratePassCode(rfcSecret, testNow))
	var apiErr *model.APIError
	if err == nil || errors.As(err, &apiErr) {
		t.Fatalf("expected unexpected error, got %v", err)
	}
}

func TestVerifyRecoveryCode_DisablesMfa(t *testing.T) {
	f := newFixture(t, model.AccountKindAdmin)

	if err := f.auth.VerifyRecoveryCode(context.Background(), testAccountID, testRecoveryCode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	account, _ := f.store.Account(model.AccountKindAdmin, testAccountID)
	if account.MfaEnabled() {
		t.Error("expected mfa to be disabled")
	}
	if _, ok := f.store.MfaInfo(model.AccountKindAdmin, testAccountID); ok {
		t.Error("expected mfa info to be deleted")
	}

	// 2回目は二段階認証が無効になっているため使えない
	err := f.auth.VerifyRecoveryCode(context.Background(), testAccountID, testRecoveryCode)
	assertAPIErrorCode(t, err, model.ErrCodeMfaIsNotEnabled)
}

func TestVerifyRecoveryCode_Mismatch(t *testing.T) {
	f := newFixture(t, model.AccountKindUser)

	err := f.auth.VerifyRecoveryCode(context.Background(), testAccountID, "ffffffffffffffffffffffffffffffff")
	assertAPIErrorCode(t, err, model.ErrCodeRecoveryCodeDoesNotMatch)

	account, _ := f.store.Account(model.AccountKindUser, testAccountID)
	if !account.MfaEnabled() {
		t.Error("expected mfa to remain enabled")
	}
}

func TestVerifyRecoveryCode_InvalidFormat(t *testing.T) {
	f := newFixture(t, model.AccountKindUser)

	for _, code := range []string{"", "short", "0123456789abcdef0123456789abcde!"} {
		err := f.auth.VerifyRecoveryCode(context.Background(), testAccountID, code)
		assertAPIErrorCode(t, err, model.ErrCodeInvalidRecoveryCode)
	}
}

func TestVerifyRecoveryCode_ClearFailureRollsBack(t *testing.T) {
	f := newFixture(t, model.AccountKindUser)
	f.store.FailOn("Accounts.ClearMfaEnabled", errors.New("db error"))

	if err := f.auth.VerifyRecoveryCode(context.Background(), testAccountID, testRecoveryCode); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := f.store.MfaInfo(model.AccountKindUser, testAccountID); !ok {
		t.Error("expected mfa info to remain after rollback")
	}
}

func TestDisableMfa(t *testing.T) {
	f := newFixture(t, model.AccountKindUser)

	if err := f.auth.DisableMfa(context.Background(), testAccountID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	account, _ := f.store.Account(model.AccountKindUser, testAccountID)
	if account.MfaEnabled() {
		t.Error("expected mfa to be disabled")
	}

	if err := f.auth.DisableMfa(context.Background(), 999); err == nil {
		t.Error("expected error for missing account")
	}
}

// --- Service ---

func TestService_PassCode_FinishesLogin(t *testing.T) {
	f := newFixture(t, model.AccountKindUser)
	sess := pendingSession(model.AccountKindUser)

	if err := f.svc.PassCode(context.Background(), sess, GeneratePassCode(rfcSecret, testNow), testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.LoginStatus != model.LoginStatusFinish {
		t.Errorf("expected status %q, got %q", model.LoginStatusFinish, sess.LoginStatus)
	}
	if f.sessions.lastTTL != time.Hour {
		t.Errorf("expected ttl 1h, got %v", f.sessions.lastTTL)
	}
	account, _ := f.store.Account(model.AccountKindUser, testAccountID)
	if !account.LastLoginTime.Equal(testNow) {
		t.Errorf("expected last login time %v, got %v", testNow, account.LastLoginTime)
	}
}

func TestService_PassCode_Mismatch(t *testing.T) {
	f := newFixture(t, model.AccountKindUser)
	sess := pendingSession(model.AccountKindUser)

	err := f.svc.PassCode(context.Background(), sess, GeneratePassCode(rfcSecret, testNow.Add(-2*PassCodePeriod)), testNow)
	assertAPIErrorCode(t, err, model.ErrCodePassCodeDoesNotMatch)
	if sess.LoginStatus != model.LoginStatusNeedMoreVerification {
		t.Errorf("expected status to stay %q, got %q", model.LoginStatusNeedMoreVerification, sess.LoginStatus)
	}
	if f.sessions.calls != 0 {
		t.Error("expected session not to be updated")
	}
}

func TestService_AlreadyFinished(t *testing.T) {
	f := newFixture(t, model.AccountKindUser)
	sess := pendingSession(model.AccountKindUser)
	sess.LoginStatus = model.LoginStatusFinish

	err := f.svc.PassCode(context.Background(), sess, GeneratePassCode(rfcSecret, testNow), testNow)
	assertAPIErrorCode(t, err, model.ErrCodeNoNeedToVerify)

	err = f.svc.RecoveryCode(context.Background(), sess, testRecoveryCode, testNow)
	assertAPIErrorCode(t, err, model.ErrCodeNoNeedToVerify)
}

func TestService_WrongAccountKind(t *testing.T) {
	f := newFixture(t, model.AccountKindAdmin)

	err := f.svc.PassCode(context.Background(), pendingSession(model.AccountKindUser), GeneratePassCode(rfcSecret, testNow), testNow)
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}

func TestService_RecoveryCode_FinishesLoginAndDisablesMfa(t *testing.T) {
	f := newFixture(t, model.AccountKindAdmin)
	sess := pendingSession(model.AccountKindAdmin)

	if err := f.svc.RecoveryCode(context.Background(), sess, testRecoveryCode, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.LoginStatus != model.LoginStatusFinish {
		t.Errorf("expected status %q, got %q", model.LoginStatusFinish, sess.LoginStatus)
	}
	account, _ := f.store.Account(model.AccountKindAdmin, testAccountID)
	if account.MfaEnabled() {
		t.Error("expected mfa to be disabled")
	}
}

func TestService_SessionUpdateFailure(t *testing.T) {
	f := newFixture(t, model.AccountKindUser)
	f.sessions.setLoginStatusFn = func(context.Context, *model.Session, model.LoginStatus, time.Duration) error {
		return errors.New("redis down")
	}

	err := f.svc.PassCode(context.Background(), pendingSession(model.AccountKindUser), GeneratePassCode(rfcSecret, testNow), testNow)
	var apiErr *model.APIError
	if err == nil || errors.As(err, &apiErr) {
		t.Fatalf("expected unexpected error, got %v", err)
	}
}
