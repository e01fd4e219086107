package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/careerconsult/internal/model"
)

// mockMfaService はMfaServiceInterfaceのモック実装。
// 成功時はセッションのログイン段階をFinishに進める。
type mockMfaService struct {
	passCodeFn     func(ctx context.Context, sess *model.Session, passCode string, now time.Time) error
	recoveryCodeFn func(ctx context.Context, sess *model.Session, recoveryCode string, now time.Time) error
}

func (m *mockMfaService) PassCode(ctx context.Context, sess *model.Session, passCode string, now time.Time) error {
	if m.passCodeFn != nil {
		return m.passCodeFn(ctx, sess, passCode, now)
	}
	sess.LoginStatus = model.LoginStatusFinish
	return nil
}

func (m *mockMfaService) RecoveryCode(ctx context.Context, sess *model.Session, recoveryCode string, now time.Time) error {
	if m.recoveryCodeFn != nil {
		return m.recoveryCodeFn(ctx, sess, recoveryCode, now)
	}
	sess.LoginStatus = model.LoginStatusFinish
	return nil
}

func TestMfaPassCode_Success(t *testing.T) {
	var gotCode string
	svc := &mockMfaService{
		passCodeFn: func(ctx context.Context, sess *model.Session, passCode string, now time.Time) error {
			gotCode = passCode
			sess.LoginStatus = model.LoginStatusFinish
			return nil
		},
	}
	h := NewMfaHandler(svc, CookieConfig{})

	req := withSession(jsonRequest(http.MethodPost, "/mfa/pass-code", `{"pass_code":"123456"}`),
		model.AccountKindUser, model.LoginStatusNeedMoreVerification, 3)
	w := httptest.NewRecorder()
	h.PassCode(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if gotCode != "123456" {
		t.Errorf("pass code = %q", gotCode)
	}
	if w.Body.String() != "{\"login_status\":\"Finish\"}\n" {
		t.Errorf("body = %q", w.Body.String())
	}
	if len(w.Result().Cookies()) != 1 {
		t.Error("expected session cookie to be re-issued")
	}
}

func TestMfaRecoveryCode_Mismatch_Returns400(t *testing.T) {
	svc := &mockMfaService{
		recoveryCodeFn: func(ctx context.Context, sess *model.Session, recoveryCode string, now time.Time) error {
			return model.NewRecoveryCodeDoesNotMatchError()
		},
	}
	h := NewMfaHandler(svc, CookieConfig{})

	req := withSession(jsonRequest(http.MethodPost, "/mfa/recovery-code", `{"recovery_code":"abc"}`),
		model.AccountKindAdmin, model.LoginStatusNeedMoreVerification, 1)
	w := httptest.NewRecorder()
	h.RecoveryCode(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if code := parseErrorCode(t, w); code != model.ErrCodeRecoveryCodeDoesNotMatch {
		t.Errorf("code = %d, want %d", code, model.ErrCodeRecoveryCodeDoesNotMatch)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("cookie should not be re-issued on failure")
	}
}

func TestMfa_NoSession_Returns401(t *testing.T) {
	h := NewMfaHandler(&mockMfaService{}, CookieConfig{})

	w := httptest.NewRecorder()
	h.PassCode(w, jsonRequest(http.MethodPost, "/mfa/pass-code", `{"pass_code":"123456"}`))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
