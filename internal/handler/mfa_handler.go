package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/careerconsult/internal/middleware"
	"github.com/hitoshi/careerconsult/internal/model"
)

// MfaServiceInterface は二段階認証ハンドラーが必要とするサービスインターフェース。
type MfaServiceInterface interface {
	PassCode(ctx context.Context, sess *model.Session, passCode string, now time.Time) error
	RecoveryCode(ctx context.Context, sess *model.Session, recoveryCode string, now time.Time) error
}

// MfaHandler はログイン時の二段階認証のHTTPハンドラー。
// アカウント種別ごとに1つ生成する。
type MfaHandler struct {
	service MfaServiceInterface
	cookie  CookieConfig
	now     func() time.Time
}

// NewMfaHandler はMfaHandlerを生成する。
func NewMfaHandler(service MfaServiceInterface, cookie CookieConfig) *MfaHandler {
	return &MfaHandler{service: service, cookie: cookie, now: time.Now}
}

type passCodeRequest struct {
	PassCode string `json:"pass_code"`
}

type recoveryCodeRequest struct {
	RecoveryCode string `json:"recovery_code"`
}

// PassCode はパスコードを検証してログインを完了する。
// POST /mfa/pass-code, POST /admin/mfa/pass-code
func (h *MfaHandler) PassCode(w http.ResponseWriter, r *http.Request) {
	var body passCodeRequest
	h.verify(w, r, &body, func(ctx context.Context, sess *model.Session) error {
		return h.service.PassCode(ctx, sess, body.PassCode, h.now())
	})
}

// RecoveryCode はリカバリーコードを検証してログインを完了する。成功すると二段階認証は無効になる。
// POST /mfa/recovery-code, POST /admin/mfa/recovery-code
func (h *MfaHandler) RecoveryCode(w http.ResponseWriter, r *http.Request) {
	var body recoveryCodeRequest
	h.verify(w, r, &body, func(ctx context.Context, sess *model.Session) error {
		return h.service.RecoveryCode(ctx, sess, body.RecoveryCode, h.now())
	})
}

func (h *MfaHandler) verify(w http.ResponseWriter, r *http.Request, body any, call func(ctx context.Context, sess *model.Session) error) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}
	if !decodeBody(w, r, body) {
		return
	}

	if err := call(r.Context(), sess); err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.SetSessionCookie(w, sess, h.cookie.Secure, h.cookie.Domain)
	writeJSON(w, http.StatusOK, loginResponse{LoginStatus: sess.LoginStatus})
}
