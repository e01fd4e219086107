package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/careerconsult/internal/middleware"
	"github.com/hitoshi/careerconsult/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string, now time.Time) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandler はログイン・ログアウトのHTTPハンドラー。
// アカウント種別ごとに1つ生成する。
type AuthHandler struct {
	service AuthServiceInterface
	cookie  CookieConfig
	now     func() time.Time
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{service: service, cookie: cookie, now: time.Now}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse はログイン段階のAPIレスポンス。
// NeedMoreVerificationの場合、クライアントは二段階認証の画面に進む。
type loginResponse struct {
	LoginStatus model.LoginStatus `json:"login_status"`
}

// Login はメールアドレスとパスワードでログインする。
// POST /login, POST /admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeBody(w, r, &body) {
		return
	}

	sess, err := h.service.Login(r.Context(), body.Email, body.Password, h.now())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.SetSessionCookie(w, sess, h.cookie.Secure, h.cookie.Domain)
	writeJSON(w, http.StatusOK, loginResponse{LoginStatus: sess.LoginStatus})
}

// Logout はセッションを破棄しCookieを削除する。
// セッションが存在しない場合も成功として扱う。
// POST /logout, POST /admin/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			slog.Error("failed to destroy session", slog.String("error", err.Error()))
			middleware.WriteInternalServerError(w)
			return
		}
	}

	middleware.ClearSessionCookie(w, h.cookie.Secure, h.cookie.Domain)
	writeOK(w)
}
