// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/careerconsult/internal/model"
	"github.com/hitoshi/careerconsult/internal/session"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionLoader はセッションの検証と延長に必要なインターフェース。
// session.Gatewayの部分集合として定義する。
type SessionLoader interface {
	Load(ctx context.Context, sessionID string) (*model.Session, error)
	Extend(ctx context.Context, sess *model.Session, ttl time.Duration) error
}

// SessionRequirement はルートが要求するセッションの条件。
type SessionRequirement struct {
	Kind   model.AccountKind
	Status model.LoginStatus
	TTL    time.Duration // 通過時に延長する有効期間
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 要求するアカウント種別とログイン段階を満たすか検証するミドルウェアを返す。
// 通過したリクエストはセッションの有効期限を延長し、セッションをコンテキストに注入する。
// 条件を満たさないリクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(loader SessionLoader, req SessionRequirement) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからセッションIDを取得
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteUnauthorized(w)
				return
			}

			// 2. セッションの有効性を検証
			sess, err := loader.Load(r.Context(), cookie.Value)
			if errors.Is(err, session.ErrUnauthorized) {
				WriteUnauthorized(w)
				return
			}
			if err != nil {
				slog.Error("failed to load session",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if sess.Kind != req.Kind || sess.LoginStatus != req.Status {
				WriteUnauthorized(w)
				return
			}

			// 3. 有効期限を延長
			if err := loader.Extend(r.Context(), sess, req.TTL); err != nil {
				slog.Error("failed to extend session",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			// 4. セッションをコンテキストに注入
			recordSessionForLog(r.Context(), sess.AccountID, string(sess.Kind))
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
		})
	}
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func SessionFromContext(ctx context.Context) (*model.Session, error) {
	sess, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok || sess == nil {
		return nil, fmt.Errorf("session not found in context")
	}
	return sess, nil
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SetSessionCookie はセッションIDをCookieに設定する。
// 有効期限はサーバー側のセッションで管理するため、ブラウザのセッションCookieとして発行する。
func SetSessionCookie(w http.ResponseWriter, sess *model.Session, secure bool, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.SessionID,
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie はセッションCookieを削除する。
func ClearSessionCookie(w http.ResponseWriter, secure bool, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
