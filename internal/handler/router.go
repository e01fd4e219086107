package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careerconsult/internal/metrics"
	"github.com/hitoshi/careerconsult/internal/middleware"
	"github.com/hitoshi/careerconsult/internal/model"
	"github.com/hitoshi/careerconsult/internal/notification"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger          *slog.Logger
	Metrics         metrics.MetricsCollector
	SessionLoader   middleware.SessionLoader
	RateLimiter     *middleware.RateLimiter
	SessionTTL      time.Duration // ログイン完了後のセッション有効期間
	LoginSessionTTL time.Duration // 二段階認証待ちのセッション有効期間
	Cookie          CookieConfig

	// ヘルスチェック
	HealthTargets map[string]Pinger

	// 認証
	UserAuth  AuthServiceInterface
	AdminAuth AuthServiceInterface
	UserMfa   MfaServiceInterface
	AdminMfa  MfaServiceInterface

	// 管理者業務
	Admins     AccountFinder
	Approval   ApprovalServiceInterface
	Settlement SettlementServiceInterface
	Notifier   notification.Notifier
	Templates  notification.Templates
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → Metrics → SecurityHeaders → (Session → RateLimit)
//
// ログイン・ログアウト・ヘルスチェックはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	userAuth := NewAuthHandler(deps.UserAuth, deps.Cookie)
	adminAuth := NewAuthHandler(deps.AdminAuth, deps.Cookie)
	userMfa := NewMfaHandler(deps.UserMfa, deps.Cookie)
	adminMfa := NewMfaHandler(deps.AdminMfa, deps.Cookie)
	approval := NewApprovalHandler(deps.Approval, deps.Admins, deps.Notifier, deps.Templates)
	settlement := NewSettlementHandler(deps.Settlement, deps.Admins)
	health := NewHealthHandler(deps.HealthTargets)

	requireSession := func(kind model.AccountKind, status model.LoginStatus, ttl time.Duration) func(http.Handler) http.Handler {
		return middleware.NewSessionMiddleware(deps.SessionLoader, middleware.SessionRequirement{
			Kind:   kind,
			Status: status,
			TTL:    ttl,
		})
	}

	// --- 認証不要のルート ---
	r.Get("/health", health.Health)

	r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", userAuth.Login)
	r.Post("/logout", userAuth.Logout)

	// 二段階認証: パスワード認証のみ済んだセッションで受け付ける
	r.Route("/mfa", func(r chi.Router) {
		r.Use(requireSession(model.AccountKindUser, model.LoginStatusNeedMoreVerification, deps.LoginSessionTTL))
		r.Use(deps.RateLimiter.MFAMiddleware())

		r.Post("/pass-code", userMfa.PassCode)
		r.Post("/recovery-code", userMfa.RecoveryCode)
	})

	r.Route("/admin", func(r chi.Router) {
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", adminAuth.Login)
		r.Post("/logout", adminAuth.Logout)

		r.Route("/mfa", func(r chi.Router) {
			r.Use(requireSession(model.AccountKindAdmin, model.LoginStatusNeedMoreVerification, deps.LoginSessionTTL))
			r.Use(deps.RateLimiter.MFAMiddleware())

			r.Post("/pass-code", adminMfa.PassCode)
			r.Post("/recovery-code", adminMfa.RecoveryCode)
		})

		// --- ログイン完了済みの管理者のみ ---
		// ミドルウェアスタック: Session → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(requireSession(model.AccountKindAdmin, model.LoginStatusFinish, deps.SessionTTL))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Route("/identity-requests/{id}", func(r chi.Router) {
				r.Post("/approve", approval.ApproveIdentity)
				r.Post("/reject", approval.RejectIdentity)
			})
			r.Route("/career-requests/{id}", func(r chi.Router) {
				r.Post("/approve", approval.ApproveCareer)
				r.Post("/reject", approval.RejectCareer)
			})

			r.Route("/settlements/{consultation_id}", func(r chi.Router) {
				r.Post("/make-payment", settlement.MakePayment)
				r.Post("/refund", settlement.Refund)
				r.Post("/neglected-payment", settlement.NeglectedPayment)
				r.Post("/leave-awaiting-withdrawal", settlement.LeaveAwaitingWithdrawal)
				r.Post("/receipt", settlement.ReceiptOfConsultation)
				r.Post("/stop", settlement.StopSettlement)
			})
		})
	})

	return r
}
