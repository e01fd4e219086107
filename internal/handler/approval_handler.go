package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/careerconsult/internal/notification"
)

// ApprovalServiceInterface は審査ハンドラーが必要とするサービスインターフェース。
// 戻り値のメールアドレスは通知先であり、nilの場合は通知しない。
type ApprovalServiceInterface interface {
	ApproveIdentity(ctx context.Context, requestID int64, approvedBy string, now time.Time) (*string, error)
	RejectIdentity(ctx context.Context, requestID int64, reason, rejectedBy string, now time.Time) (*string, error)
	ApproveCareer(ctx context.Context, requestID int64, approvedBy string, now time.Time) (*string, error)
	RejectCareer(ctx context.Context, requestID int64, reason, rejectedBy string, now time.Time) (*string, error)
}

// ApprovalHandler は本人確認・職務経歴の審査のHTTPハンドラー。
type ApprovalHandler struct {
	service   ApprovalServiceInterface
	admins    AccountFinder
	notifier  notification.Notifier
	templates notification.Templates
	now       func() time.Time
}

// NewApprovalHandler はApprovalHandlerを生成する。
func NewApprovalHandler(
	service ApprovalServiceInterface,
	admins AccountFinder,
	notifier notification.Notifier,
	templates notification.Templates,
) *ApprovalHandler {
	return &ApprovalHandler{
		service:   service,
		admins:    admins,
		notifier:  notifier,
		templates: templates,
		now:       time.Now,
	}
}

// rejectRequest は拒否リクエストのボディ。
type rejectRequest struct {
	Reason string `json:"reason"`
}

// decisionResponse は審査結果のAPIレスポンス。
type decisionResponse struct {
	RecipientNotified bool `json:"recipient_notified"`
}

// ApproveIdentity は本人確認申請を承認する。
// POST /admin/identity-requests/{id}/approve
func (h *ApprovalHandler) ApproveIdentity(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, nil, func(ctx context.Context, id int64, _ string, by string) (*string, error) {
		return h.service.ApproveIdentity(ctx, id, by, h.now())
	}, func(to, _ string) notification.Mail {
		return h.templates.IdentityApproved(to)
	})
}

// RejectIdentity は本人確認申請を拒否する。
// POST /admin/identity-requests/{id}/reject
func (h *ApprovalHandler) RejectIdentity(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, &rejectRequest{}, func(ctx context.Context, id int64, reason, by string) (*string, error) {
		return h.service.RejectIdentity(ctx, id, reason, by, h.now())
	}, h.templates.IdentityRejected)
}

// ApproveCareer は職務経歴申請を承認する。
// POST /admin/career-requests/{id}/approve
func (h *ApprovalHandler) ApproveCareer(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, nil, func(ctx context.Context, id int64, _ string, by string) (*string, error) {
		return h.service.ApproveCareer(ctx, id, by, h.now())
	}, func(to, _ string) notification.Mail {
		return h.templates.CareerApproved(to)
	})
}

// RejectCareer は職務経歴申請を拒否する。
// POST /admin/career-requests/{id}/reject
func (h *ApprovalHandler) RejectCareer(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, &rejectRequest{}, func(ctx context.Context, id int64, reason, by string) (*string, error) {
		return h.service.RejectCareer(ctx, id, reason, by, h.now())
	}, h.templates.CareerRejected)
}

// decide は審査系エンドポイントの共通処理。
// bodyがnilでない場合は拒否理由をボディから読み取る。
func (h *ApprovalHandler) decide(
	w http.ResponseWriter,
	r *http.Request,
	body *rejectRequest,
	call func(ctx context.Context, id int64, reason, by string) (*string, error),
	mail func(to, reason string) notification.Mail,
) {
	id, ok := parsePositiveID(w, r, "id")
	if !ok {
		return
	}
	var reason string
	if body != nil {
		if !decodeBody(w, r, body) {
			return
		}
		reason = body.Reason
	}

	adminEmail, err := adminEmailOf(r, h.admins)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	recipient, err := call(r.Context(), id, reason, adminEmail)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// 審査結果はコミット済みのため、通知の失敗はログのみに留める
	notified := false
	if recipient != nil {
		if err := h.notifier.Send(r.Context(), mail(*recipient, reason)); err != nil {
			slog.Warn("failed to send decision mail",
				slog.String("path", r.URL.Path),
				slog.Int64("id", id),
				slog.String("error", err.Error()),
			)
		} else {
			notified = true
		}
	}

	writeJSON(w, http.StatusOK, decisionResponse{RecipientNotified: notified})
}
