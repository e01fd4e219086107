package handler

import (
	"context"
	"net/http"
	"time"
)

// SettlementServiceInterface は精算ハンドラーが必要とするサービスインターフェース。
type SettlementServiceInterface interface {
	MakePayment(ctx context.Context, consultationID int64, adminEmail string, now time.Time) error
	Refund(ctx context.Context, consultationID int64, reason, adminEmail string, now time.Time) error
	NeglectedPayment(ctx context.Context, consultationID int64, adminEmail string, now time.Time) error
	LeaveAwaitingWithdrawal(ctx context.Context, consultationID int64, adminEmail string, now time.Time) error
	StopSettlement(ctx context.Context, consultationID int64, adminEmail string, now time.Time) error
	ReceiptOfConsultation(ctx context.Context, consultationID int64, adminEmail, platformFeeRate string, transferFee int32, now time.Time) error
}

// SettlementHandler は相談料の精算のHTTPハンドラー。
type SettlementHandler struct {
	service SettlementServiceInterface
	admins  AccountFinder
	now     func() time.Time
}

// NewSettlementHandler はSettlementHandlerを生成する。
func NewSettlementHandler(service SettlementServiceInterface, admins AccountFinder) *SettlementHandler {
	return &SettlementHandler{
		service: service,
		admins:  admins,
		now:     time.Now,
	}
}

// refundRequest は返金リクエストのボディ。
type refundRequest struct {
	Reason string `json:"reason"`
}

// receiptRequest は入金確認リクエストのボディ。
type receiptRequest struct {
	PlatformFeeRate string `json:"platform_fee_rate"`
	TransferFee     int32  `json:"transfer_fee"`
}

// MakePayment は与信確保済みの決済を確定する。
// POST /admin/settlements/{consultation_id}/make-payment
func (h *SettlementHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, nil, func(ctx context.Context, id int64, adminEmail string) error {
		return h.service.MakePayment(ctx, id, adminEmail, h.now())
	})
}

// Refund は与信確保済みの決済を返金する。
// POST /admin/settlements/{consultation_id}/refund
func (h *SettlementHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var body refundRequest
	h.handle(w, r, &body, func(ctx context.Context, id int64, adminEmail string) error {
		return h.service.Refund(ctx, id, body.Reason, adminEmail, h.now())
	})
}

// NeglectedPayment は振込の確認できない相談を放置として処理する。
// POST /admin/settlements/{consultation_id}/neglected-payment
func (h *SettlementHandler) NeglectedPayment(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, nil, func(ctx context.Context, id int64, adminEmail string) error {
		return h.service.NeglectedPayment(ctx, id, adminEmail, h.now())
	})
}

// LeaveAwaitingWithdrawal は引き落としを行わずに据え置く。
// POST /admin/settlements/{consultation_id}/leave-awaiting-withdrawal
func (h *SettlementHandler) LeaveAwaitingWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, nil, func(ctx context.Context, id int64, adminEmail string) error {
		return h.service.LeaveAwaitingWithdrawal(ctx, id, adminEmail, h.now())
	})
}

// ReceiptOfConsultation は銀行振込の入金を確認し、報酬を確定する。
// POST /admin/settlements/{consultation_id}/receipt
func (h *SettlementHandler) ReceiptOfConsultation(w http.ResponseWriter, r *http.Request) {
	var body receiptRequest
	h.handle(w, r, &body, func(ctx context.Context, id int64, adminEmail string) error {
		return h.service.ReceiptOfConsultation(ctx, id, adminEmail, body.PlatformFeeRate, body.TransferFee, h.now())
	})
}

// StopSettlement は精算を停止する。
// POST /admin/settlements/{consultation_id}/stop
func (h *SettlementHandler) StopSettlement(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, nil, func(ctx context.Context, id int64, adminEmail string) error {
		return h.service.StopSettlement(ctx, id, adminEmail, h.now())
	})
}

func (h *SettlementHandler) handle(w http.ResponseWriter, r *http.Request, body any, call func(ctx context.Context, id int64, adminEmail string) error) {
	id, ok := parsePositiveID(w, r, "consultation_id")
	if !ok {
		return
	}
	if body != nil && !decodeBody(w, r, body) {
		return
	}

	adminEmail, err := adminEmailOf(r, h.admins)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := call(r.Context(), id, adminEmail); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeOK(w)
}
