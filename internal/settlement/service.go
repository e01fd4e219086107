// Package settlement は相談料の精算（売上確定・返金・入金確認など）のドメインロジックを提供する。
//
// 精算待ちのレコード（引き落とし待ち・入金待ち）は、いずれかの操作で必ず1回だけ消費され、
// 同じトランザクション内で5種類の結果のうちちょうど1つが記録される。
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/careerconsult/internal/metrics"
	"github.com/hitoshi/careerconsult/internal/model"
	"github.com/hitoshi/careerconsult/internal/repository"
	"github.com/hitoshi/careerconsult/internal/security"
)

// PaymentGateway はカード決済サービスのインターフェース。
type PaymentGateway interface {
	// Capture は与信確保済みの決済を売上確定する。
	Capture(ctx context.Context, chargeID string) error
	// Refund は決済を返金する。
	Refund(ctx context.Context, chargeID, reason string) error
}

// Config は精算のパラメータ。
type Config struct {
	// RefundableDuration は精算待ちに入ってから返金可能な期間。
	RefundableDuration time.Duration
	// TransferFeeInYen は報酬振込時の振込手数料（プラットフォーム負担）。
	TransferFeeInYen int32
}

// Deps はServiceの依存関係。
type Deps struct {
	Tx                  repository.TxRunner
	BankAccounts        repository.BankAccountRepository
	AwaitingWithdrawals repository.AwaitingWithdrawalRepository
	AwaitingPayments    repository.AwaitingPaymentRepository
	Outcomes            repository.SettlementOutcomeRepository
	Payment             PaymentGateway
	Reasons             security.ReasonValidator
	Metrics             metrics.MetricsCollector
	Config              Config
}

// Service は精算のサービス層。
type Service struct {
	tx                  repository.TxRunner
	bankAccounts        repository.BankAccountRepository
	awaitingWithdrawals repository.AwaitingWithdrawalRepository
	awaitingPayments    repository.AwaitingPaymentRepository
	outcomes            repository.SettlementOutcomeRepository
	payment             PaymentGateway
	reasons             security.ReasonValidator
	metrics             metrics.MetricsCollector
	cfg                 Config
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(deps Deps) *Service {
	m := deps.Metrics
	if m == nil {
		m = metrics.NopCollector{}
	}
	return &Service{
		tx:                  deps.Tx,
		bankAccounts:        deps.BankAccounts,
		awaitingWithdrawals: deps.AwaitingWithdrawals,
		awaitingPayments:    deps.AwaitingPayments,
		outcomes:            deps.Outcomes,
		payment:             deps.Payment,
		reasons:             deps.Reasons,
		metrics:             m,
		cfg:                 deps.Config,
	}
}

// 操作名。メトリクスとログに使う。
const (
	opMakePayment             = "make_payment"
	opRefund                  = "refund"
	opNeglectedPayment        = "neglected_payment"
	opLeaveAwaitingWithdrawal = "leave_awaiting_withdrawal"
	opReceiptOfConsultation   = "receipt_of_consultation"
	opStopSettlement          = "stop_settlement"
)

// recordOps は精算待ちレコードの種類ごとの操作。
type recordOps[R any] struct {
	findForUpdate func(ctx context.Context, consultationID int64) (*R, error)
	deleteByID    func(ctx context.Context, consultationID int64) error
}

func (s *Service) withdrawalOps() recordOps[model.AwaitingWithdrawal] {
	return recordOps[model.AwaitingWithdrawal]{
		findForUpdate: s.awaitingWithdrawals.FindByConsultationIDForUpdate,
		deleteByID:    s.awaitingWithdrawals.DeleteByConsultationID,
	}
}

func (s *Service) paymentOps() recordOps[model.AwaitingPayment] {
	return recordOps[model.AwaitingPayment]{
		findForUpdate: s.awaitingPayments.FindByConsultationIDForUpdate,
		deleteByID:    s.awaitingPayments.DeleteByConsultationID,
	}
}

// consume は精算待ちレコードを1件消費する共通手順を1つのトランザクション内で実行する。
//
//  1. レコードを排他ロックで読み取る（存在しなければSettlementNotFound）
//  2. record（前提条件の検証と結果の記録）
//  3. レコードを削除する
//  4. external（決済サービスの呼び出し。不要な操作ではnil）
//
// externalが失敗した場合はトランザクション全体をロールバックする。
func consume[R any](
	ctx context.Context,
	s *Service,
	op string,
	ops recordOps[R],
	consultationID int64,
	record func(ctx context.Context, rec *R) error,
	external func(ctx context.Context, rec *R) error,
) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := ops.findForUpdate(ctx, consultationID)
		if err != nil {
			return fmt.Errorf("精算レコードの取得に失敗しました: %w", err)
		}
		if rec == nil {
			return model.NewSettlementNotFoundError(consultationID)
		}

		if err := record(ctx, rec); err != nil {
			if errors.Is(err, repository.ErrAlreadySettled) {
				return model.NewAlreadySettledError(consultationID)
			}
			return err
		}

		if err := ops.deleteByID(ctx, consultationID); err != nil {
			return fmt.Errorf("精算レコードの削除に失敗しました: %w", err)
		}

		if external != nil {
			return external(ctx, rec)
		}
		return nil
	})

	s.recordResult(op, err)
	if err != nil {
		return err
	}
	slog.Info("精算処理が完了しました",
		slog.String("operation", op),
		slog.Int64("consultation_id", consultationID),
	)
	return nil
}

func (s *Service) recordResult(op string, err error) {
	var apiErr *model.APIError
	switch {
	case err == nil:
		s.metrics.RecordSettlement(op, metrics.ResultSuccess)
	case errors.As(err, &apiErr):
		s.metrics.RecordSettlement(op, metrics.ResultBusinessError)
	default:
		s.metrics.RecordSettlement(op, metrics.ResultError)
	}
}

// callPayment は決済サービスを呼び出す。失敗の詳細はログに記録し、PaymentRelatedErrを返す。
func (s *Service) callPayment(ctx context.Context, op string, consultationID int64, call func(ctx context.Context) error) error {
	start := time.Now()
	err := call(ctx)
	s.metrics.RecordPaymentCall(op, err == nil, time.Since(start))
	if err != nil {
		slog.Error("決済サービスの呼び出しに失敗しました",
			slog.String("operation", op),
			slog.Int64("consultation_id", consultationID),
			slog.String("error", err.Error()),
		)
		return model.NewPaymentRelatedError()
	}
	return nil
}

func (s *Service) bankAccountOf(ctx context.Context, consultantID int64) (*model.BankAccount, error) {
	ba, err := s.bankAccounts.FindByUserAccountIDWithSharedLock(ctx, consultantID)
	if err != nil {
		return nil, fmt.Errorf("振込先口座の取得に失敗しました: %w", err)
	}
	if ba == nil {
		return nil, fmt.Errorf("振込先口座が登録されていません: consultant_id=%d", consultantID)
	}
	return ba, nil
}

func newReceipt(
	consultationID, userAccountID, consultantID int64,
	meetingAt time.Time,
	feePerHourInYen int32,
	rate string,
	reward Reward,
	transferFee int32,
	ba *model.BankAccount,
	settledBy string,
	settledAt time.Time,
) *model.ReceiptOfConsultation {
	return &model.ReceiptOfConsultation{
		ConsultationID:              consultationID,
		UserAccountID:               userAccountID,
		ConsultantID:                consultantID,
		MeetingAt:                   meetingAt,
		FeePerHourInYen:             feePerHourInYen,
		PlatformFeeRateInPercentage: rate,
		PlatformFeeInYen:            reward.PlatformFeeInYen,
		RewardInYen:                 reward.RewardInYen,
		TransferFeeInYen:            transferFee,
		BankCode:                    ba.BankCode,
		BranchCode:                  ba.BranchCode,
		AccountType:                 ba.AccountType,
		AccountNumber:               ba.AccountNumber,
		AccountHolderName:           ba.AccountHolderName,
		SettledBy:                   settledBy,
		SettledAt:                   settledAt,
	}
}

// MakePayment はカード決済を売上確定し、コンサルタントへの報酬を確定する。
// 与信枠の有効期限を過ぎている場合はCreditFacilitiesAlreadyExpiredを返す（期限ちょうどは可）。
func (s *Service) MakePayment(ctx context.Context, consultationID int64, adminEmail string, now time.Time) error {
	return consume(ctx, s, opMakePayment, s.withdrawalOps(), consultationID,
		func(ctx context.Context, aw *model.AwaitingWithdrawal) error {
			if now.After(aw.CreditFacilitiesExpiredAt) {
				return model.NewCreditFacilitiesAlreadyExpiredError(consultationID)
			}
			ba, err := s.bankAccountOf(ctx, aw.ConsultantID)
			if err != nil {
				return err
			}
			rate, err := ParsePlatformFeeRate(aw.PlatformFeeRateInPercentage)
			if err != nil {
				return fmt.Errorf("記録済みの手数料率が不正です: %w", err)
			}
			receipt := newReceipt(aw.ConsultationID, aw.UserAccountID, aw.ConsultantID, aw.MeetingAt,
				aw.FeePerHourInYen, aw.PlatformFeeRateInPercentage, CalculateReward(aw.FeePerHourInYen, rate),
				s.cfg.TransferFeeInYen, ba, adminEmail, now)
			if err := s.outcomes.InsertReceipt(ctx, receipt); err != nil {
				return fmt.Errorf("精算結果の記録に失敗しました: %w", err)
			}
			return nil
		},
		func(ctx context.Context, aw *model.AwaitingWithdrawal) error {
			return s.callPayment(ctx, opMakePayment, consultationID, func(ctx context.Context) error {
				return s.payment.Capture(ctx, aw.ChargeID)
			})
		})
}

// Refund はカード決済を返金する。理由はトランザクション開始前に検証する。
// 精算待ちに入ってから返金可能期間を超えている場合はExceedsRefundTimeLimitを返す。
func (s *Service) Refund(ctx context.Context, consultationID int64, reason, adminEmail string, now time.Time) error {
	if err := s.reasons.Validate(reason); err != nil {
		apiErr := model.NewInvalidReasonError(err.Error())
		s.recordResult(opRefund, apiErr)
		return apiErr
	}
	return consume(ctx, s, opRefund, s.withdrawalOps(), consultationID,
		func(ctx context.Context, aw *model.AwaitingWithdrawal) error {
			if now.Sub(aw.SettledAt) > s.cfg.RefundableDuration {
				return model.NewExceedsRefundTimeLimitError(consultationID)
			}
			refund := &model.RefundedPayment{
				ConsultationID:  aw.ConsultationID,
				UserAccountID:   aw.UserAccountID,
				ConsultantID:    aw.ConsultantID,
				MeetingAt:       aw.MeetingAt,
				FeePerHourInYen: aw.FeePerHourInYen,
				ChargeID:        aw.ChargeID,
				Reason:          reason,
				RefundedBy:      adminEmail,
				RefundedAt:      now,
			}
			if err := s.outcomes.InsertRefund(ctx, refund); err != nil {
				return fmt.Errorf("返金記録の作成に失敗しました: %w", err)
			}
			return nil
		},
		func(ctx context.Context, aw *model.AwaitingWithdrawal) error {
			return s.callPayment(ctx, opRefund, consultationID, func(ctx context.Context) error {
				return s.payment.Refund(ctx, aw.ChargeID, reason)
			})
		})
}

// NeglectedPayment は期限までに入金が確認できなかった相談を放置として記録する。
func (s *Service) NeglectedPayment(ctx context.Context, consultationID int64, adminEmail string, now time.Time) error {
	return consume(ctx, s, opNeglectedPayment, s.paymentOps(), consultationID,
		func(ctx context.Context, ap *model.AwaitingPayment) error {
			neglected := &model.NeglectedPayment{
				ConsultationID:     ap.ConsultationID,
				UserAccountID:      ap.UserAccountID,
				ConsultantID:       ap.ConsultantID,
				MeetingAt:          ap.MeetingAt,
				FeePerHourInYen:    ap.FeePerHourInYen,
				SenderName:         ap.SenderName,
				NeglectConfirmedBy: adminEmail,
				NeglectConfirmedAt: now,
			}
			if err := s.outcomes.InsertNeglectedPayment(ctx, neglected); err != nil {
				return fmt.Errorf("放置記録の作成に失敗しました: %w", err)
			}
			return nil
		}, nil)
}

// LeaveAwaitingWithdrawal は売上確定を行わずに相談を据え置きとして記録する。
func (s *Service) LeaveAwaitingWithdrawal(ctx context.Context, consultationID int64, adminEmail string, now time.Time) error {
	return consume(ctx, s, opLeaveAwaitingWithdrawal, s.withdrawalOps(), consultationID,
		func(ctx context.Context, aw *model.AwaitingWithdrawal) error {
			left := &model.LeftAwaitingWithdrawal{
				ConsultationID:  aw.ConsultationID,
				UserAccountID:   aw.UserAccountID,
				ConsultantID:    aw.ConsultantID,
				MeetingAt:       aw.MeetingAt,
				FeePerHourInYen: aw.FeePerHourInYen,
				ChargeID:        aw.ChargeID,
				LeftBy:          adminEmail,
				LeftAt:          now,
			}
			if err := s.outcomes.InsertLeftAwaitingWithdrawal(ctx, left); err != nil {
				return fmt.Errorf("据え置き記録の作成に失敗しました: %w", err)
			}
			return nil
		}, nil)
}

// StopSettlement は引き落とし待ちの相談の精算を停止する。
func (s *Service) StopSettlement(ctx context.Context, consultationID int64, adminEmail string, now time.Time) error {
	return consume(ctx, s, opStopSettlement, s.withdrawalOps(), consultationID,
		func(ctx context.Context, aw *model.AwaitingWithdrawal) error {
			stopped := &model.StoppedSettlement{
				ConsultationID:  aw.ConsultationID,
				UserAccountID:   aw.UserAccountID,
				ConsultantID:    aw.ConsultantID,
				MeetingAt:       aw.MeetingAt,
				FeePerHourInYen: aw.FeePerHourInYen,
				ChargeID:        aw.ChargeID,
				StoppedBy:       adminEmail,
				StoppedAt:       now,
			}
			if err := s.outcomes.InsertStoppedSettlement(ctx, stopped); err != nil {
				return fmt.Errorf("精算停止記録の作成に失敗しました: %w", err)
			}
			return nil
		}, nil)
}

// ReceiptOfConsultation は銀行振込の入金確認後に報酬を確定する。
// 手数料率と振込手数料は管理者が指定し、トランザクション開始前に検証する。
func (s *Service) ReceiptOfConsultation(
	ctx context.Context,
	consultationID int64,
	adminEmail string,
	platformFeeRate string,
	transferFee int32,
	now time.Time,
) error {
	rate, err := ParsePlatformFeeRate(platformFeeRate)
	if err != nil {
		apiErr := model.NewInvalidPlatformFeeRateError(platformFeeRate)
		s.recordResult(opReceiptOfConsultation, apiErr)
		return apiErr
	}
	if transferFee < 0 {
		apiErr := model.NewInvalidTransferFeeError(transferFee)
		s.recordResult(opReceiptOfConsultation, apiErr)
		return apiErr
	}

	return consume(ctx, s, opReceiptOfConsultation, s.paymentOps(), consultationID,
		func(ctx context.Context, ap *model.AwaitingPayment) error {
			ba, err := s.bankAccountOf(ctx, ap.ConsultantID)
			if err != nil {
				return err
			}
			receipt := newReceipt(ap.ConsultationID, ap.UserAccountID, ap.ConsultantID, ap.MeetingAt,
				ap.FeePerHourInYen, rate.String(), CalculateReward(ap.FeePerHourInYen, rate),
				transferFee, ba, adminEmail, now)
			if err := s.outcomes.InsertReceipt(ctx, receipt); err != nil {
				return fmt.Errorf("精算結果の記録に失敗しました: %w", err)
			}
			return nil
		}, nil)
}
