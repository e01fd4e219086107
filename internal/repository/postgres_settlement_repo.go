package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/careerconsult/internal/model"
)

// pqUniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const pqUniqueViolation = "23505"

// PostgresBankAccountRepo はPostgreSQLを使用した振込先口座リポジトリ。
type PostgresBankAccountRepo struct {
	db *sql.DB
}

var _ BankAccountRepository = (*PostgresBankAccountRepo)(nil)

// NewPostgresBankAccountRepo はPostgresBankAccountRepoを生成する。
func NewPostgresBankAccountRepo(db *sql.DB) *PostgresBankAccountRepo {
	return &PostgresBankAccountRepo{db: db}
}

// FindByUserAccountIDWithSharedLock は口座情報をFOR SHAREで取得する。見つからない場合はnilを返す。
func (r *PostgresBankAccountRepo) FindByUserAccountIDWithSharedLock(ctx context.Context, userAccountID int64) (*model.BankAccount, error) {
	ba := &model.BankAccount{}
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT user_account_id, bank_code, branch_code, account_type, account_number, account_holder_name
		 FROM bank_accounts WHERE user_account_id = $1 FOR SHARE`,
		userAccountID,
	).Scan(&ba.UserAccountID, &ba.BankCode, &ba.BranchCode, &ba.AccountType, &ba.AccountNumber, &ba.AccountHolderName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bank account: %w", err)
	}
	return ba, nil
}

// PostgresAwaitingWithdrawalRepo はPostgreSQLを使用した引き落とし待ちレコードのリポジトリ。
type PostgresAwaitingWithdrawalRepo struct {
	db *sql.DB
}

var _ AwaitingWithdrawalRepository = (*PostgresAwaitingWithdrawalRepo)(nil)

// NewPostgresAwaitingWithdrawalRepo はPostgresAwaitingWithdrawalRepoを生成する。
func NewPostgresAwaitingWithdrawalRepo(db *sql.DB) *PostgresAwaitingWithdrawalRepo {
	return &PostgresAwaitingWithdrawalRepo{db: db}
}

// FindByConsultationIDForUpdate はFOR UPDATEでレコードを取得する。見つからない場合はnilを返す。
func (r *PostgresAwaitingWithdrawalRepo) FindByConsultationIDForUpdate(ctx context.Context, consultationID int64) (*model.AwaitingWithdrawal, error) {
	aw := &model.AwaitingWithdrawal{}
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT consultation_id, user_account_id, consultant_id, meeting_at, fee_per_hour_in_yen,
			platform_fee_rate_in_percentage::text, charge_id, credit_facilities_expired_at, settled_at
		 FROM awaiting_withdrawals WHERE consultation_id = $1 FOR UPDATE`,
		consultationID,
	).Scan(
		&aw.ConsultationID, &aw.UserAccountID, &aw.ConsultantID, &aw.MeetingAt, &aw.FeePerHourInYen,
		&aw.PlatformFeeRateInPercentage, &aw.ChargeID, &aw.CreditFacilitiesExpiredAt, &aw.SettledAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find awaiting withdrawal: %w", err)
	}
	return aw, nil
}

// DeleteByConsultationID はレコードを削除する。
func (r *PostgresAwaitingWithdrawalRepo) DeleteByConsultationID(ctx context.Context, consultationID int64) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM awaiting_withdrawals WHERE consultation_id = $1`, consultationID,
	); err != nil {
		return fmt.Errorf("failed to delete awaiting withdrawal: %w", err)
	}
	return nil
}

// PostgresAwaitingPaymentRepo はPostgreSQLを使用した入金待ちレコードのリポジトリ。
type PostgresAwaitingPaymentRepo struct {
	db *sql.DB
}

var _ AwaitingPaymentRepository = (*PostgresAwaitingPaymentRepo)(nil)

// NewPostgresAwaitingPaymentRepo はPostgresAwaitingPaymentRepoを生成する。
func NewPostgresAwaitingPaymentRepo(db *sql.DB) *PostgresAwaitingPaymentRepo {
	return &PostgresAwaitingPaymentRepo{db: db}
}

// FindByConsultationIDForUpdate はFOR UPDATEでレコードを取得する。見つからない場合はnilを返す。
func (r *PostgresAwaitingPaymentRepo) FindByConsultationIDForUpdate(ctx context.Context, consultationID int64) (*model.AwaitingPayment, error) {
	ap := &model.AwaitingPayment{}
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT consultation_id, user_account_id, consultant_id, meeting_at, fee_per_hour_in_yen, sender_name, created_at
		 FROM awaiting_payments WHERE consultation_id = $1 FOR UPDATE`,
		consultationID,
	).Scan(&ap.ConsultationID, &ap.UserAccountID, &ap.ConsultantID, &ap.MeetingAt, &ap.FeePerHourInYen, &ap.SenderName, &ap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find awaiting payment: %w", err)
	}
	return ap, nil
}

// DeleteByConsultationID はレコードを削除する。
func (r *PostgresAwaitingPaymentRepo) DeleteByConsultationID(ctx context.Context, consultationID int64) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM awaiting_payments WHERE consultation_id = $1`, consultationID,
	); err != nil {
		return fmt.Errorf("failed to delete awaiting payment: %w", err)
	}
	return nil
}

// PostgresSettlementOutcomeRepo はPostgreSQLを使用した精算結果リポジトリ。
// 結果テーブルへの挿入の前にsettled_consultationsへ1行挿入し、
// 同一相談への2件目の結果を一意制約で拒否する。
type PostgresSettlementOutcomeRepo struct {
	db *sql.DB
}

var _ SettlementOutcomeRepository = (*PostgresSettlementOutcomeRepo)(nil)

// NewPostgresSettlementOutcomeRepo はPostgresSettlementOutcomeRepoを生成する。
func NewPostgresSettlementOutcomeRepo(db *sql.DB) *PostgresSettlementOutcomeRepo {
	return &PostgresSettlementOutcomeRepo{db: db}
}

func (r *PostgresSettlementOutcomeRepo) markSettled(ctx context.Context, consultationID int64, outcome model.SettlementOutcome, at time.Time) error {
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO settled_consultations (consultation_id, outcome, settled_at) VALUES ($1, $2, $3)`,
		consultationID, string(outcome), at,
	)
	if isUniqueViolation(err) {
		return ErrAlreadySettled
	}
	if err != nil {
		return fmt.Errorf("failed to insert settled consultation: %w", err)
	}
	return nil
}

// InsertReceipt は精算完了の記録を挿入する。
func (r *PostgresSettlementOutcomeRepo) InsertReceipt(ctx context.Context, receipt *model.ReceiptOfConsultation) error {
	if err := r.markSettled(ctx, receipt.ConsultationID, model.OutcomeReceipt, receipt.SettledAt); err != nil {
		return err
	}
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO receipts_of_consultation (
			consultation_id, user_account_id, consultant_id, meeting_at, fee_per_hour_in_yen,
			platform_fee_rate_in_percentage, platform_fee_in_yen, reward_in_yen, transfer_fee_in_yen,
			bank_code, branch_code, account_type, account_number, account_holder_name,
			settled_by, settled_at
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		receipt.ConsultationID, receipt.UserAccountID, receipt.ConsultantID, receipt.MeetingAt, receipt.FeePerHourInYen,
		receipt.PlatformFeeRateInPercentage, receipt.PlatformFeeInYen, receipt.RewardInYen, receipt.TransferFeeInYen,
		receipt.BankCode, receipt.BranchCode, receipt.AccountType, receipt.AccountNumber, receipt.AccountHolderName,
		receipt.SettledBy, receipt.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt of consultation: %w", err)
	}
	return nil
}

// InsertRefund は返金の記録を挿入する。
func (r *PostgresSettlementOutcomeRepo) InsertRefund(ctx context.Context, refund *model.RefundedPayment) error {
	if err := r.markSettled(ctx, refund.ConsultationID, model.OutcomeRefund, refund.RefundedAt); err != nil {
		return err
	}
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO refunded_payments (
			consultation_id, user_account_id, consultant_id, meeting_at, fee_per_hour_in_yen,
			charge_id, reason, refunded_by, refunded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		refund.ConsultationID, refund.UserAccountID, refund.ConsultantID, refund.MeetingAt, refund.FeePerHourInYen,
		refund.ChargeID, refund.Reason, refund.RefundedBy, refund.RefundedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert refunded payment: %w", err)
	}
	return nil
}

// InsertNeglectedPayment は入金放置の記録を挿入する。
func (r *PostgresSettlementOutcomeRepo) InsertNeglectedPayment(ctx context.Context, neglected *model.NeglectedPayment) error {
	if err := r.markSettled(ctx, neglected.ConsultationID, model.OutcomeNeglectedPayment, neglected.NeglectConfirmedAt); err != nil {
		return err
	}
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO neglected_payments (
			consultation_id, user_account_id, consultant_id, meeting_at, fee_per_hour_in_yen,
			sender_name, neglect_confirmed_by, neglect_confirmed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		neglected.ConsultationID, neglected.UserAccountID, neglected.ConsultantID, neglected.MeetingAt, neglected.FeePerHourInYen,
		neglected.SenderName, neglected.NeglectConfirmedBy, neglected.NeglectConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert neglected payment: %w", err)
	}
	return nil
}

// InsertLeftAwaitingWithdrawal は引き落とし据え置きの記録を挿入する。
func (r *PostgresSettlementOutcomeRepo) InsertLeftAwaitingWithdrawal(ctx context.Context, left *model.LeftAwaitingWithdrawal) error {
	if err := r.markSettled(ctx, left.ConsultationID, model.OutcomeLeftAwaitingWithdrawal, left.LeftAt); err != nil {
		return err
	}
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO left_awaiting_withdrawals (
			consultation_id, user_account_id, consultant_id, meeting_at, fee_per_hour_in_yen,
			charge_id, left_by, left_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		left.ConsultationID, left.UserAccountID, left.ConsultantID, left.MeetingAt, left.FeePerHourInYen,
		left.ChargeID, left.LeftBy, left.LeftAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert left awaiting withdrawal: %w", err)
	}
	return nil
}

// InsertStoppedSettlement は精算停止の記録を挿入する。
func (r *PostgresSettlementOutcomeRepo) InsertStoppedSettlement(ctx context.Context, stopped *model.StoppedSettlement) error {
	if err := r.markSettled(ctx, stopped.ConsultationID, model.OutcomeStoppedSettlement, stopped.StoppedAt); err != nil {
		return err
	}
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO stopped_settlements (
			consultation_id, user_account_id, consultant_id, meeting_at, fee_per_hour_in_yen,
			charge_id, stopped_by, stopped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		stopped.ConsultationID, stopped.UserAccountID, stopped.ConsultantID, stopped.MeetingAt, stopped.FeePerHourInYen,
		stopped.ChargeID, stopped.StoppedBy, stopped.StoppedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stopped settlement: %w", err)
	}
	return nil
}

// isUniqueViolation はerrがPostgreSQLの一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}
	return false
}
