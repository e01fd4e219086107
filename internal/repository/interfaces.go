// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hitoshi/careerconsult/internal/model"
)

// ErrAlreadySettled は指定した相談の精算結果が既に記録されていることを表す。
var ErrAlreadySettled = errors.New("consultation is already settled")

// AccountRepository はアカウントの永続化インターフェース。
// 一般ユーザーと管理者で同じインターフェースを使う。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, accountID int64) (*model.Account, error)

	// FindByEmail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// FindByIDWithSharedLock は指定IDのアカウントを共有ロック（FOR SHARE）付きで取得する。
	FindByIDWithSharedLock(ctx context.Context, accountID int64) (*model.Account, error)

	// FindByIDForUpdate は指定IDのアカウントを排他ロック（FOR UPDATE）付きで取得する。
	FindByIDForUpdate(ctx context.Context, accountID int64) (*model.Account, error)

	// UpdateLastLoginTime は最終ログイン日時を更新する。
	UpdateLastLoginTime(ctx context.Context, accountID int64, loginTime time.Time) error

	// ClearMfaEnabled は二段階認証の有効化日時をクリアする。
	ClearMfaEnabled(ctx context.Context, accountID int64) error
}

// MfaInfoRepository は二段階認証の秘密情報の永続化インターフェース。
type MfaInfoRepository interface {
	// FindByAccountID はアカウントの二段階認証情報を取得する。見つからない場合はnilを返す。
	FindByAccountID(ctx context.Context, accountID int64) (*model.MfaInfo, error)

	// DeleteByAccountID はアカウントの二段階認証情報を削除する。
	DeleteByAccountID(ctx context.Context, accountID int64) error
}

// IdentityRequestRepository は本人確認申請の永続化インターフェース。
type IdentityRequestRepository interface {
	// FindByID は指定IDの申請を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, requestID int64) (*model.IdentityRequest, error)

	// FindByIDForUpdate は指定IDの申請をFOR UPDATEで取得する。見つからない場合はnilを返す。
	FindByIDForUpdate(ctx context.Context, requestID int64) (*model.IdentityRequest, error)

	// DeleteByID は指定IDの申請を削除する。
	DeleteByID(ctx context.Context, requestID int64) error

	// InsertApproved は承認履歴を記録する。
	InsertApproved(ctx context.Context, approved *model.ApprovedIdentityRequest) error

	// InsertRejected は拒否履歴を記録する。
	InsertRejected(ctx context.Context, rejected *model.RejectedIdentityRequest) error
}

// IdentityRepository は承認済み本人情報の永続化インターフェース。
type IdentityRepository interface {
	// Upsert は本人情報を作成する。既に存在する場合は上書きする。
	Upsert(ctx context.Context, identity *model.Identity) error
}

// CareerRequestRepository は職務経歴申請の永続化インターフェース。
type CareerRequestRepository interface {
	// FindByID は指定IDの申請を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, requestID int64) (*model.CareerRequest, error)

	// FindByIDForUpdate は指定IDの申請をFOR UPDATEで取得する。見つからない場合はnilを返す。
	FindByIDForUpdate(ctx context.Context, requestID int64) (*model.CareerRequest, error)

	// DeleteByID は指定IDの申請を削除する。
	DeleteByID(ctx context.Context, requestID int64) error

	// InsertApproved は承認履歴を記録する。
	InsertApproved(ctx context.Context, approved *model.ApprovedCareerRequest) error

	// InsertRejected は拒否履歴を記録する。
	InsertRejected(ctx context.Context, rejected *model.RejectedCareerRequest) error
}

// CareerRepository は承認済み職務経歴の永続化インターフェース。
type CareerRepository interface {
	// Insert は職務経歴を追加し、採番されたIDを返す。
	Insert(ctx context.Context, career *model.Career) (int64, error)
}

// BankAccountRepository は報酬振込先口座の永続化インターフェース。
type BankAccountRepository interface {
	// FindByUserAccountIDWithSharedLock は口座情報をFOR SHAREで取得する。見つからない場合はnilを返す。
	FindByUserAccountIDWithSharedLock(ctx context.Context, userAccountID int64) (*model.BankAccount, error)
}

// AwaitingWithdrawalRepository は引き落とし待ちの精算レコードの永続化インターフェース。
type AwaitingWithdrawalRepository interface {
	// FindByConsultationIDForUpdate はFOR UPDATEでレコードを取得する。見つからない場合はnilを返す。
	FindByConsultationIDForUpdate(ctx context.Context, consultationID int64) (*model.AwaitingWithdrawal, error)

	// DeleteByConsultationID はレコードを削除する。
	DeleteByConsultationID(ctx context.Context, consultationID int64) error
}

// AwaitingPaymentRepository は入金待ちの精算レコードの永続化インターフェース。
type AwaitingPaymentRepository interface {
	// FindByConsultationIDForUpdate はFOR UPDATEでレコードを取得する。見つからない場合はnilを返す。
	FindByConsultationIDForUpdate(ctx context.Context, consultationID int64) (*model.AwaitingPayment, error)

	// DeleteByConsultationID はレコードを削除する。
	DeleteByConsultationID(ctx context.Context, consultationID int64) error
}

// SettlementOutcomeRepository は精算結果の永続化インターフェース。
// いずれのメソッドも、同じ相談の結果が既に記録されている場合はErrAlreadySettledを返す。
type SettlementOutcomeRepository interface {
	InsertReceipt(ctx context.Context, receipt *model.ReceiptOfConsultation) error
	InsertRefund(ctx context.Context, refund *model.RefundedPayment) error
	InsertNeglectedPayment(ctx context.Context, neglected *model.NeglectedPayment) error
	InsertLeftAwaitingWithdrawal(ctx context.Context, left *model.LeftAwaitingWithdrawal) error
	InsertStoppedSettlement(ctx context.Context, stopped *model.StoppedSettlement) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Pinger はデータベース疎通確認用のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}
