// Package model はドメインモデルを定義する。
package model

import "time"

// AwaitingWithdrawal はカード決済の与信確保済みで、売上確定（引き落とし）を待つ相談を表す。
type AwaitingWithdrawal struct {
	ConsultationID              int64
	UserAccountID               int64
	ConsultantID                int64
	MeetingAt                   time.Time
	FeePerHourInYen             int32
	PlatformFeeRateInPercentage string // 例: "30.0"
	ChargeID                    string
	CreditFacilitiesExpiredAt   time.Time
	SettledAt                   time.Time // 相談完了として精算待ちに入った時刻。返金可能期間の起点
}

// AwaitingPayment は銀行振込による入金を待つ相談を表す。
type AwaitingPayment struct {
	ConsultationID  int64
	UserAccountID   int64
	ConsultantID    int64
	MeetingAt       time.Time
	FeePerHourInYen int32
	SenderName      string
	CreatedAt       time.Time
}

// ReceiptOfConsultation は精算完了（コンサルタントへの報酬確定）の記録を表す。
// 振込先口座は精算時点のスナップショットを保持する。
type ReceiptOfConsultation struct {
	ConsultationID              int64
	UserAccountID               int64
	ConsultantID                int64
	MeetingAt                   time.Time
	FeePerHourInYen             int32
	PlatformFeeRateInPercentage string
	PlatformFeeInYen            int32
	RewardInYen                 int32
	TransferFeeInYen            int32
	BankCode                    string
	BranchCode                  string
	AccountType                 string
	AccountNumber               string
	AccountHolderName           string
	SettledBy                   string
	SettledAt                   time.Time
}

// RefundedPayment は返金済みの相談を表す。
type RefundedPayment struct {
	ConsultationID  int64
	UserAccountID   int64
	ConsultantID    int64
	MeetingAt       time.Time
	FeePerHourInYen int32
	ChargeID        string
	Reason          string
	RefundedBy      string
	RefundedAt      time.Time
}

// NeglectedPayment は期限までに振込が確認できず放置として処理された相談を表す。
type NeglectedPayment struct {
	ConsultationID     int64
	UserAccountID      int64
	ConsultantID       int64
	MeetingAt          time.Time
	FeePerHourInYen    int32
	SenderName         string
	NeglectConfirmedBy string
	NeglectConfirmedAt time.Time
}

// LeftAwaitingWithdrawal は引き落としを行わずに据え置きとした相談を表す。
type LeftAwaitingWithdrawal struct {
	ConsultationID  int64
	UserAccountID   int64
	ConsultantID    int64
	MeetingAt       time.Time
	FeePerHourInYen int32
	ChargeID        string
	LeftBy          string
	LeftAt          time.Time
}

// StoppedSettlement は精算を停止した相談を表す。
type StoppedSettlement struct {
	ConsultationID  int64
	UserAccountID   int64
	ConsultantID    int64
	MeetingAt       time.Time
	FeePerHourInYen int32
	ChargeID        string
	StoppedBy       string
	StoppedAt       time.Time
}

// SettlementOutcome は精算の帰結の種別を表す。1つの相談に対して高々1つだけ記録される。
type SettlementOutcome string

const (
	OutcomeReceipt                SettlementOutcome = "receipt"
	OutcomeRefund                 SettlementOutcome = "refund"
	OutcomeNeglectedPayment       SettlementOutcome = "neglected_payment"
	OutcomeLeftAwaitingWithdrawal SettlementOutcome = "left_awaiting_withdrawal"
	OutcomeStoppedSettlement      SettlementOutcome = "stopped_settlement"
)
