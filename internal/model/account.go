// Package model はドメインモデルを定義する。
package model

import "time"

// AccountKind はアカウントの種別（一般ユーザー／管理者）を表す。
type AccountKind string

const (
	// AccountKindUser は一般ユーザーアカウント。
	AccountKindUser AccountKind = "user"
	// AccountKindAdmin は管理者アカウント。
	AccountKindAdmin AccountKind = "admin"
)

// Account はログイン可能なアカウントを表す。
// 管理者アカウントは無効化されないため、DisabledAtは常にnil。
type Account struct {
	AccountID      int64
	Kind           AccountKind
	Email          string
	HashedPassword []byte
	LastLoginTime  time.Time
	CreatedAt      time.Time
	MfaEnabledAt   *time.Time
	DisabledAt     *time.Time
}

// MfaEnabled は二段階認証が有効かどうかを返す。
func (a *Account) MfaEnabled() bool {
	return a.MfaEnabledAt != nil
}

// Disabled はアカウントが無効化されているかどうかを返す。
func (a *Account) Disabled() bool {
	return a.DisabledAt != nil
}

// MfaInfo は二段階認証の秘密情報を表す。
type MfaInfo struct {
	AccountID           int64
	Base32EncodedSecret string
	HashedRecoveryCode  []byte // bcrypt
}

// BankAccount はコンサルタントの報酬振込先口座を表す。
type BankAccount struct {
	UserAccountID     int64
	BankCode          string
	BranchCode        string
	AccountType       string
	AccountNumber     string
	AccountHolderName string
}
