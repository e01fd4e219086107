// Package model はドメインモデルを定義する。
package model

import "time"

// LoginStatus はセッションのログイン段階を表す。
type LoginStatus string

const (
	// LoginStatusNeedMoreVerification はパスワード認証済みで二段階認証が未完了の状態。
	LoginStatusNeedMoreVerification LoginStatus = "NeedMoreVerification"
	// LoginStatusFinish はログインが完了した状態。
	LoginStatusFinish LoginStatus = "Finish"
)

// Session はログインセッションを表す。
type Session struct {
	SessionID   string      `json:"session_id"`
	AccountID   int64       `json:"account_id"`
	Kind        AccountKind `json:"kind"`
	LoginStatus LoginStatus `json:"login_status"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// IsExpired はセッションが有効期限切れかどうかを判定する。
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
