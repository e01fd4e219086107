package mfa

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/careerconsult/internal/model"
)

// SessionUpdater はログイン段階の更新に使うセッション操作。
type SessionUpdater interface {
	SetLoginStatus(ctx context.Context, sess *model.Session, status model.LoginStatus, ttl time.Duration) error
}

// Service はログイン時の二段階認証フローのサービス層。
// パスワード認証済み（NeedMoreVerification）のセッションを、検証成功時にFinishへ進める。
type Service struct {
	auth       *Authenticator
	sessions   SessionUpdater
	sessionTTL time.Duration
}

// NewService はServiceの新しいインスタンスを生成する。
// sessionTTLはログイン完了後のセッション有効期間。
func NewService(auth *Authenticator, sessions SessionUpdater, sessionTTL time.Duration) *Service {
	return &Service{auth: auth, sessions: sessions, sessionTTL: sessionTTL}
}

func (s *Service) checkSession(sess *model.Session) error {
	if sess == nil || sess.Kind != s.auth.kind {
		return model.NewUnauthorizedError()
	}
	if sess.LoginStatus != model.LoginStatusNeedMoreVerification {
		return model.NewNoNeedToVerifyError()
	}
	return nil
}

// PassCode はパスコードでログインを完了する。
func (s *Service) PassCode(ctx context.Context, sess *model.Session, passCode string, now time.Time) error {
	if err := s.checkSession(sess); err != nil {
		return err
	}
	if err := s.auth.VerifyPassCode(ctx, sess.AccountID, now, passCode); err != nil {
		return err
	}
	return s.finish(ctx, sess, now)
}

// RecoveryCode はリカバリーコードでログインを完了する。成功すると二段階認証は無効になる。
func (s *Service) RecoveryCode(ctx context.Context, sess *model.Session, recoveryCode string, now time.Time) error {
	if err := s.checkSession(sess); err != nil {
		return err
	}
	if err := s.auth.VerifyRecoveryCode(ctx, sess.AccountID, recoveryCode); err != nil {
		return err
	}
	return s.finish(ctx, sess, now)
}

func (s *Service) finish(ctx context.Context, sess *model.Session, now time.Time) error {
	if err := s.auth.accounts.UpdateLastLoginTime(ctx, sess.AccountID, now); err != nil {
		return fmt.Errorf("最終ログイン日時の更新に失敗しました: %w", err)
	}
	if err := s.sessions.SetLoginStatus(ctx, sess, model.LoginStatusFinish, s.sessionTTL); err != nil {
		return fmt.Errorf("セッションの更新に失敗しました: %w", err)
	}
	return nil
}
