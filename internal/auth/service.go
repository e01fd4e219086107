// Package auth はメールアドレスとパスワードによるログイン・ログアウトを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/careerconsult/internal/model"
	"github.com/hitoshi/careerconsult/internal/repository"
)

// SessionGateway はログインで使うセッション操作。
type SessionGateway interface {
	Create(ctx context.Context, accountID int64, kind model.AccountKind, status model.LoginStatus, ttl time.Duration) (*model.Session, error)
	Destroy(ctx context.Context, sessionID string) error
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionTTL      time.Duration // ログイン完了後のセッション有効期間
	LoginSessionTTL time.Duration // 二段階認証待ちのセッション有効期間
}

// Service は1種類のアカウント（一般ユーザーまたは管理者）のログインを扱う。
type Service struct {
	kind     model.AccountKind
	accounts repository.AccountRepository
	sessions SessionGateway
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	kind model.AccountKind,
	accounts repository.AccountRepository,
	sessions SessionGateway,
	config ServiceConfig,
) *Service {
	return &Service{
		kind:     kind,
		accounts: accounts,
		sessions: sessions,
		config:   config,
	}
}

// dummyHash は存在しないメールアドレスでも照合にかかる時間を揃えるためのハッシュ。
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("careerconsult-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("failed to generate dummy hash: %v", err))
	}
	return h
})

// Login はメールアドレスとパスワードでログインし、セッションを発行する。
// 二段階認証が有効なアカウントはNeedMoreVerificationのセッションとなり、
// 最終ログイン日時は二段階認証の完了時に更新する。
func (s *Service) Login(ctx context.Context, email, password string, now time.Time) (*model.Session, error) {
	// 1. アカウントを検索
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	// 2. パスワードを照合
	hashed := dummyHash()
	if account != nil {
		hashed = account.HashedPassword
	}
	err = bcrypt.CompareHashAndPassword(hashed, []byte(password))
	if account == nil || errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, model.NewEmailOrPasswordIncorrectError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}

	// 3. 無効化済みアカウントはログインさせない
	if account.Disabled() {
		return nil, model.NewAccountDisabledError()
	}

	// 4. セッションを発行
	if account.MfaEnabled() {
		sess, err := s.sessions.Create(ctx, account.AccountID, s.kind, model.LoginStatusNeedMoreVerification, s.config.LoginSessionTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		slog.Info("password verified, waiting for mfa",
			slog.String("kind", string(s.kind)),
			slog.Int64("account_id", account.AccountID),
		)
		return sess, nil
	}

	if err := s.accounts.UpdateLastLoginTime(ctx, account.AccountID, now); err != nil {
		return nil, fmt.Errorf("failed to update last login time: %w", err)
	}
	sess, err := s.sessions.Create(ctx, account.AccountID, s.kind, model.LoginStatusFinish, s.config.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	slog.Info("account logged in",
		slog.String("kind", string(s.kind)),
		slog.Int64("account_id", account.AccountID),
	)
	return sess, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}

	slog.Info("account logged out", slog.String("kind", string(s.kind)))
	return nil
}
