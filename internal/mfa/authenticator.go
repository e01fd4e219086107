// Package mfa は二段階認証（TOTPパスコード・リカバリーコード）の検証を提供する。
package mfa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/careerconsult/internal/metrics"
	"github.com/hitoshi/careerconsult/internal/model"
	"github.com/hitoshi/careerconsult/internal/repository"
)

// RecoveryCodeLength はリカバリーコードの文字数。
const RecoveryCodeLength = 32

// Authenticator は1種類のアカウント（一般ユーザーまたは管理者）の二段階認証を検証する。
type Authenticator struct {
	kind     model.AccountKind
	tx       repository.TxRunner
	accounts repository.AccountRepository
	mfaInfos repository.MfaInfoRepository
	metrics  metrics.MetricsCollector
}

// NewAuthenticator はAuthenticatorを生成する。
func NewAuthenticator(
	kind model.AccountKind,
	tx repository.TxRunner,
	accounts repository.AccountRepository,
	mfaInfos repository.MfaInfoRepository,
	m metrics.MetricsCollector,
) *Authenticator {
	if m == nil {
		m = metrics.NopCollector{}
	}
	return &Authenticator{kind: kind, tx: tx, accounts: accounts, mfaInfos: mfaInfos, metrics: m}
}

// loadEnabled はアカウントと二段階認証情報を取得する。二段階認証が有効でなければMfaIsNotEnabledを返す。
func (a *Authenticator) loadEnabled(ctx context.Context, accountID int64, forUpdate bool) (*model.MfaInfo, error) {
	find := a.accounts.FindByID
	if forUpdate {
		find = a.accounts.FindByIDForUpdate
	}
	account, err := find(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("アカウントが存在しません: %s account_id=%d", a.kind, accountID)
	}
	if !account.MfaEnabled() {
		return nil, model.NewMfaIsNotEnabledError()
	}

	info, err := a.mfaInfos.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("二段階認証情報の取得に失敗しました: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("二段階認証情報が存在しません: %s account_id=%d", a.kind, accountID)
	}
	return info, nil
}

// VerifyPassCode はパスコードを検証する。
// 現在の30秒ステップと1つ前のステップのパスコードを受け付ける。
func (a *Authenticator) VerifyPassCode(ctx context.Context, accountID int64, now time.Time, passCode string) error {
	if !isPassCodeFormat(passCode) {
		return model.NewInvalidPassCodeError()
	}

	info, err := a.loadEnabled(ctx, accountID, false)
	if err != nil {
		return err
	}
	secret, err := DecodeSecret(info.Base32EncodedSecret)
	if err != nil {
		return err
	}

	ok := matchPassCode(secret, passCode, now)
	a.metrics.RecordMfaVerification("pass_code", ok)
	if !ok {
		return model.NewPassCodeDoesNotMatchError()
	}
	return nil
}

// VerifyRecoveryCode はリカバリーコードを検証し、一致した場合は二段階認証を無効化する。
// 検証と無効化は1つのトランザクション内で行うため、同じリカバリーコードは1度しか使えない。
func (a *Authenticator) VerifyRecoveryCode(ctx context.Context, accountID int64, recoveryCode string) error {
	if !isRecoveryCodeFormat(recoveryCode) {
		return model.NewInvalidRecoveryCodeError()
	}

	return a.tx.WithinTx(ctx, func(ctx context.Context) error {
		info, err := a.loadEnabled(ctx, accountID, true)
		if err != nil {
			return err
		}

		err = bcrypt.CompareHashAndPassword(info.HashedRecoveryCode, []byte(recoveryCode))
		a.metrics.RecordMfaVerification("recovery_code", err == nil)
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return model.NewRecoveryCodeDoesNotMatchError()
		}
		if err != nil {
			return fmt.Errorf("リカバリーコードの照合に失敗しました: %w", err)
		}

		return a.disable(ctx, accountID)
	})
}

// DisableMfa はアカウントの二段階認証を無効化する。
// アカウントを排他ロックしてから二段階認証情報を削除し、有効化日時をクリアする。
func (a *Authenticator) DisableMfa(ctx context.Context, accountID int64) error {
	return a.tx.WithinTx(ctx, func(ctx context.Context) error {
		account, err := a.accounts.FindByIDForUpdate(ctx, accountID)
		if err != nil {
			return fmt.Errorf("アカウントの取得に失敗しました: %w", err)
		}
		if account == nil {
			return fmt.Errorf("アカウントが存在しません: %s account_id=%d", a.kind, accountID)
		}
		return a.disable(ctx, accountID)
	})
}

func (a *Authenticator) disable(ctx context.Context, accountID int64) error {
	if err := a.mfaInfos.DeleteByAccountID(ctx, accountID); err != nil {
		return fmt.Errorf("二段階認証情報の削除に失敗しました: %w", err)
	}
	if err := a.accounts.ClearMfaEnabled(ctx, accountID); err != nil {
		return fmt.Errorf("二段階認証の無効化に失敗しました: %w", err)
	}
	slog.Info("二段階認証を無効化しました",
		slog.String("kind", string(a.kind)),
		slog.Int64("account_id", accountID),
	)
	return nil
}

// isRecoveryCodeFormat はcodeが32文字の英数字かを返す。
func isRecoveryCodeFormat(code string) bool {
	if len(code) != RecoveryCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}
