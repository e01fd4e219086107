package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/careerconsult/internal/model"
)

// accountTable はアカウント種別ごとのテーブル定義。
type accountTable struct {
	kind     model.AccountKind
	table    string
	idColumn string
	// disabledColumn は無効化日時のカラム。管理者テーブルには存在しないため空文字。
	disabledColumn string
}

var (
	userAccountTable = accountTable{
		kind:           model.AccountKindUser,
		table:          "user_accounts",
		idColumn:       "user_account_id",
		disabledColumn: "disabled_at",
	}
	adminAccountTable = accountTable{
		kind:     model.AccountKindAdmin,
		table:    "admin_accounts",
		idColumn: "admin_account_id",
	}
)

func (t accountTable) selectColumns() string {
	disabled := "NULL::timestamptz"
	if t.disabledColumn != "" {
		disabled = t.disabledColumn
	}
	return fmt.Sprintf("%s, email, hashed_password, last_login_time, created_at, mfa_enabled_at, %s", t.idColumn, disabled)
}

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db    *sql.DB
	table accountTable
}

var _ AccountRepository = (*PostgresAccountRepo)(nil)

// NewPostgresUserAccountRepo は一般ユーザー用のPostgresAccountRepoを生成する。
func NewPostgresUserAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db, table: userAccountTable}
}

// NewPostgresAdminAccountRepo は管理者用のPostgresAccountRepoを生成する。
func NewPostgresAdminAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db, table: adminAccountTable}
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, accountID int64) (*model.Account, error) {
	return r.findOne(ctx, r.table.idColumn+" = $1", "", accountID)
}

// FindByEmail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, "email = $1", "", email)
}

// FindByIDWithSharedLock は指定IDのアカウントを共有ロック付きで取得する。
func (r *PostgresAccountRepo) FindByIDWithSharedLock(ctx context.Context, accountID int64) (*model.Account, error) {
	return r.findOne(ctx, r.table.idColumn+" = $1", "FOR SHARE", accountID)
}

// FindByIDForUpdate は指定IDのアカウントを排他ロック付きで取得する。
func (r *PostgresAccountRepo) FindByIDForUpdate(ctx context.Context, accountID int64) (*model.Account, error) {
	return r.findOne(ctx, r.table.idColumn+" = $1", "FOR UPDATE", accountID)
}

func (r *PostgresAccountRepo) findOne(ctx context.Context, where, lock string, arg any) (*model.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s %s", r.table.selectColumns(), r.table.table, where, lock)

	account := &model.Account{Kind: r.table.kind}
	var mfaEnabledAt, disabledAt sql.NullTime
	err := executor(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&account.AccountID, &account.Email, &account.HashedPassword,
		&account.LastLoginTime, &account.CreatedAt, &mfaEnabledAt, &disabledAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s account: %w", r.table.kind, err)
	}

	if mfaEnabledAt.Valid {
		account.MfaEnabledAt = &mfaEnabledAt.Time
	}
	if disabledAt.Valid {
		account.DisabledAt = &disabledAt.Time
	}
	return account, nil
}

// UpdateLastLoginTime は最終ログイン日時を更新する。
func (r *PostgresAccountRepo) UpdateLastLoginTime(ctx context.Context, accountID int64, loginTime time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET last_login_time = $1 WHERE %s = $2", r.table.table, r.table.idColumn)
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, loginTime, accountID); err != nil {
		return fmt.Errorf("failed to update last login time: %w", err)
	}
	return nil
}

// ClearMfaEnabled は二段階認証の有効化日時をクリアする。
func (r *PostgresAccountRepo) ClearMfaEnabled(ctx context.Context, accountID int64) error {
	query := fmt.Sprintf("UPDATE %s SET mfa_enabled_at = NULL WHERE %s = $1", r.table.table, r.table.idColumn)
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("failed to clear mfa_enabled_at: %w", err)
	}
	return nil
}

// PostgresMfaInfoRepo はPostgreSQLを使用した二段階認証情報リポジトリ。
type PostgresMfaInfoRepo struct {
	db       *sql.DB
	table    string
	idColumn string
}

var _ MfaInfoRepository = (*PostgresMfaInfoRepo)(nil)

// NewPostgresUserMfaInfoRepo は一般ユーザー用のPostgresMfaInfoRepoを生成する。
func NewPostgresUserMfaInfoRepo(db *sql.DB) *PostgresMfaInfoRepo {
	return &PostgresMfaInfoRepo{db: db, table: "mfa_infos", idColumn: "user_account_id"}
}

// NewPostgresAdminMfaInfoRepo は管理者用のPostgresMfaInfoRepoを生成する。
func NewPostgresAdminMfaInfoRepo(db *sql.DB) *PostgresMfaInfoRepo {
	return &PostgresMfaInfoRepo{db: db, table: "admin_mfa_infos", idColumn: "admin_account_id"}
}

// FindByAccountID はアカウントの二段階認証情報を取得する。見つからない場合はnilを返す。
func (r *PostgresMfaInfoRepo) FindByAccountID(ctx context.Context, accountID int64) (*model.MfaInfo, error) {
	query := fmt.Sprintf("SELECT %s, base32_encoded_secret, hashed_recovery_code FROM %s WHERE %s = $1", r.idColumn, r.table, r.idColumn)

	info := &model.MfaInfo{}
	err := executor(ctx, r.db).QueryRowContext(ctx, query, accountID).Scan(
		&info.AccountID, &info.Base32EncodedSecret, &info.HashedRecoveryCode,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find mfa info: %w", err)
	}
	return info, nil
}

// DeleteByAccountID はアカウントの二段階認証情報を削除する。
func (r *PostgresMfaInfoRepo) DeleteByAccountID(ctx context.Context, accountID int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", r.table, r.idColumn)
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("failed to delete mfa info: %w", err)
	}
	return nil
}
