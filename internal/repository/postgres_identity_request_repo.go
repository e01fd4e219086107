package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/careerconsult/internal/model"
)

const identityRequestColumns = `identity_request_id, user_account_id, last_name, first_name,
	last_name_furigana, first_name_furigana, date_of_birth, prefecture, city,
	address_line1, address_line2, telephone_number, image1_file_name, image2_file_name, requested_at`

// PostgresIdentityRequestRepo はPostgreSQLを使用した本人確認申請リポジトリ。
type PostgresIdentityRequestRepo struct {
	db *sql.DB
}

var _ IdentityRequestRepository = (*PostgresIdentityRequestRepo)(nil)

// NewPostgresIdentityRequestRepo はPostgresIdentityRequestRepoを生成する。
func NewPostgresIdentityRequestRepo(db *sql.DB) *PostgresIdentityRequestRepo {
	return &PostgresIdentityRequestRepo{db: db}
}

// FindByID は指定IDの申請を取得する。見つからない場合はnilを返す。
func (r *PostgresIdentityRequestRepo) FindByID(ctx context.Context, requestID int64) (*model.IdentityRequest, error) {
	return r.find(ctx, requestID, "")
}

// FindByIDForUpdate は指定IDの申請をFOR UPDATEで取得する。見つからない場合はnilを返す。
func (r *PostgresIdentityRequestRepo) FindByIDForUpdate(ctx context.Context, requestID int64) (*model.IdentityRequest, error) {
	return r.find(ctx, requestID, "FOR UPDATE")
}

func (r *PostgresIdentityRequestRepo) find(ctx context.Context, requestID int64, lock string) (*model.IdentityRequest, error) {
	req := &model.IdentityRequest{}
	var addressLine2, image2 sql.NullString
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+identityRequestColumns+` FROM identity_requests WHERE identity_request_id = $1 `+lock,
		requestID,
	).Scan(
		&req.IdentityRequestID, &req.UserAccountID, &req.LastName, &req.FirstName,
		&req.LastNameFurigana, &req.FirstNameFurigana, &req.DateOfBirth, &req.Prefecture, &req.City,
		&req.AddressLine1, &addressLine2, &req.TelephoneNumber, &req.Image1FileName, &image2, &req.RequestedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity request: %w", err)
	}

	req.AddressLine2 = nullStringPtr(addressLine2)
	req.Image2FileName = nullStringPtr(image2)
	return req, nil
}

// DeleteByID は指定IDの申請を削除する。
func (r *PostgresIdentityRequestRepo) DeleteByID(ctx context.Context, requestID int64) error {
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM identity_requests WHERE identity_request_id = $1`,
		requestID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete identity request: %w", err)
	}
	return nil
}

// InsertApproved は承認履歴を記録する。
func (r *PostgresIdentityRequestRepo) InsertApproved(ctx context.Context, approved *model.ApprovedIdentityRequest) error {
	req := approved.IdentityRequest
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO approved_identity_requests (
			user_account_id, last_name, first_name, last_name_furigana, first_name_furigana,
			date_of_birth, prefecture, city, address_line1, address_line2, telephone_number,
			image1_file_name, image2_file_name, approved_at, approved_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		req.UserAccountID, req.LastName, req.FirstName, req.LastNameFurigana, req.FirstNameFurigana,
		req.DateOfBirth, req.Prefecture, req.City, req.AddressLine1, req.AddressLine2, req.TelephoneNumber,
		req.Image1FileName, req.Image2FileName, approved.ApprovedAt, approved.ApprovedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert approved identity request: %w", err)
	}
	return nil
}

// InsertRejected は拒否履歴を記録する。拒否時は画像を削除するため画像ファイル名は記録しない。
func (r *PostgresIdentityRequestRepo) InsertRejected(ctx context.Context, rejected *model.RejectedIdentityRequest) error {
	req := rejected.IdentityRequest
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO rejected_identity_requests (
			user_account_id, last_name, first_name, last_name_furigana, first_name_furigana,
			date_of_birth, prefecture, city, address_line1, address_line2, telephone_number,
			reason, rejected_at, rejected_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		req.UserAccountID, req.LastName, req.FirstName, req.LastNameFurigana, req.FirstNameFurigana,
		req.DateOfBirth, req.Prefecture, req.City, req.AddressLine1, req.AddressLine2, req.TelephoneNumber,
		rejected.Reason, rejected.RejectedAt, rejected.RejectedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rejected identity request: %w", err)
	}
	return nil
}

// PostgresIdentityRepo はPostgreSQLを使用した承認済み本人情報リポジトリ。
type PostgresIdentityRepo struct {
	db *sql.DB
}

var _ IdentityRepository = (*PostgresIdentityRepo)(nil)

// NewPostgresIdentityRepo はPostgresIdentityRepoを生成する。
func NewPostgresIdentityRepo(db *sql.DB) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{db: db}
}

// Upsert は本人情報を作成する。既に存在する場合は上書きする。
func (r *PostgresIdentityRepo) Upsert(ctx context.Context, identity *model.Identity) error {
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO identities (
			user_account_id, last_name, first_name, last_name_furigana, first_name_furigana,
			date_of_birth, prefecture, city, address_line1, address_line2, telephone_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_account_id) DO UPDATE SET
			last_name = EXCLUDED.last_name,
			first_name = EXCLUDED.first_name,
			last_name_furigana = EXCLUDED.last_name_furigana,
			first_name_furigana = EXCLUDED.first_name_furigana,
			date_of_birth = EXCLUDED.date_of_birth,
			prefecture = EXCLUDED.prefecture,
			city = EXCLUDED.city,
			address_line1 = EXCLUDED.address_line1,
			address_line2 = EXCLUDED.address_line2,
			telephone_number = EXCLUDED.telephone_number`,
		identity.UserAccountID, identity.LastName, identity.FirstName, identity.LastNameFurigana, identity.FirstNameFurigana,
		identity.DateOfBirth, identity.Prefecture, identity.City, identity.AddressLine1, identity.AddressLine2, identity.TelephoneNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert identity: %w", err)
	}
	return nil
}
