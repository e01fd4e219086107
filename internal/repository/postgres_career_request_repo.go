package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/careerconsult/internal/model"
)

const careerRequestColumns = `career_request_id, user_account_id, company_name, department_name, office,
	career_start_date, career_end_date, contract_type, profession, annual_income_in_man_yen,
	is_manager, position_name, is_new_graduate, note, image1_file_name, image2_file_name, requested_at`

// PostgresCareerRequestRepo はPostgreSQLを使用した職務経歴申請リポジトリ。
type PostgresCareerRequestRepo struct {
	db *sql.DB
}

var _ CareerRequestRepository = (*PostgresCareerRequestRepo)(nil)

// NewPostgresCareerRequestRepo はPostgresCareerRequestRepoを生成する。
func NewPostgresCareerRequestRepo(db *sql.DB) *PostgresCareerRequestRepo {
	return &PostgresCareerRequestRepo{db: db}
}

// FindByID は指定IDの申請を取得する。見つからない場合はnilを返す。
func (r *PostgresCareerRequestRepo) FindByID(ctx context.Context, requestID int64) (*model.CareerRequest, error) {
	return r.find(ctx, requestID, "")
}

// FindByIDForUpdate は指定IDの申請をFOR UPDATEで取得する。見つからない場合はnilを返す。
func (r *PostgresCareerRequestRepo) FindByIDForUpdate(ctx context.Context, requestID int64) (*model.CareerRequest, error) {
	return r.find(ctx, requestID, "FOR UPDATE")
}

func (r *PostgresCareerRequestRepo) find(ctx context.Context, requestID int64, lock string) (*model.CareerRequest, error) {
	req := &model.CareerRequest{}
	var (
		departmentName, office, profession, positionName, note, image2 sql.NullString
		careerEndDate                                                  sql.NullTime
		annualIncome                                                   sql.NullInt32
		contractType                                                   string
	)
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+careerRequestColumns+` FROM career_requests WHERE career_request_id = $1 `+lock,
		requestID,
	).Scan(
		&req.CareerRequestID, &req.UserAccountID, &req.CompanyName, &departmentName, &office,
		&req.CareerStartDate, &careerEndDate, &contractType, &profession, &annualIncome,
		&req.IsManager, &positionName, &req.IsNewGraduate, &note, &req.Image1FileName, &image2, &req.RequestedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find career request: %w", err)
	}

	req.DepartmentName = nullStringPtr(departmentName)
	req.Office = nullStringPtr(office)
	req.CareerEndDate = nullTimePtr(careerEndDate)
	req.ContractType = model.ContractType(contractType)
	req.Profession = nullStringPtr(profession)
	req.AnnualIncomeInManYen = nullInt32Ptr(annualIncome)
	req.PositionName = nullStringPtr(positionName)
	req.Note = nullStringPtr(note)
	req.Image2FileName = nullStringPtr(image2)
	return req, nil
}

// DeleteByID は指定IDの申請を削除する。
func (r *PostgresCareerRequestRepo) DeleteByID(ctx context.Context, requestID int64) error {
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM career_requests WHERE career_request_id = $1`,
		requestID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete career request: %w", err)
	}
	return nil
}

// InsertApproved は承認履歴を記録する。
func (r *PostgresCareerRequestRepo) InsertApproved(ctx context.Context, approved *model.ApprovedCareerRequest) error {
	req := approved.CareerRequest
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO approved_career_requests (
			user_account_id, company_name, department_name, office, career_start_date, career_end_date,
			contract_type, profession, annual_income_in_man_yen, is_manager, position_name,
			is_new_graduate, note, image1_file_name, image2_file_name, approved_at, approved_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		req.UserAccountID, req.CompanyName, req.DepartmentName, req.Office, req.CareerStartDate, req.CareerEndDate,
		string(req.ContractType), req.Profession, req.AnnualIncomeInManYen, req.IsManager, req.PositionName,
		req.IsNewGraduate, req.Note, req.Image1FileName, req.Image2FileName, approved.ApprovedAt, approved.ApprovedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert approved career request: %w", err)
	}
	return nil
}

// InsertRejected は拒否履歴を記録する。
func (r *PostgresCareerRequestRepo) InsertRejected(ctx context.Context, rejected *model.RejectedCareerRequest) error {
	req := rejected.CareerRequest
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO rejected_career_requests (
			user_account_id, company_name, department_name, office, career_start_date, career_end_date,
			contract_type, profession, annual_income_in_man_yen, is_manager, position_name,
			is_new_graduate, note, reason, rejected_at, rejected_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		req.UserAccountID, req.CompanyName, req.DepartmentName, req.Office, req.CareerStartDate, req.CareerEndDate,
		string(req.ContractType), req.Profession, req.AnnualIncomeInManYen, req.IsManager, req.PositionName,
		req.IsNewGraduate, req.Note, rejected.Reason, rejected.RejectedAt, rejected.RejectedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rejected career request: %w", err)
	}
	return nil
}

// PostgresCareerRepo はPostgreSQLを使用した承認済み職務経歴リポジトリ。
type PostgresCareerRepo struct {
	db *sql.DB
}

var _ CareerRepository = (*PostgresCareerRepo)(nil)

// NewPostgresCareerRepo はPostgresCareerRepoを生成する。
func NewPostgresCareerRepo(db *sql.DB) *PostgresCareerRepo {
	return &PostgresCareerRepo{db: db}
}

// Insert は職務経歴を追加し、採番されたIDを返す。
func (r *PostgresCareerRepo) Insert(ctx context.Context, career *model.Career) (int64, error) {
	var careerID int64
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO careers (
			user_account_id, company_name, department_name, office, career_start_date, career_end_date,
			contract_type, profession, annual_income_in_man_yen, is_manager, position_name,
			is_new_graduate, note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING career_id`,
		career.UserAccountID, career.CompanyName, career.DepartmentName, career.Office, career.CareerStartDate, career.CareerEndDate,
		string(career.ContractType), career.Profession, career.AnnualIncomeInManYen, career.IsManager, career.PositionName,
		career.IsNewGraduate, career.Note,
	).Scan(&careerID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert career: %w", err)
	}
	return careerID, nil
}
