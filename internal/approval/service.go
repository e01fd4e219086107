// Package approval は本人確認・職務経歴申請の審査（承認／拒否）のドメインロジックを提供する。
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/careerconsult/internal/metrics"
	"github.com/hitoshi/careerconsult/internal/model"
	"github.com/hitoshi/careerconsult/internal/repository"
	"github.com/hitoshi/careerconsult/internal/security"
)

// ImageStore は申請に添付された画像ファイルの保管先。
type ImageStore interface {
	// Delete はアカウントに紐づく指定ファイルを削除する。存在しないファイルはエラーにしない。
	Delete(ctx context.Context, accountID int64, fileNames ...string) error
}

// Deps はServiceの依存関係。
type Deps struct {
	Tx               repository.TxRunner
	Accounts         repository.AccountRepository
	IdentityRequests repository.IdentityRequestRepository
	Identities       repository.IdentityRepository
	CareerRequests   repository.CareerRequestRepository
	Careers          repository.CareerRepository
	Images           ImageStore
	Reasons          security.ReasonValidator
	Metrics          metrics.MetricsCollector
}

// Service は申請審査のサービス層。
// 1回の審査は1つのトランザクション内で完結し、審査待ち申請を必ず削除する。
type Service struct {
	tx               repository.TxRunner
	accounts         repository.AccountRepository
	identityRequests repository.IdentityRequestRepository
	identities       repository.IdentityRepository
	careerRequests   repository.CareerRequestRepository
	careers          repository.CareerRepository
	images           ImageStore
	reasons          security.ReasonValidator
	metrics          metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(deps Deps) *Service {
	m := deps.Metrics
	if m == nil {
		m = metrics.NopCollector{}
	}
	return &Service{
		tx:               deps.Tx,
		accounts:         deps.Accounts,
		identityRequests: deps.IdentityRequests,
		identities:       deps.Identities,
		careerRequests:   deps.CareerRequests,
		careers:          deps.Careers,
		images:           deps.Images,
		reasons:          deps.Reasons,
		metrics:          m,
	}
}

// requestOps は申請の種類ごとのリポジトリ操作。
type requestOps[R any] struct {
	kind          string
	find          func(ctx context.Context, requestID int64) (*R, error)
	findForUpdate func(ctx context.Context, requestID int64) (*R, error)
	deleteByID    func(ctx context.Context, requestID int64) error
	accountID     func(req *R) int64
	imageFiles    func(req *R) []string
}

func (s *Service) identityOps() requestOps[model.IdentityRequest] {
	return requestOps[model.IdentityRequest]{
		kind:          "identity",
		find:          s.identityRequests.FindByID,
		findForUpdate: s.identityRequests.FindByIDForUpdate,
		deleteByID:    s.identityRequests.DeleteByID,
		accountID:     func(req *model.IdentityRequest) int64 { return req.UserAccountID },
		imageFiles:    func(req *model.IdentityRequest) []string { return req.ImageFileNames() },
	}
}

func (s *Service) careerOps() requestOps[model.CareerRequest] {
	return requestOps[model.CareerRequest]{
		kind:          "career",
		find:          s.careerRequests.FindByID,
		findForUpdate: s.careerRequests.FindByIDForUpdate,
		deleteByID:    s.careerRequests.DeleteByID,
		accountID:     func(req *model.CareerRequest) int64 { return req.UserAccountID },
		imageFiles:    func(req *model.CareerRequest) []string { return req.ImageFileNames() },
	}
}

// decision は審査の種類。
type decision struct {
	name string
	// deleteImagesOnSkip は対象アカウントが存在しない・無効化済みの場合にも画像を削除するか。
	deleteImagesOnSkip bool
}

var (
	approveDecision = decision{name: "approve"}
	rejectDecision  = decision{name: "reject", deleteImagesOnSkip: true}
)

// decide は審査の共通手順を1つのトランザクション内で実行する。
// 戻り値は通知先のメールアドレス。対象アカウントが存在しない・無効化済みの場合はnil。
//
//  1. 申請を読み取り、対象アカウントを特定する（存在しなければRequestNotFound）
//  2. 対象アカウントを共有ロックで読み取る
//  3. 申請を排他ロックで読み直す（並行する審査に先を越された場合はRequestNotFound）
//  4. 対象アカウントが存在しない・無効化済みなら申請を削除して終了
//  5. apply（本人情報の反映と履歴の記録）
//  6. 申請と添付画像を削除する
func decide[R any](
	ctx context.Context,
	s *Service,
	ops requestOps[R],
	d decision,
	requestID int64,
	apply func(ctx context.Context, req *R) error,
) (*string, error) {
	var recipient *string

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := ops.find(ctx, requestID)
		if err != nil {
			return fmt.Errorf("申請の取得に失敗しました: %w", err)
		}
		if req == nil {
			return model.NewRequestNotFoundError(requestID)
		}
		accountID := ops.accountID(req)

		account, err := s.accounts.FindByIDWithSharedLock(ctx, accountID)
		if err != nil {
			return fmt.Errorf("アカウントの取得に失敗しました: %w", err)
		}

		locked, err := ops.findForUpdate(ctx, requestID)
		if err != nil {
			return fmt.Errorf("申請の取得に失敗しました: %w", err)
		}
		if locked == nil {
			return model.NewRequestNotFoundError(requestID)
		}

		if account == nil || account.Disabled() {
			if err := ops.deleteByID(ctx, requestID); err != nil {
				return fmt.Errorf("申請の削除に失敗しました: %w", err)
			}
			if d.deleteImagesOnSkip {
				if err := s.images.Delete(ctx, accountID, ops.imageFiles(locked)...); err != nil {
					return fmt.Errorf("画像の削除に失敗しました: %w", err)
				}
			}
			slog.Info("対象アカウントが存在しないか無効化されているため申請を破棄しました",
				slog.String("kind", ops.kind),
				slog.String("decision", d.name),
				slog.Int64("request_id", requestID),
				slog.Int64("account_id", accountID),
			)
			return nil
		}

		if err := apply(ctx, locked); err != nil {
			return err
		}

		if err := ops.deleteByID(ctx, requestID); err != nil {
			return fmt.Errorf("申請の削除に失敗しました: %w", err)
		}
		if err := s.images.Delete(ctx, accountID, ops.imageFiles(locked)...); err != nil {
			return fmt.Errorf("画像の削除に失敗しました: %w", err)
		}

		email := account.Email
		recipient = &email
		return nil
	})

	s.recordDecision(ops.kind, d.name, recipient, err)
	if err != nil {
		return nil, err
	}
	return recipient, nil
}

func (s *Service) recordDecision(kind, decisionName string, recipient *string, err error) {
	var apiErr *model.APIError
	switch {
	case err == nil && recipient == nil:
		s.metrics.RecordApprovalDecision(kind, decisionName, metrics.ResultSkipped)
	case err == nil:
		s.metrics.RecordApprovalDecision(kind, decisionName, metrics.ResultSuccess)
	case errors.As(err, &apiErr):
		s.metrics.RecordApprovalDecision(kind, decisionName, metrics.ResultBusinessError)
	default:
		s.metrics.RecordApprovalDecision(kind, decisionName, metrics.ResultError)
	}
}

func (s *Service) validateReason(reason string) error {
	if err := s.reasons.Validate(reason); err != nil {
		return model.NewInvalidReasonError(err.Error())
	}
	return nil
}

// ApproveIdentity は本人確認申請を承認する。
// 本人情報を作成（既存なら上書き）し、承認履歴を記録する。
func (s *Service) ApproveIdentity(ctx context.Context, requestID int64, approvedBy string, now time.Time) (*string, error) {
	return decide(ctx, s, s.identityOps(), approveDecision, requestID,
		func(ctx context.Context, req *model.IdentityRequest) error {
			if err := s.identities.Upsert(ctx, req.ToIdentity()); err != nil {
				return fmt.Errorf("本人情報の更新に失敗しました: %w", err)
			}
			approved := &model.ApprovedIdentityRequest{
				IdentityRequest: *req,
				ApprovedAt:      now,
				ApprovedBy:      approvedBy,
			}
			if err := s.identityRequests.InsertApproved(ctx, approved); err != nil {
				return fmt.Errorf("承認履歴の記録に失敗しました: %w", err)
			}
			return nil
		})
}

// RejectIdentity は本人確認申請を拒否する。
// 理由はトランザクション開始前に検証する。
func (s *Service) RejectIdentity(ctx context.Context, requestID int64, reason, rejectedBy string, now time.Time) (*string, error) {
	if err := s.validateReason(reason); err != nil {
		s.metrics.RecordApprovalDecision("identity", rejectDecision.name, metrics.ResultBusinessError)
		return nil, err
	}
	return decide(ctx, s, s.identityOps(), rejectDecision, requestID,
		func(ctx context.Context, req *model.IdentityRequest) error {
			rejected := &model.RejectedIdentityRequest{
				IdentityRequest: *req,
				Reason:          reason,
				RejectedAt:      now,
				RejectedBy:      rejectedBy,
			}
			if err := s.identityRequests.InsertRejected(ctx, rejected); err != nil {
				return fmt.Errorf("拒否履歴の記録に失敗しました: %w", err)
			}
			return nil
		})
}

// ApproveCareer は職務経歴申請を承認する。
// 職務経歴を追加し、承認履歴を記録する。
func (s *Service) ApproveCareer(ctx context.Context, requestID int64, approvedBy string, now time.Time) (*string, error) {
	return decide(ctx, s, s.careerOps(), approveDecision, requestID,
		func(ctx context.Context, req *model.CareerRequest) error {
			if _, err := s.careers.Insert(ctx, req.ToCareer()); err != nil {
				return fmt.Errorf("職務経歴の追加に失敗しました: %w", err)
			}
			approved := &model.ApprovedCareerRequest{
				CareerRequest: *req,
				ApprovedAt:    now,
				ApprovedBy:    approvedBy,
			}
			if err := s.careerRequests.InsertApproved(ctx, approved); err != nil {
				return fmt.Errorf("承認履歴の記録に失敗しました: %w", err)
			}
			return nil
		})
}

// RejectCareer は職務経歴申請を拒否する。
func (s *Service) RejectCareer(ctx context.Context, requestID int64, reason, rejectedBy string, now time.Time) (*string, error) {
	if err := s.validateReason(reason); err != nil {
		s.metrics.RecordApprovalDecision("career", rejectDecision.name, metrics.ResultBusinessError)
		return nil, err
	}
	return decide(ctx, s, s.careerOps(), rejectDecision, requestID,
		func(ctx context.Context, req *model.CareerRequest) error {
			rejected := &model.RejectedCareerRequest{
				CareerRequest: *req,
				Reason:        reason,
				RejectedAt:    now,
				RejectedBy:    rejectedBy,
			}
			if err := s.careerRequests.InsertRejected(ctx, rejected); err != nil {
				return fmt.Errorf("拒否履歴の記録に失敗しました: %w", err)
			}
			return nil
		})
}
