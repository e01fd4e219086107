package memrepo

import (
	"context"
	"time"

	"github.com/hitoshi/careerconsult/internal/model"
	"github.com/hitoshi/careerconsult/internal/repository"
)

// Accounts はアカウント種別に応じたAccountRepositoryを返す。
func (s *Store) Accounts(kind model.AccountKind) repository.AccountRepository {
	return &accountRepo{s: s, kind: kind}
}

// MfaInfos はアカウント種別に応じたMfaInfoRepositoryを返す。
func (s *Store) MfaInfos(kind model.AccountKind) repository.MfaInfoRepository {
	return &mfaInfoRepo{s: s, kind: kind}
}

// IdentityRequests はIdentityRequestRepositoryを返す。
func (s *Store) IdentityRequests() repository.IdentityRequestRepository {
	return &identityRequestRepo{s: s}
}

// Identities はIdentityRepositoryを返す。
func (s *Store) Identities() repository.IdentityRepository { return &identityRepo{s: s} }

// CareerRequests はCareerRequestRepositoryを返す。
func (s *Store) CareerRequests() repository.CareerRequestRepository {
	return &careerRequestRepo{s: s}
}

// Careers はCareerRepositoryを返す。
func (s *Store) Careers() repository.CareerRepository { return &careerRepo{s: s} }

// BankAccounts はBankAccountRepositoryを返す。
func (s *Store) BankAccounts() repository.BankAccountRepository { return &bankAccountRepo{s: s} }

// AwaitingWithdrawals はAwaitingWithdrawalRepositoryを返す。
func (s *Store) AwaitingWithdrawals() repository.AwaitingWithdrawalRepository {
	return &awaitingWithdrawalRepo{s: s}
}

// AwaitingPayments はAwaitingPaymentRepositoryを返す。
func (s *Store) AwaitingPayments() repository.AwaitingPaymentRepository {
	return &awaitingPaymentRepo{s: s}
}

// SettlementOutcomes はSettlementOutcomeRepositoryを返す。
func (s *Store) SettlementOutcomes() repository.SettlementOutcomeRepository {
	return &outcomeRepo{s: s}
}

func accountsOf(st *state, kind model.AccountKind) map[int64]model.Account {
	if kind == model.AccountKindAdmin {
		return st.adminAccounts
	}
	return st.userAccounts
}

func mfaOf(st *state, kind model.AccountKind) map[int64]model.MfaInfo {
	if kind == model.AccountKindAdmin {
		return st.adminMfa
	}
	return st.userMfa
}

type accountRepo struct {
	s    *Store
	kind model.AccountKind
}

func (r *accountRepo) find(ctx context.Context, op string, accountID int64) (*model.Account, error) {
	var found *model.Account
	err := r.s.with(ctx, "Accounts."+op, func(st *state) error {
		if a, ok := accountsOf(st, r.kind)[accountID]; ok {
			found = &a
		}
		return nil
	})
	return found, err
}

func (r *accountRepo) FindByID(ctx context.Context, accountID int64) (*model.Account, error) {
	return r.find(ctx, "FindByID", accountID)
}

func (r *accountRepo) FindByIDWithSharedLock(ctx context.Context, accountID int64) (*model.Account, error) {
	return r.find(ctx, "FindByIDWithSharedLock", accountID)
}

func (r *accountRepo) FindByIDForUpdate(ctx context.Context, accountID int64) (*model.Account, error) {
	return r.find(ctx, "FindByIDForUpdate", accountID)
}

func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var found *model.Account
	err := r.s.with(ctx, "Accounts.FindByEmail", func(st *state) error {
		for _, a := range accountsOf(st, r.kind) {
			if a.Email == email {
				found = &a
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *accountRepo) UpdateLastLoginTime(ctx context.Context, accountID int64, loginTime time.Time) error {
	return r.s.with(ctx, "Accounts.UpdateLastLoginTime", func(st *state) error {
		accounts := accountsOf(st, r.kind)
		if a, ok := accounts[accountID]; ok {
			a.LastLoginTime = loginTime
			accounts[accountID] = a
		}
		return nil
	})
}

func (r *accountRepo) ClearMfaEnabled(ctx context.Context, accountID int64) error {
	return r.s.with(ctx, "Accounts.ClearMfaEnabled", func(st *state) error {
		accounts := accountsOf(st, r.kind)
		if a, ok := accounts[accountID]; ok {
			a.MfaEnabledAt = nil
			accounts[accountID] = a
		}
		return nil
	})
}

type mfaInfoRepo struct {
	s    *Store
	kind model.AccountKind
}

func (r *mfaInfoRepo) FindByAccountID(ctx context.Context, accountID int64) (*model.MfaInfo, error) {
	var found *model.MfaInfo
	err := r.s.with(ctx, "MfaInfos.FindByAccountID", func(st *state) error {
		if info, ok := mfaOf(st, r.kind)[accountID]; ok {
			found = &info
		}
		return nil
	})
	return found, err
}

func (r *mfaInfoRepo) DeleteByAccountID(ctx context.Context, accountID int64) error {
	return r.s.with(ctx, "MfaInfos.DeleteByAccountID", func(st *state) error {
		delete(mfaOf(st, r.kind), accountID)
		return nil
	})
}

type identityRequestRepo struct{ s *Store }

func (r *identityRequestRepo) find(ctx context.Context, op string, requestID int64) (*model.IdentityRequest, error) {
	var found *model.IdentityRequest
	err := r.s.with(ctx, "IdentityRequests."+op, func(st *state) error {
		if req, ok := st.identityRequests[requestID]; ok {
			found = &req
		}
		return nil
	})
	return found, err
}

func (r *identityRequestRepo) FindByID(ctx context.Context, requestID int64) (*model.IdentityRequest, error) {
	return r.find(ctx, "FindByID", requestID)
}

func (r *identityRequestRepo) FindByIDForUpdate(ctx context.Context, requestID int64) (*model.IdentityRequest, error) {
	return r.find(ctx, "FindByIDForUpdate", requestID)
}

func (r *identityRequestRepo) DeleteByID(ctx context.Context, requestID int64) error {
	return r.s.with(ctx, "IdentityRequests.DeleteByID", func(st *state) error {
		delete(st.identityRequests, requestID)
		return nil
	})
}

func (r *identityRequestRepo) InsertApproved(ctx context.Context, approved *model.ApprovedIdentityRequest) error {
	return r.s.with(ctx, "IdentityRequests.InsertApproved", func(st *state) error {
		st.approvedIdentity = append(st.approvedIdentity, *approved)
		return nil
	})
}

func (r *identityRequestRepo) InsertRejected(ctx context.Context, rejected *model.RejectedIdentityRequest) error {
	return r.s.with(ctx, "IdentityRequests.InsertRejected", func(st *state) error {
		st.rejectedIdentity = append(st.rejectedIdentity, *rejected)
		return nil
	})
}

type identityRepo struct{ s *Store }

func (r *identityRepo) Upsert(ctx context.Context, identity *model.Identity) error {
	return r.s.with(ctx, "Identities.Upsert", func(st *state) error {
		st.identities[identity.UserAccountID] = *identity
		return nil
	})
}

type careerRequestRepo struct{ s *Store }

func (r *careerRequestRepo) find(ctx context.Context, op string, requestID int64) (*model.CareerRequest, error) {
	var found *model.CareerRequest
	err := r.s.with(ctx, "CareerRequests."+op, func(st *state) error {
		if req, ok := st.careerRequests[requestID]; ok {
			found = &req
		}
		return nil
	})
	return found, err
}

func (r *careerRequestRepo) FindByID(ctx context.Context, requestID int64) (*model.CareerRequest, error) {
	return r.find(ctx, "FindByID", requestID)
}

func (r *careerRequestRepo) FindByIDForUpdate(ctx context.Context, requestID int64) (*model.CareerRequest, error) {
	return r.find(ctx, "FindByIDForUpdate", requestID)
}

func (r *careerRequestRepo) DeleteByID(ctx context.Context, requestID int64) error {
	return r.s.with(ctx, "CareerRequests.DeleteByID", func(st *state) error {
		delete(st.careerRequests, requestID)
		return nil
	})
}

func (r *careerRequestRepo) InsertApproved(ctx context.Context, approved *model.ApprovedCareerRequest) error {
	return r.s.with(ctx, "CareerRequests.InsertApproved", func(st *state) error {
		st.approvedCareer = append(st.approvedCareer, *approved)
		return nil
	})
}

func (r *careerRequestRepo) InsertRejected(ctx context.Context, rejected *model.RejectedCareerRequest) error {
	return r.s.with(ctx, "CareerRequests.InsertRejected", func(st *state) error {
		st.rejectedCareer = append(st.rejectedCareer, *rejected)
		return nil
	})
}

type careerRepo struct{ s *Store }

func (r *careerRepo) Insert(ctx context.Context, career *model.Career) (int64, error) {
	var id int64
	err := r.s.with(ctx, "Careers.Insert", func(st *state) error {
		c := *career
		c.CareerID = int64(len(st.careers) + 1)
		st.careers = append(st.careers, c)
		id = c.CareerID
		return nil
	})
	return id, err
}

type bankAccountRepo struct{ s *Store }

func (r *bankAccountRepo) FindByUserAccountIDWithSharedLock(ctx context.Context, userAccountID int64) (*model.BankAccount, error) {
	var found *model.BankAccount
	err := r.s.with(ctx, "BankAccounts.FindByUserAccountIDWithSharedLock", func(st *state) error {
		if ba, ok := st.bankAccounts[userAccountID]; ok {
			found = &ba
		}
		return nil
	})
	return found, err
}

type awaitingWithdrawalRepo struct{ s *Store }

func (r *awaitingWithdrawalRepo) FindByConsultationIDForUpdate(ctx context.Context, consultationID int64) (*model.AwaitingWithdrawal, error) {
	var found *model.AwaitingWithdrawal
	err := r.s.with(ctx, "AwaitingWithdrawals.FindByConsultationIDForUpdate", func(st *state) error {
		if aw, ok := st.awaitingWithdrawals[consultationID]; ok {
			found = &aw
		}
		return nil
	})
	return found, err
}

func (r *awaitingWithdrawalRepo) DeleteByConsultationID(ctx context.Context, consultationID int64) error {
	return r.s.with(ctx, "AwaitingWithdrawals.DeleteByConsultationID", func(st *state) error {
		delete(st.awaitingWithdrawals, consultationID)
		return nil
	})
}

type awaitingPaymentRepo struct{ s *Store }

func (r *awaitingPaymentRepo) FindByConsultationIDForUpdate(ctx context.Context, consultationID int64) (*model.AwaitingPayment, error) {
	var found *model.AwaitingPayment
	err := r.s.with(ctx, "AwaitingPayments.FindByConsultationIDForUpdate", func(st *state) error {
		if ap, ok := st.awaitingPayments[consultationID]; ok {
			found = &ap
		}
		return nil
	})
	return found, err
}

func (r *awaitingPaymentRepo) DeleteByConsultationID(ctx context.Context, consultationID int64) error {
	return r.s.with(ctx, "AwaitingPayments.DeleteByConsultationID", func(st *state) error {
		delete(st.awaitingPayments, consultationID)
		return nil
	})
}

type outcomeRepo struct{ s *Store }

func (r *outcomeRepo) insert(ctx context.Context, op string, consultationID int64, outcome model.SettlementOutcome, put func(st *state)) error {
	return r.s.with(ctx, "SettlementOutcomes."+op, func(st *state) error {
		if _, ok := st.settled[consultationID]; ok {
			return repository.ErrAlreadySettled
		}
		st.settled[consultationID] = outcome
		put(st)
		return nil
	})
}

func (r *outcomeRepo) InsertReceipt(ctx context.Context, receipt *model.ReceiptOfConsultation) error {
	return r.insert(ctx, "InsertReceipt", receipt.ConsultationID, model.OutcomeReceipt, func(st *state) {
		st.receipts[receipt.ConsultationID] = *receipt
	})
}

func (r *outcomeRepo) InsertRefund(ctx context.Context, refund *model.RefundedPayment) error {
	return r.insert(ctx, "InsertRefund", refund.ConsultationID, model.OutcomeRefund, func(st *state) {
		st.refunds[refund.ConsultationID] = *refund
	})
}

func (r *outcomeRepo) InsertNeglectedPayment(ctx context.Context, neglected *model.NeglectedPayment) error {
	return r.insert(ctx, "InsertNeglectedPayment", neglected.ConsultationID, model.OutcomeNeglectedPayment, func(st *state) {
		st.neglected[neglected.ConsultationID] = *neglected
	})
}

func (r *outcomeRepo) InsertLeftAwaitingWithdrawal(ctx context.Context, left *model.LeftAwaitingWithdrawal) error {
	return r.insert(ctx, "InsertLeftAwaitingWithdrawal", left.ConsultationID, model.OutcomeLeftAwaitingWithdrawal, func(st *state) {
		st.left[left.ConsultationID] = *left
	})
}

func (r *outcomeRepo) InsertStoppedSettlement(ctx context.Context, stopped *model.StoppedSettlement) error {
	return r.insert(ctx, "InsertStoppedSettlement", stopped.ConsultationID, model.OutcomeStoppedSettlement, func(st *state) {
		st.stopped[stopped.ConsultationID] = *stopped
	})
}
