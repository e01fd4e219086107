package memrepo

import "github.com/hitoshi/careerconsult/internal/model"

// テストデータの投入と検査用のメソッド群。

// PutAccount はアカウントを登録する。
func (s *Store) PutAccount(a model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accountsOf(s.state, a.Kind)[a.AccountID] = a
}

// Account は登録済みのアカウントを返す。
func (s *Store) Account(kind model.AccountKind, accountID int64) (model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := accountsOf(s.state, kind)[accountID]
	return a, ok
}

// PutMfaInfo は二段階認証情報を登録する。
func (s *Store) PutMfaInfo(kind model.AccountKind, info model.MfaInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mfaOf(s.state, kind)[info.AccountID] = info
}

// MfaInfo は登録済みの二段階認証情報を返す。
func (s *Store) MfaInfo(kind model.AccountKind, accountID int64) (model.MfaInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := mfaOf(s.state, kind)[accountID]
	return info, ok
}

// PutIdentityRequest は本人確認申請を登録する。
func (s *Store) PutIdentityRequest(req model.IdentityRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.identityRequests[req.IdentityRequestID] = req
}

// HasIdentityRequest は本人確認申請が残っているかを返す。
func (s *Store) HasIdentityRequest(requestID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.identityRequests[requestID]
	return ok
}

// Identity は承認済みの本人情報を返す。
func (s *Store) Identity(userAccountID int64) (model.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.state.identities[userAccountID]
	return id, ok
}

// ApprovedIdentityRequests は承認履歴を返す。
func (s *Store) ApprovedIdentityRequests() []model.ApprovedIdentityRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ApprovedIdentityRequest(nil), s.state.approvedIdentity...)
}

// RejectedIdentityRequests は拒否履歴を返す。
func (s *Store) RejectedIdentityRequests() []model.RejectedIdentityRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RejectedIdentityRequest(nil), s.state.rejectedIdentity...)
}

// PutCareerRequest は職務経歴申請を登録する。
func (s *Store) PutCareerRequest(req model.CareerRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.careerRequests[req.CareerRequestID] = req
}

// HasCareerRequest は職務経歴申請が残っているかを返す。
func (s *Store) HasCareerRequest(requestID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.careerRequests[requestID]
	return ok
}

// CareersOf はユーザーの承認済み職務経歴を返す。
func (s *Store) CareersOf(userAccountID int64) []model.Career {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Career
	for _, c := range s.state.careers {
		if c.UserAccountID == userAccountID {
			out = append(out, c)
		}
	}
	return out
}

// ApprovedCareerRequests は承認履歴を返す。
func (s *Store) ApprovedCareerRequests() []model.ApprovedCareerRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ApprovedCareerRequest(nil), s.state.approvedCareer...)
}

// RejectedCareerRequests は拒否履歴を返す。
func (s *Store) RejectedCareerRequests() []model.RejectedCareerRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RejectedCareerRequest(nil), s.state.rejectedCareer...)
}

// PutBankAccount は振込先口座を登録する。
func (s *Store) PutBankAccount(ba model.BankAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.bankAccounts[ba.UserAccountID] = ba
}

// PutAwaitingWithdrawal は引き落とし待ちレコードを登録する。
func (s *Store) PutAwaitingWithdrawal(aw model.AwaitingWithdrawal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.awaitingWithdrawals[aw.ConsultationID] = aw
}

// HasAwaitingWithdrawal は引き落とし待ちレコードが残っているかを返す。
func (s *Store) HasAwaitingWithdrawal(consultationID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.awaitingWithdrawals[consultationID]
	return ok
}

// PutAwaitingPayment は入金待ちレコードを登録する。
func (s *Store) PutAwaitingPayment(ap model.AwaitingPayment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.awaitingPayments[ap.ConsultationID] = ap
}

// HasAwaitingPayment は入金待ちレコードが残っているかを返す。
func (s *Store) HasAwaitingPayment(consultationID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.awaitingPayments[consultationID]
	return ok
}

// Outcome は相談の精算結果の種別を返す。
func (s *Store) Outcome(consultationID int64) (model.SettlementOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.state.settled[consultationID]
	return o, ok
}

// OutcomeCount は5種類の結果テーブルに記録された相談の結果の件数を返す。
func (s *Store) OutcomeCount(consultationID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	if _, ok := s.state.receipts[consultationID]; ok {
		n++
	}
	if _, ok := s.state.refunds[consultationID]; ok {
		n++
	}
	if _, ok := s.state.neglected[consultationID]; ok {
		n++
	}
	if _, ok := s.state.left[consultationID]; ok {
		n++
	}
	if _, ok := s.state.stopped[consultationID]; ok {
		n++
	}
	return n
}

// Receipt は精算完了の記録を返す。
func (s *Store) Receipt(consultationID int64) (model.ReceiptOfConsultation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.receipts[consultationID]
	return r, ok
}

// Refund は返金の記録を返す。
func (s *Store) Refund(consultationID int64) (model.RefundedPayment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.refunds[consultationID]
	return r, ok
}
