// Package memrepo はrepositoryパッケージの各インターフェースをメモリ上で実装する。
//
// トランザクションは1つのミューテックスで直列化し、開始時のスナップショットに
// 戻すことでロールバックを表現する。行ロックの粒度は再現しないが、
// 同時に実行される審査・精算が直列化される点はPostgreSQLの行ロックと同じ結果になる。
// ワークフローのテストで使う。
package memrepo

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/hitoshi/careerconsult/internal/model"
	"github.com/hitoshi/careerconsult/internal/repository"
)

type state struct {
	userAccounts  map[int64]model.Account
	adminAccounts map[int64]model.Account
	userMfa       map[int64]model.MfaInfo
	adminMfa      map[int64]model.MfaInfo

	identityRequests map[int64]model.IdentityRequest
	identities       map[int64]model.Identity
	approvedIdentity []model.ApprovedIdentityRequest
	rejectedIdentity []model.RejectedIdentityRequest

	careerRequests map[int64]model.CareerRequest
	careers        []model.Career
	approvedCareer []model.ApprovedCareerRequest
	rejectedCareer []model.RejectedCareerRequest

	bankAccounts        map[int64]model.BankAccount
	awaitingWithdrawals map[int64]model.AwaitingWithdrawal
	awaitingPayments    map[int64]model.AwaitingPayment

	settled   map[int64]model.SettlementOutcome
	receipts  map[int64]model.ReceiptOfConsultation
	refunds   map[int64]model.RefundedPayment
	neglected map[int64]model.NeglectedPayment
	left      map[int64]model.LeftAwaitingWithdrawal
	stopped   map[int64]model.StoppedSettlement
}

func newState() *state {
	return &state{
		userAccounts:        map[int64]model.Account{},
		adminAccounts:       map[int64]model.Account{},
		userMfa:             map[int64]model.MfaInfo{},
		adminMfa:            map[int64]model.MfaInfo{},
		identityRequests:    map[int64]model.IdentityRequest{},
		identities:          map[int64]model.Identity{},
		careerRequests:      map[int64]model.CareerRequest{},
		bankAccounts:        map[int64]model.BankAccount{},
		awaitingWithdrawals: map[int64]model.AwaitingWithdrawal{},
		awaitingPayments:    map[int64]model.AwaitingPayment{},
		settled:             map[int64]model.SettlementOutcome{},
		receipts:            map[int64]model.ReceiptOfConsultation{},
		refunds:             map[int64]model.RefundedPayment{},
		neglected:           map[int64]model.NeglectedPayment{},
		left:                map[int64]model.LeftAwaitingWithdrawal{},
		stopped:             map[int64]model.StoppedSettlement{},
	}
}

func (s *state) clone() *state {
	return &state{
		userAccounts:        maps.Clone(s.userAccounts),
		adminAccounts:       maps.Clone(s.adminAccounts),
		userMfa:             maps.Clone(s.userMfa),
		adminMfa:            maps.Clone(s.adminMfa),
		identityRequests:    maps.Clone(s.identityRequests),
		identities:          maps.Clone(s.identities),
		approvedIdentity:    slices.Clone(s.approvedIdentity),
		rejectedIdentity:    slices.Clone(s.rejectedIdentity),
		careerRequests:      maps.Clone(s.careerRequests),
		careers:             slices.Clone(s.careers),
		approvedCareer:      slices.Clone(s.approvedCareer),
		rejectedCareer:      slices.Clone(s.rejectedCareer),
		bankAccounts:        maps.Clone(s.bankAccounts),
		awaitingWithdrawals: maps.Clone(s.awaitingWithdrawals),
		awaitingPayments:    maps.Clone(s.awaitingPayments),
		settled:             maps.Clone(s.settled),
		receipts:            maps.Clone(s.receipts),
		refunds:             maps.Clone(s.refunds),
		neglected:           maps.Clone(s.neglected),
		left:                maps.Clone(s.left),
		stopped:             maps.Clone(s.stopped),
	}
}

type txKey struct{}

// Store はメモリ上のレコードストア。
type Store struct {
	mu    sync.Mutex
	state *state

	errMu  sync.Mutex
	errors map[string]error
}

var _ repository.TxRunner = (*Store)(nil)

// New は空のStoreを生成する。
func New() *Store {
	return &Store{state: newState(), errors: map[string]error{}}
}

// WithinTx はfnをトランザクション内で実行する。
// fnがエラーを返すかpanicした場合は開始時点の状態に戻す。
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	committed := false
	defer func() {
		if !committed {
			s.state = snapshot
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

// FailOn は指定した操作名の呼び出しでerrを返すようにする。nilを渡すと解除する。
// 操作名は "<リポジトリ>.<メソッド>" 形式（例: "AwaitingWithdrawals.DeleteByConsultationID"）。
func (s *Store) FailOn(op string, err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if err == nil {
		delete(s.errors, op)
		return
	}
	s.errors[op] = err
}

func (s *Store) injected(op string) error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.errors[op]
}

// with はトランザクション外からの呼び出しでもロックを取ってfnを実行する。
func (s *Store) with(ctx context.Context, op string, fn func(st *state) error) error {
	if err := s.injected(op); err != nil {
		return err
	}
	if ctx.Value(txKey{}) != nil {
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}
