package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX は*sql.DBと*sql.Txに共通するクエリ実行メソッド。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

type txKey struct{}

// withTx はトランザクションをcontextに格納する。
func withTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// txFromContext はcontextに格納されたトランザクションを返す。
func txFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// executor はcontextにトランザクションがあればそれを、なければコネクションプールを返す。
// 各リポジトリは必ずこれを経由してクエリを実行する。
func executor(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return db
}

// TxPhase はトランザクション制御のどの段階で失敗したかを表す。
type TxPhase string

const (
	TxPhaseBegin  TxPhase = "begin"
	TxPhaseCommit TxPhase = "commit"
)

// TxError はトランザクションの開始またはコミットに失敗したことを表す。
// 業務処理の中で発生したエラーとは区別され、常に想定外のエラーとして扱われる。
type TxError struct {
	Phase TxPhase
	Err   error
}

// Error はerrorインターフェースを実装する。
func (e *TxError) Error() string {
	return fmt.Sprintf("failed to %s transaction: %v", e.Phase, e.Err)
}

// Unwrap は原因のエラーを返す。
func (e *TxError) Unwrap() error {
	return e.Err
}

// TxRunner はトランザクション境界を提供するインターフェース。
type TxRunner interface {
	// WithinTx はfnを1つのトランザクション内で実行する。
	// fnがエラーを返した場合はロールバックし、そのエラーをそのまま返す。
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Transactor はdatabase/sqlのトランザクションをcontext経由でリポジトリへ伝搬する。
type Transactor struct {
	db TxBeginner
}

var _ TxRunner = (*Transactor)(nil)

// NewTransactor はTransactorを生成する。
func NewTransactor(db TxBeginner) *Transactor {
	return &Transactor{db: db}
}

// WithinTx はfnを1つのトランザクション内で実行する。
// ctxに既にトランザクションがある場合は新たに開始せず、外側のトランザクションに参加する。
// fn内でpanicした場合はロールバックしてから再度panicする。
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return &TxError{Phase: TxPhaseBegin, Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return &TxError{Phase: TxPhaseCommit, Err: err}
	}
	return nil
}
