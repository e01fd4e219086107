// Package cleanup は拒否された申請履歴の自動削除ジョブを提供する。
// 拒否履歴には申請者の氏名・住所などの個人情報が含まれるため、
// 保持期間（デフォルト365日）を超過したものを日次バッチで削除する。
// 承認履歴は本人情報・職務経歴の根拠として残す。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// DefaultRetentionDays は拒否履歴のデフォルト保持日数。
const DefaultRetentionDays = 365

// targetTables は削除対象のテーブル。いずれもrejected_atに索引がある。
var targetTables = []string{
	"rejected_identity_requests",
	"rejected_career_requests",
}

// CleanupJob は保持期間を超過した拒否履歴の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	now           func() time.Time
	RetentionDays int // 拒否履歴の保持日数
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:            db,
		logger:        logger,
		now:           time.Now,
		RetentionDays: DefaultRetentionDays,
	}
}

// Run はrejected_atがRetentionDays日前より古い拒否履歴を削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := j.now().AddDate(0, 0, -j.RetentionDays)

	var total int64
	for _, table := range targetTables {
		query := fmt.Sprintf(`DELETE FROM %s WHERE rejected_at < $1`, table)
		result, err := j.db.ExecContext(ctx, query, cutoff)
		if err != nil {
			j.logger.Error("拒否履歴の削除に失敗しました",
				slog.String("table", table),
				slog.String("error", err.Error()),
				slog.Int("retention_days", j.RetentionDays),
			)
			return fmt.Errorf("%sの削除に失敗: %w", table, err)
		}

		deleted, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("削除件数の取得に失敗: %w", err)
		}
		total += deleted
	}

	j.logger.Info("拒否履歴クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", total),
		slog.Int("retention_days", j.RetentionDays),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は起動直後に1回、その後interval毎にRunを実行する。ctxがキャンセルされるまでブロックする。
// 1回の失敗で停止せず、次の周期で再実行する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}
