package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/careerconsult/internal/middleware"
	"github.com/hitoshi/careerconsult/internal/model"
)

// AccountFinder はセッションのアカウントIDからアカウントを取得するインターフェース。
// 管理者の操作履歴にメールアドレスを記録するために使う。
type AccountFinder interface {
	FindByID(ctx context.Context, accountID int64) (*model.Account, error)
}

// adminEmailOf はセッションの管理者のメールアドレスを返す。
// 管理者アカウントは削除されない前提のため、見つからない場合は予期しないエラーとする。
func adminEmailOf(r *http.Request, admins AccountFinder) (string, error) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		return "", model.NewUnauthorizedError()
	}
	admin, err := admins.FindByID(r.Context(), sess.AccountID)
	if err != nil {
		return "", fmt.Errorf("管理者アカウントの取得に失敗しました: %w", err)
	}
	if admin == nil {
		return "", fmt.Errorf("管理者アカウントが存在しません: %d", sess.AccountID)
	}
	return admin.Email, nil
}
