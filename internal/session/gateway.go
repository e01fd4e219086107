package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/careerconsult/internal/model"
)

// ErrUnauthorized はセッションが存在しないか有効期限切れであることを表す。
var ErrUnauthorized = errors.New("session is missing or expired")

// Gateway はセッションの作成・検証・更新・破棄を行う。
type Gateway struct {
	store Store
	now   func() time.Time
}

// NewGateway はGatewayを生成する。
func NewGateway(store Store) *Gateway {
	return &Gateway{store: store, now: time.Now}
}

// Create は新しいセッションを作成して保存する。
func (g *Gateway) Create(ctx context.Context, accountID int64, kind model.AccountKind, status model.LoginStatus, ttl time.Duration) (*model.Session, error) {
	sess := &model.Session{
		SessionID:   uuid.New().String(),
		AccountID:   accountID,
		Kind:        kind,
		LoginStatus: status,
	}
	if err := g.save(ctx, sess, ttl); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load はセッションを読み込む。存在しないか有効期限切れの場合はErrUnauthorizedを返す。
func (g *Gateway) Load(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, ErrUnauthorized
	}
	data, err := g.store.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if sess.IsExpired(g.now()) {
		if err := g.store.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		return nil, ErrUnauthorized
	}
	return &sess, nil
}

// Extend はセッションの有効期限を現在時刻からttl後に延長する。
func (g *Gateway) Extend(ctx context.Context, sess *model.Session, ttl time.Duration) error {
	return g.save(ctx, sess, ttl)
}

// SetLoginStatus はログイン段階を更新し、有効期限をttl後に延長する。
func (g *Gateway) SetLoginStatus(ctx context.Context, sess *model.Session, status model.LoginStatus, ttl time.Duration) error {
	prev := sess.LoginStatus
	sess.LoginStatus = status
	if err := g.save(ctx, sess, ttl); err != nil {
		sess.LoginStatus = prev
		return err
	}
	return nil
}

// Destroy はセッションを破棄する。
func (g *Gateway) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return g.store.Delete(ctx, sessionID)
}

func (g *Gateway) save(ctx context.Context, sess *model.Session, ttl time.Duration) error {
	sess.ExpiresAt = g.now().Add(ttl)
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return g.store.Set(ctx, sess.SessionID, data, ttl)
}
