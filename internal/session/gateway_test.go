package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/careerconsult/internal/model"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newTestGateway(t *testing.T) (*miniredis.Miniredis, *Gateway, *time.Time) {
	t.Helper()
	mr, client := newTestRedis(t)
	g := NewGateway(NewRedisStore(client, ""))
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	return mr, g, &now
}

func TestGateway_CreateAndLoad(t *testing.T) {
	_, g, _ := newTestGateway(t)
	ctx := context.Background()

	sess, err := g.Create(ctx, 42, model.AccountKindUser, model.LoginStatusNeedMoreVerification, 10*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.SessionID == "" {
		t.Fatal("expected session id to be generated")
	}

	loaded, err := g.Load(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.AccountID != 42 || loaded.Kind != model.AccountKindUser {
		t.Errorf("unexpected session: %+v", loaded)
	}
	if loaded.LoginStatus != model.LoginStatusNeedMoreVerification {
		t.Errorf("expected status %q, got %q", model.LoginStatusNeedMoreVerification, loaded.LoginStatus)
	}
}

func TestGateway_StoresWithTTL(t *testing.T) {
	mr, g, _ := newTestGateway(t)

	sess, err := g.Create(context.Background(), 42, model.AccountKindAdmin, model.LoginStatusFinish, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl := mr.TTL(DefaultKeyPrefix + ":" + sess.SessionID); ttl != time.Hour {
		t.Errorf("expected ttl 1h, got %v", ttl)
	}
}

func TestGateway_Load_Missing(t *testing.T) {
	_, g, _ := newTestGateway(t)

	for _, id := range []string{"", "unknown"} {
		if _, err := g.Load(context.Background(), id); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Load(%q): expected ErrUnauthorized, got %v", id, err)
		}
	}
}

func TestGateway_Load_ExpiredInRedis(t *testing.T) {
	mr, g, _ := newTestGateway(t)
	ctx := context.Background()

	sess, err := g.Create(ctx, 42, model.AccountKindUser, model.LoginStatusFinish, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr.FastForward(time.Minute + time.Second)

	if _, err := g.Load(ctx, sess.SessionID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGateway_Load_ExpiredByClock(t *testing.T) {
	mr, g, now := newTestGateway(t)
	ctx := context.Background()

	sess, err := g.Create(ctx, 42, model.AccountKindUser, model.LoginStatusFinish, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	*now = now.Add(time.Minute)

	if _, err := g.Load(ctx, sess.SessionID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if mr.Exists(DefaultKeyPrefix + ":" + sess.SessionID) {
		t.Error("expected expired session to be deleted")
	}
}

func TestGateway_SetLoginStatusAndExtend(t *testing.T) {
	mr, g, now := newTestGateway(t)
	ctx := context.Background()

	sess, err := g.Create(ctx, 42, model.AccountKindUser, model.LoginStatusNeedMoreVerification, 10*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	*now = now.Add(5 * time.Minute)

	if err := g.SetLoginStatus(ctx, sess, model.LoginStatusFinish, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sess.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expected expiry to be extended, got %v", sess.ExpiresAt)
	}

	loaded, err := g.Load(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.LoginStatus != model.LoginStatusFinish {
		t.Errorf("expected status %q, got %q", model.LoginStatusFinish, loaded.LoginStatus)
	}
	if ttl := mr.TTL(DefaultKeyPrefix + ":" + sess.SessionID); ttl != time.Hour {
		t.Errorf("expected ttl 1h, got %v", ttl)
	}

	*now = now.Add(30 * time.Minute)
	if err := g.Extend(ctx, loaded, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !loaded.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expected expiry to be extended, got %v", loaded.ExpiresAt)
	}
}

func TestGateway_Destroy(t *testing.T) {
	_, g, _ := newTestGateway(t)
	ctx := context.Background()

	sess, err := g.Create(ctx, 42, model.AccountKindUser, model.LoginStatusFinish, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Destroy(ctx, sess.SessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.Load(ctx, sess.SessionID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized after destroy, got %v", err)
	}
	if err := g.Destroy(ctx, sess.SessionID); err != nil {
		t.Errorf("expected destroying a missing session to succeed, got %v", err)
	}
}

func TestGateway_StoreFailure(t *testing.T) {
	mr, g, _ := newTestGateway(t)
	mr.SetError("ERR injected failure")

	_, err := g.Load(context.Background(), "some-id")
	if err == nil || errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected store error, got %v", err)
	}
}
