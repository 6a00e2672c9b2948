package locker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), RedisOptions{Addr: srv.Addr(), Prefix: "test:", TTL: ttl})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, srv
}

func TestRedisTryLock(t *testing.T) {
	r, srv := newTestRedis(t, time.Minute)
	ctx := context.Background()
	key := ChatKey(7)

	unlock, err := r.TryLock(ctx, key)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if !srv.Exists("test:" + key) {
		t.Fatal("lock key not written")
	}
	if ttl := srv.TTL("test:" + key); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}

	if _, err := r.TryLock(ctx, key); !errors.Is(err, ErrLocked) {
		t.Fatalf("second lock = %v, want ErrLocked", err)
	}
	other, err := r.TryLock(ctx, ChatKey(8))
	if err != nil {
		t.Fatalf("independent key: %v", err)
	}
	other()

	unlock()
	unlock()
	if srv.Exists("test:" + key) {
		t.Fatal("lock key left after release")
	}

	again, err := r.TryLock(ctx, key)
	if err != nil {
		t.Fatalf("relock after release: %v", err)
	}
	again()
}

func TestRedisStaleReleaseKeepsNewHolder(t *testing.T) {
	r, srv := newTestRedis(t, time.Second)
	ctx := context.Background()
	key := ChatKey(7)

	stale, err := r.TryLock(ctx, key)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	srv.FastForward(2 * time.Second)

	current, err := r.TryLock(ctx, key)
	if err != nil {
		t.Fatalf("lock after expiry: %v", err)
	}
	held, err := srv.Get("test:" + key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	stale()
	got, err := srv.Get("test:" + key)
	if err != nil {
		t.Fatalf("expired holder deleted the new lock: %v", err)
	}
	if got != held {
		t.Fatalf("lock token changed from %q to %q", held, got)
	}
	if _, err := r.TryLock(ctx, key); !errors.Is(err, ErrLocked) {
		t.Fatalf("lock must still be held, got %v", err)
	}

	current()
	if srv.Exists("test:" + key) {
		t.Fatal("current holder could not release")
	}
}

func TestRedisTryLockServerDown(t *testing.T) {
	r, srv := newTestRedis(t, time.Minute)
	srv.Close()
	if _, err := r.TryLock(context.Background(), ChatKey(1)); err == nil || errors.Is(err, ErrLocked) {
		t.Fatalf("expected connection error, got %v", err)
	}
}
