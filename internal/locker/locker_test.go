package locker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestChatKey(t *testing.T) {
	if got := ChatKey(-100123); got != "chat:-100123:delivery" {
		t.Fatalf("key = %q", got)
	}
}

func TestMemoryTryLock(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	unlock, err := m.TryLock(ctx, "a")
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := m.TryLock(ctx, "a"); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	unlockB, err := m.TryLock(ctx, "b")
	if err != nil {
		t.Fatalf("independent key: %v", err)
	}
	unlockB()

	unlock()
	unlock()
	again, err := m.TryLock(ctx, "a")
	if err != nil {
		t.Fatalf("relock after release: %v", err)
	}
	again()
}

func TestMemoryTryLockExclusiveUnderContention(t *testing.T) {
	m := NewMemory()
	var (
		wg      sync.WaitGroup
		holders int32
		maxSeen int32
		granted int32
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.TryLock(context.Background(), ChatKey(1))
			if err != nil {
				return
			}
			atomic.AddInt32(&granted, 1)
			n := atomic.AddInt32(&holders, 1)
			for {
				cur := atomic.LoadInt32(&maxSeen)
				if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&holders, -1)
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("max concurrent holders = %d", maxSeen)
	}
	if granted == 0 {
		t.Fatal("no goroutine acquired the lock")
	}
}

func TestNewRedisFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedis(ctx, RedisOptions{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected ping error")
	}
}

func TestNewRedisDefaults(t *testing.T) {
	r := newRedisWithClient(nil, RedisOptions{})
	if r.prefix != defaultKeyPrefix || r.ttl != defaultTTL {
		t.Fatalf("defaults: prefix=%q ttl=%v", r.prefix, r.ttl)
	}
	r = newRedisWithClient(nil, RedisOptions{Prefix: "x:", TTL: time.Second})
	if r.prefix != "x:" || r.ttl != time.Second {
		t.Fatalf("overrides ignored: prefix=%q ttl=%v", r.prefix, r.ttl)
	}
}
