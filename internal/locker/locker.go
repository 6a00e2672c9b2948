// Package locker provides per-key mutual exclusion for chat deliveries.
package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrLocked is returned by TryLock when the key is held by someone else.
var ErrLocked = errors.New("locker: key is locked")

// Locker acquires non-blocking exclusive locks.
type Locker interface {
	// TryLock acquires key or returns ErrLocked. The returned func releases it.
	TryLock(ctx context.Context, key string) (func(), error)
}

// ChatKey is the lock key for deliveries into a chat.
func ChatKey(chatID int64) string {
	return fmt.Sprintf("chat:%d:delivery", chatID)
}

// Memory is an in-process Locker.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemory returns an empty in-process locker.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]struct{})}
}

// TryLock implements Locker.
func (m *Memory) TryLock(_ context.Context, key string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return nil, ErrLocked
	}
	m.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
		})
	}, nil
}
