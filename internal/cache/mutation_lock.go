package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultMutationLockTTL bounds how long a crashed holder can block a listing.
const DefaultMutationLockTTL = 30 * time.Second

// MutationLock is a per-key in-flight guard. Over Redis it holds across instances,
// over a MemoryStore within the process. Each holder gets a token so only it can release.
type MutationLock struct {
	store Store
	ttl   time.Duration
}

// NewMutationLock creates a new MutationLock.
func NewMutationLock(store Store, ttl time.Duration) *MutationLock {
	if ttl <= 0 {
		ttl = DefaultMutationLockTTL
	}
	return &MutationLock{store: store, ttl: ttl}
}

func (l *MutationLock) keyFor(key string) string {
	return fmt.Sprintf("mutation:lock:%s", key)
}

// TryLock acquires key. ok is false when someone else holds it.
func (l *MutationLock) TryLock(ctx context.Context, key string) (string, bool, error) {
	token := uuid.New().String()
	ok, err := l.store.SetNX(ctx, l.keyFor(key), token, l.ttl)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock releases key if token still owns it.
func (l *MutationLock) Unlock(ctx context.Context, key, token string) error {
	_, err := l.store.DeleteIfValue(ctx, l.keyFor(key), token)
	return err
}
