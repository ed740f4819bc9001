package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value      string
	expiration time.Time // zero means no expiry
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// MemoryStore is a thread-safe in-process Store with TTL support, used when
// Redis is not configured and in tests.
type MemoryStore struct {
	data  map[string]memoryItem
	mutex sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryStore creates a new in-memory store and starts its cleanup loop.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		data: make(map[string]memoryItem),
		stop: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.cleanupExpired(cleanupInterval)
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, ok := s.data[key]
	if !ok || item.expired(time.Now()) {
		return "", ErrCacheMiss
	}
	return item.value, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[key] = newMemoryItem(value, ttl)
	return nil
}

func (s *MemoryStore) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if item, ok := s.data[key]; ok && !item.expired(time.Now()) {
		return false, nil
	}
	s.data[key] = newMemoryItem(value, ttl)
	return true, nil
}

func (s *MemoryStore) DeleteIfValue(ctx context.Context, key string, value string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item, ok := s.data[key]
	if !ok || item.expired(time.Now()) || item.value != value {
		return false, nil
	}
	delete(s.data, key)
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, ok := s.data[key]
	return ok && !item.expired(time.Now()), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close stops the cleanup loop.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

// Size returns the number of stored items, expired ones included until cleanup.
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mutex.Lock()
			now := time.Now()
			for key, item := range s.data {
				if item.expired(now) {
					delete(s.data, key)
				}
			}
			s.mutex.Unlock()
		}
	}
}

func newMemoryItem(value string, ttl time.Duration) memoryItem {
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiration = time.Now().Add(ttl)
	}
	return item
}
