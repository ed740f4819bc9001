package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/catalog_api/internal/models"
)

func TestMemoryStore_SetGetExpire(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1", time.Minute))
	v, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, store.Set(ctx, "short", "x", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, err = store.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	ok, err := store.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryStore_SetNXAndDeleteIfValue(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	ok, err := store.SetNX(ctx, "k", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetNX(ctx, "k", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err := store.DeleteIfValue(ctx, "k", "second")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = store.DeleteIfValue(ctx, "k", "first")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestMemoryStore_CleanupLoop(t *testing.T) {
	store := NewMemoryStore(5 * time.Millisecond)
	defer store.Close()

	require.NoError(t, store.Set(context.Background(), "gone", "x", time.Millisecond))
	assert.Eventually(t, func() bool { return store.Size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestResolutionCache(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	c := NewResolutionCache(store, time.Minute)

	_, ok, err := c.GetListingID(ctx, "red-chair")
	require.NoError(t, err)
	assert.False(t, ok)

	id := models.ListingID{Kind: models.SourceService, ID: 7}
	require.NoError(t, c.SetListingID(ctx, "red-chair", id))

	got, ok, err := c.GetListingID(ctx, "red-chair")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	require.NoError(t, c.DeleteListingID(ctx, "red-chair"))
	_, ok, err = c.GetListingID(ctx, "red-chair")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolutionCache_DropsUnreadableEntry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	c := NewResolutionCache(store, time.Minute)

	require.NoError(t, store.Set(ctx, "resolve:slug:broken", "nonsense", time.Minute))
	_, ok, err := c.GetListingID(ctx, "broken")
	require.NoError(t, err)
	assert.False(t, ok)

	exists, _ := store.Exists(ctx, "resolve:slug:broken")
	assert.False(t, exists)
}

func TestMutationLock(t *testing.T) {
	ctx := context.Background()
	lock := NewMutationLock(NewMemoryStore(0), time.Minute)

	token, ok, err := lock.TryLock(ctx, "goods:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = lock.TryLock(ctx, "goods:1")
	require.NoError(t, err)
	assert.False(t, ok)

	// other keys are independent
	_, ok, err = lock.TryLock(ctx, "goods:2")
	require.NoError(t, err)
	assert.True(t, ok)

	// a stale token cannot release
	require.NoError(t, lock.Unlock(ctx, "goods:1", "not-the-token"))
	_, ok, _ = lock.TryLock(ctx, "goods:1")
	assert.False(t, ok)

	require.NoError(t, lock.Unlock(ctx, "goods:1", token))
	_, ok, err = lock.TryLock(ctx, "goods:1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMutationLock_SingleWinnerUnderContention(t *testing.T) {
	ctx := context.Background()
	lock := NewMutationLock(NewMemoryStore(0), time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := lock.TryLock(ctx, "service:9"); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}
