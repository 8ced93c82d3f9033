package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCacheStoresEntry(t *testing.T) {
	cache := NewResultCache(time.Minute)
	calls := 0
	fetch := func() (QueryResult, error) {
		calls++
		return QueryResult{RowCount: 3}, nil
	}

	first, err := cache.GetOrFetch(1, fetch)
	require.NoError(t, err)
	second, err := cache.GetOrFetch(1, fetch)
	require.NoError(t, err)

	assert.Equal(t, 3, first.RowCount)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestResultCacheExpires(t *testing.T) {
	cache := NewResultCache(2 * time.Millisecond)
	calls := 0
	fetch := func() (QueryResult, error) {
		calls++
		return QueryResult{RowCount: calls}, nil
	}

	_, err := cache.GetOrFetch(1, fetch)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	res, err := cache.GetOrFetch(1, fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, res.RowCount)
}

func TestResultCacheDoesNotStoreErrors(t *testing.T) {
	cache := NewResultCache(time.Minute)
	_, err := cache.GetOrFetch(1, func() (QueryResult, error) {
		return QueryResult{}, errors.New("boom")
	})
	require.Error(t, err)
	res, err := cache.GetOrFetch(1, func() (QueryResult, error) {
		return QueryResult{RowCount: 9}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9, res.RowCount)
}

func TestCachedExecutorRefreshBypassesCache(t *testing.T) {
	exec := NewStaticExecutor()
	exec.SetRowCount(4, 1)
	cached := &CachedExecutor{Executor: exec, Cache: NewResultCache(time.Minute)}
	ctx := context.Background()

	res, err := cached.Execute(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowCount)

	exec.SetRowCount(4, 8)
	res, err = cached.Execute(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowCount, "served from cache")

	res, err = cached.Refresh(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 8, res.RowCount)
}
