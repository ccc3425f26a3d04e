package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStorageConsumesTokens(t *testing.T) {
	storage := NewInMemoryStorage()
	defer storage.Stop()

	limit := Limit{Requests: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		allowed, err := storage.Allow(context.Background(), "1.2.3.4", limit)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := storage.Allow(context.Background(), "1.2.3.4", limit)
	require.NoError(t, err)
	assert.False(t, allowed, "request over the limit should be rejected")
}

func TestInMemoryStorageKeysAreIndependent(t *testing.T) {
	storage := NewInMemoryStorage()
	defer storage.Stop()

	limit := Limit{Requests: 1, Window: time.Minute}

	allowed, err := storage.Allow(context.Background(), "1.2.3.4", limit)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = storage.Allow(context.Background(), "5.6.7.8", limit)
	require.NoError(t, err)
	assert.True(t, allowed, "a different key has its own bucket")
}

func TestTokenBucketRefills(t *testing.T) {
	bucket := newTokenBucket(10, 100*time.Millisecond)

	for i := 0; i < 10; i++ {
		require.True(t, bucket.consume(1))
	}
	assert.False(t, bucket.consume(1))

	time.Sleep(150 * time.Millisecond)
	assert.True(t, bucket.consume(1), "bucket should refill after the window")
}
