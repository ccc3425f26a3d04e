package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryStorage implements Storage using in-memory token buckets. It is
// the per-instance default; the Redis storage replaces it when requests
// must be limited across replicas.
type InMemoryStorage struct {
	mu          sync.RWMutex
	buckets     map[string]*tokenBucket
	cleanup     *time.Ticker
	stopCleanup chan struct{}
}

// NewInMemoryStorage creates an in-memory rate limiter storage with a
// background goroutine that drops unused buckets.
func NewInMemoryStorage() *InMemoryStorage {
	storage := &InMemoryStorage{
		buckets:     make(map[string]*tokenBucket),
		cleanup:     time.NewTicker(5 * time.Minute),
		stopCleanup: make(chan struct{}),
	}

	go storage.cleanupUnusedBuckets()

	return storage
}

// Stop stops the background cleanup goroutine. Call this when shutting down.
func (s *InMemoryStorage) Stop() {
	s.cleanup.Stop()
	close(s.stopCleanup)
}

// Allow checks if a request is allowed and consumes a token if available.
func (s *InMemoryStorage) Allow(ctx context.Context, key string, limit Limit) (bool, error) {
	bucketKey := fmt.Sprintf("%s:%s", key, limit.Window)

	s.mu.Lock()
	bucket, exists := s.buckets[bucketKey]
	if !exists {
		bucket = newTokenBucket(float64(limit.Requests), limit.Window)
		s.buckets[bucketKey] = bucket
	}
	s.mu.Unlock()

	return bucket.consume(1), nil
}

// cleanupUnusedBuckets periodically removes buckets that haven't been used recently.
func (s *InMemoryStorage) cleanupUnusedBuckets() {
	for {
		select {
		case <-s.cleanup.C:
			s.mu.Lock()
			now := time.Now()
			for key, bucket := range s.buckets {
				bucket.mu.Lock()
				// Remove buckets that haven't been used in 2x their window duration
				if now.Sub(bucket.lastRefill) > bucket.windowDuration*2 {
					delete(s.buckets, key)
				}
				bucket.mu.Unlock()
			}
			s.mu.Unlock()
		case <-s.stopCleanup:
			return
		}
	}
}
