package caches

import (
	"context"
	"time"

	"DocChat/backend/go/pkg/lru"
)

// LRUCache is the in-process VectorCache used when Redis is not configured.
type LRUCache struct {
	c *lru.Cache[string, []float32]
}

func NewLRUCache(capacity int, ttl time.Duration) (*LRUCache, error) {
	c, err := lru.New[string, []float32](lru.Config{Capacity: capacity, TTL: ttl})
	if err != nil {
		return nil, err
	}
	return &LRUCache{c: c}, nil
}

func (l *LRUCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	v, ok := l.c.Get(key)
	return v, ok, nil
}

func (l *LRUCache) Set(_ context.Context, key string, vec []float32) error {
	l.c.Put(key, vec)
	return nil
}

var _ VectorCache = (*LRUCache)(nil)
