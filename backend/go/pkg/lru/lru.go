// Package lru is a small thread-safe LRU cache with optional per-entry expiry.
package lru

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// Config 用于配置LRU缓存的行为。
type Config struct {
	// Capacity 是缓存的最大元素数量, 必须大于0。
	Capacity int
	// TTL 是元素的存活时间。如果为0，则元素永不过期。
	TTL time.Duration
}

// entry 结构体用于存储链表节点中的实际数据。
type entry[K comparable, V any] struct {
	key        K
	value      V
	expiration time.Time // 元素的过期时间, TTL 为 0 时为零值
}

// Cache 是一个支持泛型、线程安全的LRU缓存。
type Cache[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	ll    *list.List
	items map[K]*list.Element
}

// New 使用指定的配置创建一个LRU缓存实例。
func New[K comparable, V any](cfg Config) (*Cache[K, V], error) {
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("lru capacity must be positive, got %d", cfg.Capacity)
	}
	return &Cache[K, V]{
		capacity: cfg.Capacity,
		ttl:      cfg.TTL,
		now:      time.Now,
		ll:       list.New(),
		items:    make(map[K]*list.Element),
	}, nil
}

// Get 根据键获取一个值, 过期的条目在读取时被移除。
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if c.expired(e) {
		c.removeElement(el)
		return zero, false
	}
	// 标记为最近使用
	c.ll.MoveToFront(el)
	return e.value, true
}

// Put 添加或更新一个键值对, 超出容量时淘汰最久未使用的元素。
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var exp time.Time
	if c.ttl > 0 {
		exp = c.now().Add(c.ttl)
	}
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.expiration = exp
		c.ll.MoveToFront(el)
		return
	}

	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value, expiration: exp})
	for c.ll.Len() > c.capacity {
		c.removeElement(c.ll.Back())
	}
}

// Delete 移除一个键。
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// Len 返回当前缓存中的条目数量 (可能包含尚未被读取淘汰的过期条目)。
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache[K, V]) expired(e *entry[K, V]) bool {
	return !e.expiration.IsZero() && c.now().After(e.expiration)
}

// removeElement 从链表和map中移除元素, 调用方持有锁。
func (c *Cache[K, V]) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}
