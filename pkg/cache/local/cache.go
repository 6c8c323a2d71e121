package local

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type entry struct {
	data     string
	expireAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// Cache 进程内缓存
type Cache struct {
	mu     sync.Mutex
	items  map[string]*entry
	stopGC chan struct{}
	once   sync.Once
}

// New 创建进程内缓存，gcInterval > 0 时后台定期清理过期项
func New(gcInterval time.Duration) *Cache {
	c := &Cache{
		items:  make(map[string]*entry),
		stopGC: make(chan struct{}),
	}
	if gcInterval > 0 {
		go c.gcLoop(gcInterval)
	}
	return c
}

func (c *Cache) gcLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, e := range c.items {
				if e.expired(now) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

// lookup 调用方需持有锁
func (c *Cache) lookup(key string) (*entry, bool) {
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(c.items, key)
		return nil, false
	}
	return e, true
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = &entry{data: value, expireAt: expiry(ttl)}
	return nil
}

func (c *Cache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key)
	if !ok {
		return "", false, nil
	}
	return e.data, true, nil
}

func (c *Cache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.lookup(key)
	return ok, nil
}

func (c *Cache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *Cache) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key)
	if !ok {
		c.items[key] = &entry{data: "1", expireAt: expiry(ttl)}
		return 1, nil
	}
	n, err := strconv.ParseInt(e.data, 10, 64)
	if err != nil {
		return 0, err
	}
	n++
	e.data = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *Cache) Ping(context.Context) error { return nil }

// Close 停止后台清理
func (c *Cache) Close() error {
	c.once.Do(func() { close(c.stopGC) })
	return nil
}
