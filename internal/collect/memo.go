package collect

import (
	"sync"
	"time"
)

type memoEntry struct {
	v   any
	exp time.Time
}

// Memo is a short-lived in-process cache that dedupes upstream fetches when
// several steps of the same run need the same payload.
type Memo struct {
	mu sync.RWMutex
	m  map[string]memoEntry
}

func NewMemo() *Memo {
	return &Memo{m: make(map[string]memoEntry)}
}

func (c *Memo) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.v, true
}

func (c *Memo) Set(key string, v any, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = memoEntry{v: v, exp: exp}
	c.mu.Unlock()
}
