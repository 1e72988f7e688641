// Package cache stores pure Q&A responses so repeated knowledge
// questions answer instantly without an API call. Only responses with
// no tool calls are cacheable: tool effects are not guaranteed still
// valid on replay, so a cached message that would re-invoke tools is
// invalid by construction.
package cache

import (
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/NieAnim/MayaAgent/config"
	"github.com/NieAnim/MayaAgent/model"
)

const (
	// DefaultTTL expires entries after seven days.
	DefaultTTL = 7 * 24 * time.Hour
	// DefaultCapacity bounds the entry count; the least recently used
	// entry is evicted on overflow.
	DefaultCapacity = 200
	// minResponseLen skips trivially short responses.
	minResponseLen = 10
)

// ErrNotCacheable rejects a Put that violates the cache contract.
var ErrNotCacheable = errors.New("response is not cacheable")

type entry struct {
	message  model.Message
	storedAt time.Time
}

// ResponseCache is a bounded LRU of fingerprint to assistant message.
// One instance may be shared across sessions, so the get/put/expire
// sequence runs under a single lock.
type ResponseCache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, *entry]
	ttl time.Duration
	now func() time.Time

	hits   int
	misses int
}

func NewResponseCache(capacity int, ttl time.Duration) (*ResponseCache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	inner, err := lru.New[string, *entry](capacity)
	if err != nil {
		return nil, err
	}
	return &ResponseCache{lru: inner, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached message for a fingerprint. A hit refreshes
// the entry's recency; an expired entry is removed and reported as a
// miss.
func (c *ResponseCache) Get(fingerprint string) (model.Message, bool) {
	if fingerprint == "" {
		return model.Message{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(fingerprint)
	if !ok {
		c.misses++
		return model.Message{}, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		c.lru.Remove(fingerprint)
		c.misses++
		return model.Message{}, false
	}

	c.hits++
	if config.Debug {
		config.DebugLog.Printf("[Cache] Hit %s", fingerprint)
	}
	return e.message, true
}

// Put stores an assistant message under a fingerprint. Messages that
// carry tool calls, non-assistant messages, and trivially short bodies
// are rejected with ErrNotCacheable.
func (c *ResponseCache) Put(fingerprint string, msg model.Message) error {
	if fingerprint == "" {
		return ErrNotCacheable
	}
	if msg.Role != model.RoleAssistant || msg.HasToolCalls() {
		return ErrNotCacheable
	}
	if len(msg.Content) < minResponseLen {
		return ErrNotCacheable
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(fingerprint, &entry{message: msg, storedAt: c.now()})
	return nil
}

// Len reports the current entry count.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats reports hit/miss counters since construction.
func (c *ResponseCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear drops every entry.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}
