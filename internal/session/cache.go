package session

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/realmkeeper/internal/domain"
)

// CacheSchemaVersion is bumped when the cached record shape changes
const CacheSchemaVersion = "1.0"

type cachedPlayerEntry struct {
	Version  string
	Player   *domain.Player
	CachedAt time.Time
}

// playerCache keeps the final in-memory record of recently disconnected
// players. A quick reconnect restores from here, which also covers the
// window where a disconnect flush is still being retried.
type playerCache struct {
	lru *expirable.LRU[string, *cachedPlayerEntry]
}

func newPlayerCache(size int, ttl time.Duration) *playerCache {
	if size < 1 {
		size = 1
	}
	return &playerCache{
		lru: expirable.NewLRU[string, *cachedPlayerEntry](size, nil, ttl),
	}
}

// Take returns and removes a cached record
func (c *playerCache) Take(playerID string) (*domain.Player, bool) {
	entry, found := c.lru.Get(playerID)
	if !found {
		return nil, false
	}
	c.lru.Remove(playerID)

	if entry.Version != CacheSchemaVersion {
		return nil, false
	}
	return entry.Player, true
}

// Set stores a copy of p
func (c *playerCache) Set(p *domain.Player) {
	c.lru.Add(p.ID, &cachedPlayerEntry{
		Version:  CacheSchemaVersion,
		Player:   p.Clone(),
		CachedAt: time.Now(),
	})
}

// Len returns the number of cached records
func (c *playerCache) Len() int {
	return c.lru.Len()
}
