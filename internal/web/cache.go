package web

// Encoded responses are cached per poll, so repeated reads between two polls
// skip the JSON encoding. golang-lru evicts the least recently used entry.

import (
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

type responseCache struct {
	cache *lru.Cache
}

func newResponseCache(size int) (*responseCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}
	return &responseCache{cache: cache}, nil
}

// encode returns the cached body for key or encodes v and stores it.
func (c *responseCache) encode(key string, v func() interface{}) ([]byte, error) {
	if body, ok := c.cache.Get(key); ok {
		return body.([]byte), nil
	}

	body, err := json.Marshal(v())
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, body)
	return body, nil
}

func (c *responseCache) Len() int { return c.cache.Len() }
