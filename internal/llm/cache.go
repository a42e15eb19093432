package llm

import (
	"context"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"
)

// CachedGenerator answers repeated requests from an LRU keyed by a hash of
// the request. Failures are not cached.
type CachedGenerator struct {
	next  Generator
	cache *lru.Cache[uint64, string]
}

// NewCachedGenerator wraps next with a cache of size entries. A non-positive
// size returns next unchanged.
func NewCachedGenerator(next Generator, size int) (Generator, error) {
	if size <= 0 {
		return next, nil
	}
	cache, err := lru.New[uint64, string](size)
	if err != nil {
		return nil, err
	}
	return &CachedGenerator{next: next, cache: cache}, nil
}

func (c *CachedGenerator) Generate(ctx context.Context, r Request) (string, error) {
	key := requestKey(r)
	if text, ok := c.cache.Get(key); ok {
		return text, nil
	}
	text, err := c.next.Generate(ctx, r)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, text)
	return text, nil
}

func requestKey(r Request) uint64 {
	return xxh3.HashString(r.System + "\x00" + r.Prompt + "\x00" +
		strconv.FormatFloat(float64(r.Temperature), 'f', -1, 32) + "\x00" + strconv.Itoa(r.MaxTokens))
}
