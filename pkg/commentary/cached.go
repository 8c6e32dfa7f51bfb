package commentary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/qnkhuat/chesscoach/pkg/store"
)

// Cached wraps another provider with a persistent cache. Games that differ
// only in whitespace share an entry.
type Cached struct {
	inner  Provider
	store  *store.Store
	log    zerolog.Logger
	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewCached(inner Provider, s *store.Store, log zerolog.Logger) *Cached {
	return &Cached{inner: inner, store: s, log: log}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Comment(ctx context.Context, pgn string) (string, error) {
	key := CacheKey(c.inner.Name(), pgn)
	entry, err := c.store.Get(key)
	if err == nil {
		c.hits.Add(1)
		return entry.Analysis, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		c.log.Warn().Err(err).Msg("cache read failed")
	}
	c.misses.Add(1)

	analysis, err := c.inner.Comment(ctx, pgn)
	if err != nil {
		return "", err
	}
	if err := c.store.Put(key, &store.Entry{
		Provider: c.inner.Name(),
		Analysis: analysis,
		Created:  time.Now(),
	}); err != nil {
		c.log.Warn().Err(err).Msg("cache write failed")
	}
	return analysis, nil
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cached) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses) * 100
}

func (c *Cached) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// CacheKey is provider plus the hash of the game with whitespace collapsed.
func CacheKey(provider, pgn string) string {
	sum := sha256.Sum256([]byte(strings.Join(strings.Fields(pgn), " ")))
	return provider + "/" + hex.EncodeToString(sum[:])
}
