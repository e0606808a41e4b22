package consensus

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/twine-labs/solproof/common"
)

// SigCache remembers (pubkey, message, signature) triples that verified, so
// overlapping windows don't pay for the same ed25519 check twice. Only
// successes are stored: a miss always falls back to real verification, so
// the cache can never turn a bad signature into a good one.
//
// A SigCache is safe for concurrent use.
type SigCache struct {
	cache *bigcache.BigCache
}

// NewSigCache makes a cache capped at maxMB megabytes.
func NewSigCache(maxMB int) (*SigCache, error) {
	cfg := bigcache.DefaultConfig(time.Hour)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 64 * 1024
	cfg.MaxEntrySize = 8
	cfg.HardMaxCacheSize = maxMB
	cfg.CleanWindow = 5 * time.Minute
	cfg.Verbose = false

	c, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return &SigCache{cache: c}, nil
}

func sigCacheKey(pubkey, msg, sig []byte) string {
	fb := common.NewFreeBytes()
	defer fb.Free()

	h := sha256.New()
	h.Write(pubkey)
	h.Write(sig)
	h.Write(msg)
	fb.Bytes = h.Sum(fb.Bytes)
	return string(fb.Bytes)
}

// Exists reports whether the triple verified before.
func (c *SigCache) Exists(pubkey, msg, sig []byte) bool {
	_, err := c.cache.Get(sigCacheKey(pubkey, msg, sig))
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		log.Warnf("signature cache read: %v", err)
	}
	return err == nil
}

// Add records a triple that verified.
func (c *SigCache) Add(pubkey, msg, sig []byte) {
	if err := c.cache.Set(sigCacheKey(pubkey, msg, sig), []byte{1}); err != nil {
		log.Warnf("signature cache write: %v", err)
	}
}

// Len is the number of cached entries.
func (c *SigCache) Len() int {
	return c.cache.Len()
}

// Close stops the cache's cleanup goroutine.
func (c *SigCache) Close() error {
	return c.cache.Close()
}
