package db

import (
	"context"

	"github.com/tordrt/sqldiff/internal/schema"
)

type cacheKey struct {
	table string
	key   string
}

// CachedLookup memoises another lookup per (table, key). Errors are not
// cached. It is not safe for concurrent use.
type CachedLookup struct {
	next    schema.ForeignKeyLookup
	isFK    map[cacheKey]bool
	details map[cacheKey]*schema.ForeignKey
}

// NewCachedLookup creates a cache in front of next
func NewCachedLookup(next schema.ForeignKeyLookup) *CachedLookup {
	return &CachedLookup{
		next:    next,
		isFK:    make(map[cacheKey]bool),
		details: make(map[cacheKey]*schema.ForeignKey),
	}
}

// IsForeignKey answers from the cache, asking next on a miss
func (c *CachedLookup) IsForeignKey(ctx context.Context, table, key string) (bool, error) {
	k := cacheKey{table, key}
	if v, ok := c.isFK[k]; ok {
		return v, nil
	}
	v, err := c.next.IsForeignKey(ctx, table, key)
	if err != nil {
		return false, err
	}
	c.isFK[k] = v
	return v, nil
}

// ForeignKey answers from the cache, asking next on a miss
func (c *CachedLookup) ForeignKey(ctx context.Context, table, key string) (*schema.ForeignKey, error) {
	k := cacheKey{table, key}
	if fk, ok := c.details[k]; ok {
		return fk, nil
	}
	fk, err := c.next.ForeignKey(ctx, table, key)
	if err != nil {
		return nil, err
	}
	c.details[k] = fk
	return fk, nil
}
