package services

import (
	"context"
	"strings"
	"time"

	"costbook/models"

	gocache "github.com/patrickmn/go-cache"
)

// CachedResolver memoises Found resolutions. NotFound and Failed results
// are never stored, so resubmitting the same query resolves again.
type CachedResolver struct {
	next  Resolver
	cache *gocache.Cache
}

// NewCachedResolver wraps next with a TTL cache. A ttl <= 0 disables caching.
func NewCachedResolver(next Resolver, ttl time.Duration) *CachedResolver {
	cr := &CachedResolver{next: next}
	if ttl > 0 {
		cr.cache = gocache.New(ttl, 2*ttl)
	}
	return cr
}

func (cr *CachedResolver) Resolve(ctx context.Context, name, link string) models.Resolution {
	if cr.cache == nil {
		return cr.next.Resolve(ctx, name, link)
	}

	query, err := models.NewQuery(name, link)
	if err != nil {
		return cr.next.Resolve(ctx, name, link)
	}
	key := cacheKey(query)

	if cached, ok := cr.cache.Get(key); ok {
		return cached.(models.Resolution)
	}

	res := cr.next.Resolve(ctx, name, link)
	if res.IsFound() {
		cr.cache.SetDefault(key, res)
	}
	return res
}

// Flush drops every cached resolution
func (cr *CachedResolver) Flush() {
	if cr.cache != nil {
		cr.cache.Flush()
	}
}

// Len returns the number of cached resolutions
func (cr *CachedResolver) Len() int {
	if cr.cache == nil {
		return 0
	}
	return cr.cache.ItemCount()
}

func cacheKey(q models.Query) string {
	value := q.Value
	if q.Kind == models.QueryNameSearch {
		value = strings.ToLower(strings.Join(strings.Fields(value), " "))
	}
	return string(q.Kind) + ":" + value
}
