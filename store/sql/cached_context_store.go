package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-vmauth/core"
)

const contextCacheKeyPrefix = "go-vmauth::context::v1"

// ContextDirectory is the write-capable context store contract the cache
// wraps.
type ContextDirectory interface {
	core.ContextStore
	Create(ctx context.Context, in CreateContextInput) (core.Context, error)
	Delete(ctx context.Context, id string) error
}

// CachedContextStore is a read-through cache over a base context store.
// Domain-to-context bindings change rarely relative to call volume, so every
// call's first lookup can be served from cache.
type CachedContextStore struct {
	base  ContextDirectory
	cache repositorycache.CacheService
}

func NewCachedContextStore(
	base ContextDirectory,
	cacheService repositorycache.CacheService,
) (*CachedContextStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base context store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: context cache service is required")
	}
	return &CachedContextStore{base: base, cache: cacheService}, nil
}

// ContextCacheKey returns the deterministic cache key contract for context
// reads: go-vmauth::context::v1::<domain> with the domain URL-path escaped
// after trimming.
func ContextCacheKey(domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return "", fmt.Errorf("sqlstore: cache key domain is required")
	}
	return contextCacheKeyPrefix + "::" + url.PathEscape(domain), nil
}

func (s *CachedContextStore) GetByDomain(ctx context.Context, domain string) (core.Context, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Context{}, fmt.Errorf("sqlstore: cached context store is not configured")
	}
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return core.Context{}, core.ErrContextNotFound(domain)
	}
	cacheKey, err := ContextCacheKey(domain)
	if err != nil {
		return core.Context{}, err
	}

	// Not-found results are not cached; only resolved contexts enter the
	// cache, so a freshly provisioned domain resolves on its next call.
	vmCtx, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Context, error) {
		return s.base.GetByDomain(ctx, domain)
	})
	if err != nil {
		return core.Context{}, err
	}
	return vmCtx, nil
}

// Create writes through to the base store. No invalidation is needed: a new
// domain cannot be cached yet.
func (s *CachedContextStore) Create(ctx context.Context, in CreateContextInput) (core.Context, error) {
	if s == nil || s.base == nil {
		return core.Context{}, fmt.Errorf("sqlstore: cached context store is not configured")
	}
	return s.base.Create(ctx, in)
}

// Delete removes the context and invalidates its cache entry.
func (s *CachedContextStore) Delete(ctx context.Context, id string, domain string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached context store is not configured")
	}
	if err := s.base.Delete(ctx, id); err != nil {
		return err
	}
	cacheKey, err := ContextCacheKey(domain)
	if err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		return err
	}
	return nil
}
