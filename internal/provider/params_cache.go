package provider

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/simonyos/zcode-core/internal/domain"
)

// ParametersFetcher is the underlying, possibly-expensive lookup a
// CachingParameters wraps — typically a Provider's own Parameters method.
type ParametersFetcher func(ctx context.Context, model domain.ModelId) (domain.Parameters, error)

// CachingParameters adds an LRU cache plus request deduplication in front
// of a ParametersFetcher. Concurrent calls for the same ModelId collapse
// into one underlying fetch via singleflight, grounded on
// haasonsaas-nexus's pkg/infra/singleflight.go (whose own doc comment
// points at this exact package as the non-generic original — so we use
// golang.org/x/sync/singleflight directly rather than the hand-rolled
// generic wrapper). The cache itself is bounded with
// github.com/hashicorp/golang-lru/v2 since the number of distinct models a
// long-running process queries is unbounded in principle (new models
// appear upstream) but tiny at any moment.
type CachingParameters struct {
	fetch ParametersFetcher
	cache *lru.Cache[domain.ModelId, domain.Parameters]
	group singleflight.Group
}

// NewCachingParameters wraps fetch with an LRU cache of the given size.
func NewCachingParameters(fetch ParametersFetcher, size int) (*CachingParameters, error) {
	cache, err := lru.New[domain.ModelId, domain.Parameters](size)
	if err != nil {
		return nil, err
	}
	return &CachingParameters{fetch: fetch, cache: cache}, nil
}

// Parameters returns the cached capability descriptor for model, fetching
// and caching it on a miss.
func (c *CachingParameters) Parameters(ctx context.Context, model domain.ModelId) (domain.Parameters, error) {
	if params, ok := c.cache.Get(model); ok {
		return params, nil
	}

	result, err, _ := c.group.Do(string(model), func() (any, error) {
		if params, ok := c.cache.Get(model); ok {
			return params, nil
		}
		params, err := c.fetch(ctx, model)
		if err != nil {
			return domain.Parameters{}, err
		}
		c.cache.Add(model, params)
		return params, nil
	})
	if err != nil {
		return domain.Parameters{}, err
	}
	return result.(domain.Parameters), nil
}
