// Package detailcache fronts the upstream detail call with a
// freshness-windowed store keyed by GC code, batching misses into
// provider-sized chunks and retrying once on an expired token.
package detailcache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"geotrailfinder/config"
	"geotrailfinder/entities"
	"geotrailfinder/store"
	"geotrailfinder/token"
	"geotrailfinder/upstream"
)

// Cache resolves GC codes to full Geocache records, serving cached rows
// younger than the freshness window and fetching the rest from upstream in
// batches of at most cfg.Pipeline.BatchSize.
type Cache struct {
	details   *store.DetailRepo
	upstream  *upstream.Client
	tokens    *token.Cache
	freshness time.Duration
	batchSize int
}

// New builds a Cache over the given detail repo, upstream client, and token cache.
func New(cfg *config.Config, details *store.DetailRepo, client *upstream.Client, tokens *token.Cache) *Cache {
	return &Cache{
		details:   details,
		upstream:  client,
		tokens:    tokens,
		freshness: cfg.Pipeline.FreshnessWindow,
		batchSize: cfg.Pipeline.BatchSize,
	}
}

// Get resolves every code in codes to its Geocache. A code missing from
// upstream's response (no longer listed, for example) is simply absent
// from the result rather than an error.
func (c *Cache) Get(ctx context.Context, codes []string) ([]entities.Geocache, error) {
	found, stamps, err := c.details.GetMany(codes)
	if err != nil {
		// A read error degrades to a miss rather than failing the whole
		// request.
		log.Printf("detailcache: GetMany failed, treating %d codes as misses: %v", len(codes), err)
		found = map[string]json.RawMessage{}
		stamps = map[string]time.Time{}
	}

	out := make([]entities.Geocache, 0, len(codes))
	var misses []string
	now := time.Now()
	for _, code := range codes {
		raw, ok := found[code]
		if !ok || now.Sub(stamps[code]) >= c.freshness {
			misses = append(misses, code)
			continue
		}
		gc, err := upstream.ParseDetailRecord(raw)
		if err != nil {
			log.Printf("detailcache: stored record for %s failed to parse, treating as miss: %v", code, err)
			misses = append(misses, code)
			continue
		}
		out = append(out, gc)
	}

	for i := 0; i < len(misses); i += c.batchSize {
		end := i + c.batchSize
		if end > len(misses) {
			end = len(misses)
		}
		chunk := misses[i:end]

		fetched, err := c.fetchChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}

		fetchedAt := time.Now()
		for _, result := range fetched {
			// Premium-only stubs are returned to the caller but never
			// persisted: premium state can change, so re-requesting them
			// should always hit upstream again.
			if !result.Geocache.IsPremium {
				if err := c.details.Upsert(result.Code, result.Raw, fetchedAt); err != nil {
					return nil, err
				}
			}
			out = append(out, result.Geocache)
		}
	}

	return out, nil
}

// fetchChunk fetches a single upstream-sized batch, refreshing the token and
// retrying exactly once if the first attempt reports an expired token.
func (c *Cache) fetchChunk(ctx context.Context, codes []string) ([]upstream.DetailResult, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	results, err := c.upstream.FetchDetails(ctx, tok, codes)
	if err == upstream.ErrAuthExpired {
		tok, err = c.tokens.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		results, err = c.upstream.FetchDetails(ctx, tok, codes)
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}
