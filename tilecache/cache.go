// Package tilecache fronts the upstream discovery call with a
// freshness-windowed store, so a tile already discovered recently is served
// from Postgres instead of hitting the provider again.
package tilecache

import (
	"context"
	"sync"
	"time"

	"github.com/pocketbase/dbx"

	"geotrailfinder/config"
	"geotrailfinder/entities"
	"geotrailfinder/geo"
	"geotrailfinder/store"
	"geotrailfinder/upstream"
)

// Discovery is a tile's discovered GC codes together with the time they
// were fetched from the provider.
type Discovery = entities.Timestamped[[]entities.GcCode]

// Cache resolves a tile to its set of GC codes, discovering it upstream only
// when the cached entry is missing or older than the configured freshness
// window.
type Cache struct {
	tiles     *store.TileRepo
	db        *store.Store
	upstream  *upstream.Client
	freshness time.Duration

	inflight sync.Map // quadkey (int64) -> *discoverCall
}

// discoverCall lets concurrent Discover calls for the same quadkey share one
// upstream round trip instead of each issuing its own.
type discoverCall struct {
	done   chan struct{}
	result Discovery
	err    error
}

// New builds a Cache over the given tile repo, store (for transactions), and
// upstream client.
func New(cfg *config.Config, db *store.Store, tiles *store.TileRepo, client *upstream.Client) *Cache {
	return &Cache{
		tiles:     tiles,
		db:        db,
		upstream:  client,
		freshness: cfg.Pipeline.FreshnessWindow,
	}
}

// Discover returns the GC codes visible in tile and the time they were
// discovered: the stored timestamp when served from a fresh cache entry, or
// the fetch time after querying upstream and persisting the result. Two
// Discover calls racing on the same cold quadkey share a single upstream
// fetch rather than duplicating it.
func (c *Cache) Discover(ctx context.Context, tile geo.Tile) (Discovery, error) {
	qk := tile.Quadkey()

	ts, found, err := c.tiles.Header(qk)
	if err != nil {
		return Discovery{}, err
	}
	if found && time.Since(ts) < c.freshness {
		codes, err := c.tiles.Codes(qk)
		if err != nil {
			return Discovery{}, err
		}
		return Discovery{Ts: ts, Value: codes}, nil
	}

	call := &discoverCall{done: make(chan struct{})}
	actual, loaded := c.inflight.LoadOrStore(qk, call)
	if loaded {
		call = actual.(*discoverCall)
		select {
		case <-call.done:
			return call.result, call.err
		case <-ctx.Done():
			return Discovery{}, ctx.Err()
		}
	}
	defer func() {
		c.inflight.Delete(qk)
		close(call.done)
	}()

	call.result, call.err = c.discover(ctx, tile, qk)
	return call.result, call.err
}

func (c *Cache) discover(ctx context.Context, tile geo.Tile, qk int64) (Discovery, error) {
	codes, err := c.upstream.Discover(ctx, tile)
	if err != nil {
		return Discovery{}, err
	}

	now := time.Now()
	err = c.db.WithTx(func(tx *dbx.Tx) error {
		return c.tiles.Replace(tx, qk, now, codes)
	})
	if err != nil {
		return Discovery{}, err
	}

	return Discovery{Ts: now, Value: codes}, nil
}
