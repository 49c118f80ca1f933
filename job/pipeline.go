package job

import (
	"context"
	"fmt"
	"time"

	"geotrailfinder/detailcache"
	"geotrailfinder/entities"
	"geotrailfinder/events"
	"geotrailfinder/geo"
	"geotrailfinder/tilecache"
)

// ProcessFiltered runs the three-stage pipeline behind every area and track
// request: discover the codes visible in tiles, narrow them with a cheap
// pre-filter that needs no detail call, then fetch and narrow again with a
// post-filter that needs the full record. Progress messages are written to j
// in that order, so a poller watching Snapshot never sees "Downloading N
// geocaches" before every "Discover tile i/N: ..." step has completed.
func ProcessFiltered(
	ctx context.Context,
	j *Job,
	disp *events.Dispatcher,
	tiles []geo.Tile,
	tileCache *tilecache.Cache,
	detailCache *detailcache.Cache,
	pre func(entities.GcCode) bool,
	post func(entities.Geocache) bool,
) ([]entities.Geocache, error) {
	// codes accumulates candidate codes in tile-iteration order, then
	// code order within each tile. seen dedupes a code discovered from
	// more than one overlapping tile without disturbing that order.
	var codes []string
	seen := make(map[string]struct{})

	for i, tile := range tiles {
		j.progress(fmt.Sprintf("Discover tile %d/%d: %s", i+1, len(tiles), tile))

		started := time.Now()
		discovered, err := tileCache.Discover(ctx, tile)
		if err != nil {
			j.fail(err)
			return nil, err
		}
		if disp != nil {
			disp.Publish(ctx, events.TileDiscovered{
				Tile:      tile,
				CodeCount: len(discovered.Value),
				FromCache: discovered.Ts.Before(started),
			})
		}
		for _, code := range discovered.Value {
			if !code.IsValid() {
				continue
			}
			if pre != nil && !pre(code) {
				continue
			}
			if _, dup := seen[code.Code]; dup {
				continue
			}
			seen[code.Code] = struct{}{}
			codes = append(codes, code.Code)
		}
	}

	j.progress(fmt.Sprintf("Downloading %d geocaches", len(codes)))

	gcs, err := detailCache.Get(ctx, codes)
	if err != nil {
		j.fail(err)
		return nil, err
	}
	if disp != nil {
		disp.Publish(ctx, events.DetailsFetched{Requested: len(codes), Fetched: len(gcs)})
	}

	out := make([]entities.Geocache, 0, len(gcs))
	for _, gc := range gcs {
		if post == nil || post(gc) {
			out = append(out, gc)
		}
	}

	j.finish(out)
	return out, nil
}
