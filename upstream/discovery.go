package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"geotrailfinder/entities"
	"geotrailfinder/geo"
	"geotrailfinder/utfgrid"
)

// Discover fetches the tile's raster image (discarded, requested only to
// populate the provider's tile cache the way a browser would) and its
// UTF-grid pixel map, then decodes the latter into the GC codes visible in
// the tile. A 204 response from map.info means no caches in the tile and
// is not an error, it yields an empty, nil-error result. One pacing sleep
// follows the pair of calls, not each individually.
func (c *Client) Discover(ctx context.Context, tile geo.Tile) ([]entities.GcCode, error) {
	defer c.pace()

	host := fmt.Sprintf(c.cfg.Upstream.TileHost, c.tileServer())

	if err := c.fetchTilePNG(ctx, host, tile); err != nil {
		return nil, err
	}

	infoURL := fmt.Sprintf("%s://%s/map.info?x=%d&y=%d&z=%d", c.scheme(), host, tile.X, tile.Y, tile.Z)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoURL, nil)
	if err != nil {
		return nil, entities.NewError(entities.ErrUpstream, "upstream.Discover: build request", err)
	}
	req.Header.Set("User-Agent", c.cfg.Upstream.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, entities.NewError(entities.ErrUpstream, "upstream.Discover: request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, entities.NewError(entities.ErrUpstream, "upstream.Discover",
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, infoURL))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, entities.NewError(entities.ErrIO, "upstream.Discover: read body", err)
	}

	return utfgrid.Decode(tile, body)
}

// fetchTilePNG requests the tile raster. Its body is discarded: it exists
// only as a side effect the provider expects (a browser loading the visible
// map tile) alongside the map.info call that actually carries data.
func (c *Client) fetchTilePNG(ctx context.Context, host string, tile geo.Tile) error {
	pngURL := fmt.Sprintf("%s://%s/map.png?x=%d&y=%d&z=%d", c.scheme(), host, tile.X, tile.Y, tile.Z)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pngURL, nil)
	if err != nil {
		return entities.NewError(entities.ErrUpstream, "upstream.Discover: build png request", err)
	}
	req.Header.Set("User-Agent", c.cfg.Upstream.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return entities.NewError(entities.ErrUpstream, "upstream.Discover: png request", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}
