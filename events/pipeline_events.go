package events

import "geotrailfinder/geo"

// TileDiscovered fires after tilecache resolves a tile, whether served from
// cache or fetched upstream.
type TileDiscovered struct {
	Tile      geo.Tile
	CodeCount int
	FromCache bool
}

func (TileDiscovered) Type() string { return "tile.discovered" }

// DetailsFetched fires after detailcache resolves a batch of codes.
type DetailsFetched struct {
	Requested int
	Fetched   int
}

func (DetailsFetched) Type() string { return "details.fetched" }

// TokenRefreshed fires whenever the OAuth token cache exchanges a refresh token.
type TokenRefreshed struct{}

func (TokenRefreshed) Type() string { return "token.refreshed" }

// JobFinished fires when a Queue job completes, successfully or not.
type JobFinished struct {
	JobID string
	Err   error
}

func (JobFinished) Type() string { return "job.finished" }
