package entities

import (
	"time"

	"geotrailfinder/geo"
)

// GeocacheLog is a single logged visit to a geocache.
type GeocacheLog struct {
	Text      string
	LogType   LogType
	Timestamp time.Time
}

// Geocache is the full detail record for a single geocache. When IsPremium
// is true, every field except Code is left at its zero value: the upstream
// provider refuses to detail premium-only caches without a paid account,
// so the record is opaque.
type Geocache struct {
	Code             string
	Name             string
	IsPremium        bool
	Terrain          float32
	Difficulty       float32
	Coord            geo.Coordinate
	ShortDescription string
	LongDescription  string
	EncodedHints     string
	Size             ContainerSize
	CacheType        CacheType
	Archived         bool
	Available        bool
	Logs             []GeocacheLog
}

// PremiumStub returns the opaque record returned for a premium-only code.
func PremiumStub(code string) Geocache {
	return Geocache{Code: code, IsPremium: true}
}
