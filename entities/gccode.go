package entities

import (
	"regexp"
	"time"

	"geotrailfinder/geo"
)

var gcCodePattern = regexp.MustCompile(`^GC[0-9A-Z]+$`)

// GcCode is a geocache code discovered from a tile, optionally carrying the
// approximate coordinate the UTF-grid decoder was able to recover.
type GcCode struct {
	Code        string
	ApproxCoord *geo.Coordinate
}

// IsValid reports whether Code matches the expected GC-code shape.
func (g GcCode) IsValid() bool {
	return gcCodePattern.MatchString(g.Code)
}

// Timestamped pairs a value with the time it was produced or last refreshed.
type Timestamped[T any] struct {
	Ts    time.Time
	Value T
}
