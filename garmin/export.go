// Package garmin declares the shape an external GPX/GPI exporter plugs
// into. Producing a Garmin-compatible waypoint file is explicitly out of
// scope here; this package exists only so a downstream collaborator has a
// stable function type to implement against.
package garmin

import (
	"geotrailfinder/entities"
	"geotrailfinder/planner"
)

// Exporter renders a filtered geocache list into a vendor-specific export
// format. No implementation is provided.
type Exporter func(geocaches []entities.Geocache, filter planner.Filter) ([]byte, error)
