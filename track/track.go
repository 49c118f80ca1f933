// Package track builds the GPS-track model used to pre- and post-filter
// geocaches encountered along a route.
package track

import (
	"io"
	"math"

	"github.com/paulmach/orb"
	"github.com/tkrajina/gpxgo/gpx"

	"geotrailfinder/entities"
	"geotrailfinder/geo"
)

// Track is a flattened GPS track: its waypoints in document order, the set
// of z=14 tiles covering them, and a polyline used for proximity queries.
type Track struct {
	Waypoints []geo.Coordinate
	Tiles     map[geo.Tile]struct{}
	Polyline  orb.LineString
}

// FromGPX reads a GPX document and builds the Track it describes, flattening
// every segment's points into a single waypoint list and tile set.
func FromGPX(r io.Reader) (*Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, entities.NewError(entities.ErrIO, "track.FromGPX: read", err)
	}

	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, entities.NewError(entities.ErrGpx, "track.FromGPX: parse", err)
	}

	t := &Track{
		Tiles: make(map[geo.Tile]struct{}),
	}

	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				c := geo.Coordinate{Lat: pt.Latitude, Lon: pt.Longitude}
				t.Waypoints = append(t.Waypoints, c)
				t.Polyline = append(t.Polyline, orb.Point{c.Lon, c.Lat})

				center := geo.FromCoordinate(c.Lat, c.Lon, geo.DefaultZoom)
				for _, nb := range center.Around() {
					t.Tiles[nb] = struct{}{}
				}
			}
		}
	}

	return t, nil
}

// TileList returns the track's tile set as a slice.
func (t *Track) TileList() []geo.Tile {
	out := make([]geo.Tile, 0, len(t.Tiles))
	for tile := range t.Tiles {
		out = append(out, tile)
	}
	return out
}

// infinity is the sentinel distance returned for an empty polyline.
const infinity = math.MaxFloat64

// Near returns the geodesic distance from c to the closest point on the
// track's polyline. Returns infinity if the track has no waypoints.
//
// Each segment is handled by projecting c onto it in lon/lat space,
// clamping to the segment, then measuring the haversine distance to the
// clamped point.
func (t *Track) Near(c geo.Coordinate) float64 {
	if len(t.Polyline) == 0 {
		return infinity
	}
	if len(t.Polyline) == 1 {
		p := t.Polyline[0]
		return c.Distance(geo.Coordinate{Lat: p[1], Lon: p[0]})
	}

	p := orb.Point{c.Lon, c.Lat}
	best := infinity
	for i := 0; i < len(t.Polyline)-1; i++ {
		a := t.Polyline[i]
		b := t.Polyline[i+1]
		closest := closestPointOnSegment(p, a, b)
		d := c.Distance(geo.Coordinate{Lat: closest[1], Lon: closest[0]})
		if d < best {
			best = d
		}
	}
	return best
}

func closestPointOnSegment(p, a, b orb.Point) orb.Point {
	dx := b[0] - a[0]
	dy := b[1] - a[1]

	if dx == 0 && dy == 0 {
		return a
	}

	tParam := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / (dx*dx + dy*dy)
	if tParam < 0 {
		return a
	}
	if tParam > 1 {
		return b
	}
	return orb.Point{a[0] + tParam*dx, a[1] + tParam*dy}
}
