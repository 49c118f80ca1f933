// Package geo implements slippy-map tile math and spherical coordinate
// geometry: the tile and coordinate primitives the rest of the pipeline
// is built on.
package geo

import (
	"fmt"
	"math"
)

// DefaultZoom is the zoom level tile discovery and track tiling operate at.
const DefaultZoom = 14

// Tile is a slippy-map tile address. Invariant: X, Y < 2^Z.
type Tile struct {
	X, Y uint32
	Z    uint8
}

// String renders t the way progress messages report it: "z/x/y".
func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Quadkey interleaves the low Z bits of X and Y into a single integer,
// used as a compact database key. Collisions across different zooms are
// possible but never arise because each table is keyed at a single zoom.
func (t Tile) Quadkey() int64 {
	var qk int64
	for i := uint8(0); i < t.Z; i++ {
		bit := uint8(t.Z - 1 - i)
		xBit := int64((t.X >> bit) & 1)
		yBit := int64((t.Y >> bit) & 1)
		qk = qk<<2 | (yBit << 1) | xBit
	}
	return qk
}

// FromCoordinate converts a WGS84 coordinate to the tile containing it at zoom z.
func FromCoordinate(lat, lon float64, z uint8) Tile {
	n := math.Exp2(float64(z))
	latRad := lat * math.Pi / 180
	x := (lon + 180) / 360 * n
	y := (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n
	return Tile{
		X: clampTileCoord(x, n),
		Y: clampTileCoord(y, n),
		Z: z,
	}
}

func clampTileCoord(v, n float64) uint32 {
	if v < 0 {
		return 0
	}
	if v >= n {
		return uint32(n) - 1
	}
	return uint32(v)
}

// ToCoord returns the coordinate of the tile's top-left (northwest) corner.
func (t Tile) ToCoord() Coordinate {
	return tileToCoord(float64(t.X), float64(t.Y), t.Z)
}

// UTFGridOffset returns the coordinate at fractional pixel offset (fx, fy)
// within the tile, fx and fy in [0,1].
func (t Tile) UTFGridOffset(fx, fy float64) Coordinate {
	return tileToCoord(float64(t.X)+fx, float64(t.Y)+fy, t.Z)
}

func tileToCoord(x, y float64, z uint8) Coordinate {
	n := math.Exp2(float64(z))
	lon := x/n*360 - 180
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*y/n)))
	lat := latRad * 180 / math.Pi
	return Coordinate{Lat: lat, Lon: lon}
}

// Around returns the 3x3 neighborhood of tiles centered on t (including t),
// at the same zoom. Tiles that would fall outside [0, 2^z) are skipped.
func (t Tile) Around() []Tile {
	n := int64(1) << t.Z
	out := make([]Tile, 0, 9)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx := int64(t.X) + int64(dx)
			ny := int64(t.Y) + int64(dy)
			if nx < 0 || ny < 0 || nx >= n || ny >= n {
				continue
			}
			out = append(out, Tile{X: uint32(nx), Y: uint32(ny), Z: t.Z})
		}
	}
	return out
}

// Near returns all tiles at DefaultZoom whose integer coordinates lie in the
// axis-aligned square bounded by center projected 315°/radius and
// 135°/radius (inclusive). This overestimates the circle by ~sqrt(2), which
// is intentional: cheap coverage beats a more precise but costlier shape.
func Near(center Coordinate, radiusM float64) []Tile {
	nw := center.Project(radiusM, 315)
	se := center.Project(radiusM, 135)

	tNW := FromCoordinate(nw.Lat, nw.Lon, DefaultZoom)
	tSE := FromCoordinate(se.Lat, se.Lon, DefaultZoom)

	xMin, xMax := tNW.X, tSE.X
	if xMin > xMax {
		xMin, xMax = xMax, xMin
	}
	yMin, yMax := tNW.Y, tSE.Y
	if yMin > yMax {
		yMin, yMax = yMax, yMin
	}

	out := make([]Tile, 0, (xMax-xMin+1)*(yMax-yMin+1))
	for y := yMin; y <= yMax; y++ {
		for x := xMin; x <= xMax; x++ {
			out = append(out, Tile{X: x, Y: y, Z: DefaultZoom})
		}
	}
	return out
}
