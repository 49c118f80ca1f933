package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromCoordinateRoundTrip(t *testing.T) {
	tile := FromCoordinate(48.8566, 2.3522, 14)
	coord := tile.ToCoord()

	// ToCoord returns the tile's NW corner, not the original point, so we
	// only assert the corner lands within 0.1 degrees of the input (a few
	// tile widths at z=14).
	assert.InDelta(t, 48.8566, coord.Lat, 0.1)
	assert.InDelta(t, 2.3522, coord.Lon, 0.1)
}

func TestQuadkeyDistinctForDistinctTiles(t *testing.T) {
	a := Tile{X: 8300, Y: 5638, Z: 14}
	b := Tile{X: 8301, Y: 5638, Z: 14}
	assert.NotEqual(t, a.Quadkey(), b.Quadkey())
}

func TestQuadkeyStableForSameTile(t *testing.T) {
	a := Tile{X: 8300, Y: 5638, Z: 14}
	b := Tile{X: 8300, Y: 5638, Z: 14}
	assert.Equal(t, a.Quadkey(), b.Quadkey())
}

func TestQuadkeyKnownValue(t *testing.T) {
	// Interleaving the low 14 bits of x=8579 and y=5698 by hand gives the
	// base-4 digit string 12022112000031.
	tile := Tile{X: 8579, Y: 5698, Z: 14}
	assert.Equal(t, int64(103374861), tile.Quadkey())
}

func TestTileString(t *testing.T) {
	tile := Tile{X: 5, Y: 9, Z: 14}
	assert.Equal(t, "14/5/9", tile.String())
}

func TestAroundIncludesCenterAndNeighbors(t *testing.T) {
	center := Tile{X: 10, Y: 10, Z: 14}
	neighbors := center.Around()

	assert.Len(t, neighbors, 9)
	assert.Contains(t, neighbors, center)
	assert.Contains(t, neighbors, Tile{X: 9, Y: 9, Z: 14})
	assert.Contains(t, neighbors, Tile{X: 11, Y: 11, Z: 14})
}

func TestAroundClampsAtWorldEdge(t *testing.T) {
	corner := Tile{X: 0, Y: 0, Z: 14}
	neighbors := corner.Around()

	// Only the 2x2 quadrant at (0,0),(1,0),(0,1),(1,1) is valid; every
	// out-of-range neighbor is dropped rather than wrapping or panicking.
	assert.Len(t, neighbors, 4)
	for _, n := range neighbors {
		assert.GreaterOrEqual(t, int(n.X), 0)
		assert.GreaterOrEqual(t, int(n.Y), 0)
	}
}

func TestNearCoversCenterTile(t *testing.T) {
	center := Coordinate{Lat: 48.8566, Lon: 2.3522}
	tiles := Near(center, 1000)

	centerTile := FromCoordinate(center.Lat, center.Lon, DefaultZoom)
	assert.Contains(t, tiles, centerTile)
}

func TestNearGrowsWithRadius(t *testing.T) {
	center := Coordinate{Lat: 48.8566, Lon: 2.3522}
	small := Near(center, 500)
	large := Near(center, 50000)

	assert.Greater(t, len(large), len(small))
}

func TestUTFGridOffsetInterpolatesWithinTile(t *testing.T) {
	tile := Tile{X: 8300, Y: 5638, Z: 14}
	nw := tile.UTFGridOffset(0, 0)
	se := tile.UTFGridOffset(1, 1)
	mid := tile.UTFGridOffset(0.5, 0.5)

	// Latitude decreases south, longitude increases east, in slippy-map
	// tile space: NW is north/west of SE.
	assert.Greater(t, nw.Lat, se.Lat)
	assert.Less(t, nw.Lon, se.Lon)
	assert.InDelta(t, (nw.Lat+se.Lat)/2, mid.Lat, 0.01)
	assert.InDelta(t, (nw.Lon+se.Lon)/2, mid.Lon, 0.01)
}
