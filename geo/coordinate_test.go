package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	c := Coordinate{Lat: 48.8566, Lon: 2.3522}
	assert.Equal(t, 0.0, c.Distance(c))
}

func TestDistanceKnownCities(t *testing.T) {
	// Paris to London, roughly 343-344km great-circle.
	paris := Coordinate{Lat: 48.8566, Lon: 2.3522}
	london := Coordinate{Lat: 51.5074, Lon: -0.1278}

	d := paris.Distance(london)
	assert.InDelta(t, 343000, d, 5000)
}

func TestProjectThenDistanceMatchesRequestedRange(t *testing.T) {
	origin := Coordinate{Lat: 48.8566, Lon: 2.3522}
	dest := origin.Project(1000, 90)

	assert.InDelta(t, 1000, origin.Distance(dest), 1)
}

func TestProjectNorthIncreasesLatitude(t *testing.T) {
	origin := Coordinate{Lat: 0, Lon: 0}
	dest := origin.Project(10000, 0)

	assert.Greater(t, dest.Lat, origin.Lat)
	assert.InDelta(t, 0, dest.Lon, 0.001)
}

func TestProjectWrapsLongitudeAcrossAntimeridian(t *testing.T) {
	origin := Coordinate{Lat: 0, Lon: 179.999}
	dest := origin.Project(50000, 90)

	assert.Less(t, dest.Lon, 0.0)
}
