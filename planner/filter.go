// Package planner turns an area or track request into a filtered,
// asynchronously-produced set of geocaches.
package planner

import "geotrailfinder/entities"

// IsActive reports whether a cache is worth visiting at all: not a premium
// stub, marked available upstream, and not archived.
func IsActive(gc entities.Geocache) bool {
	return !gc.IsPremium && gc.Available && !gc.Archived
}

// IsQuickStop reports whether a cache is a Traditional gentle enough to
// find without leaving the road.
func IsQuickStop(gc entities.Geocache) bool {
	return gc.CacheType == entities.CacheTraditional && gc.Difficulty <= 3.0 && gc.Terrain <= 3.0
}

// Filter narrows an area search's results by the caller's stated
// interests. Only the area plan takes one; the track plan's post-filter
// always applies IsActive and IsQuickStop and is not parameterized.
type Filter struct {
	// ActiveOnly drops archived and unavailable caches.
	ActiveOnly bool
	// QuickStopOnly keeps only caches a driver could find without leaving the road.
	QuickStopOnly bool
}

// Post combines the filter's enabled predicates, always rejecting premium stubs.
func (f Filter) Post(gc entities.Geocache) bool {
	if gc.IsPremium {
		return false
	}
	if f.ActiveOnly && !IsActive(gc) {
		return false
	}
	if f.QuickStopOnly && !IsQuickStop(gc) {
		return false
	}
	return true
}
