package planner

import (
	"context"
	"time"

	"geotrailfinder/config"
	"geotrailfinder/detailcache"
	"geotrailfinder/entities"
	"geotrailfinder/events"
	"geotrailfinder/geo"
	"geotrailfinder/job"
	"geotrailfinder/tilecache"
	"geotrailfinder/track"
)

// Planner resolves area and track requests into geocache lists, submitting
// each as a background Job but racing its completion against a short
// fastpath window so a caller whose request resolves quickly never has to
// poll.
type Planner struct {
	queue       *job.Queue
	tileCache   *tilecache.Cache
	detailCache *detailcache.Cache
	dispatcher  *events.Dispatcher
	fastpath    time.Duration
}

// New builds a Planner from its dependencies.
func New(cfg *config.Config, queue *job.Queue, tileCache *tilecache.Cache, detailCache *detailcache.Cache, dispatcher *events.Dispatcher) *Planner {
	return &Planner{
		queue:       queue,
		tileCache:   tileCache,
		detailCache: detailCache,
		dispatcher:  dispatcher,
		fastpath:    cfg.Pipeline.PlannerFastpath,
	}
}

// Result is what a plan call hands back to its caller: either the finished
// geocache list, or a JobID to poll if the fastpath window elapsed first.
type Result struct {
	Done      bool
	JobID     string
	Geocaches []entities.Geocache
}

// trackCorridorMeters is the fixed distance a GC code's approximate
// coordinate (pre-filter) or full coordinate (post-filter) must fall
// within the track's polyline to survive.
const trackCorridorMeters = 100

// AreaPlan discovers every geocache within radiusM of center. The area
// plan has no pre-filter of its own; filter is an optional supplement
// layered on top.
func (p *Planner) AreaPlan(ctx context.Context, center geo.Coordinate, radiusM float64, filter Filter) (Result, error) {
	tiles := geo.Near(center, radiusM)
	return p.run(ctx, tiles, nil, filter.Post)
}

// TrackPlan discovers every geocache within trackCorridorMeters of t's
// polyline. pre keeps any code whose approximate coordinate is unknown or
// within the corridor, a cheap filter that avoids paying for a detail
// fetch on codes nowhere near the route; post requires the cache be
// active, a quick stop, and within the corridor of its full coordinate.
func (p *Planner) TrackPlan(ctx context.Context, t *track.Track) (Result, error) {
	tiles := t.TileList()

	pre := func(code entities.GcCode) bool {
		if code.ApproxCoord == nil {
			return true
		}
		return t.Near(*code.ApproxCoord) <= trackCorridorMeters
	}
	post := func(gc entities.Geocache) bool {
		return IsActive(gc) && IsQuickStop(gc) && t.Near(gc.Coord) <= trackCorridorMeters
	}
	return p.run(ctx, tiles, pre, post)
}

// run submits the tile set as a background job and races its completion
// against the configured fastpath window.
func (p *Planner) run(ctx context.Context, tiles []geo.Tile, pre func(entities.GcCode) bool, post func(entities.Geocache) bool) (Result, error) {
	done := make(chan struct{})

	j := p.queue.Submit(ctx, func(ctx context.Context, j *job.Job) {
		defer close(done)
		_, _ = job.ProcessFiltered(ctx, j, p.dispatcher, tiles, p.tileCache, p.detailCache,
			pre, post)
	})

	select {
	case <-done:
		snap := j.Snapshot()
		if snap.Status == entities.JobFailed {
			return Result{}, snap.Err
		}
		return Result{Done: true, JobID: j.ID, Geocaches: snap.Geocaches}, nil
	case <-time.After(p.fastpath):
		return Result{Done: false, JobID: j.ID}, nil
	}
}
