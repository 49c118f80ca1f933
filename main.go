package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"geotrailfinder/config"
	"geotrailfinder/detailcache"
	"geotrailfinder/events"
	"geotrailfinder/geo"
	"geotrailfinder/job"
	"geotrailfinder/planner"
	"geotrailfinder/store"
	"geotrailfinder/tilecache"
	"geotrailfinder/token"
	"geotrailfinder/track"
	"geotrailfinder/upstream"
)

func main() {
	lat := flag.Float64("lat", 0, "area search center latitude")
	lon := flag.Float64("lon", 0, "area search center longitude")
	radius := flag.Float64("radius", 5000, "area search radius in meters")
	gpxPath := flag.String("gpx", "", "GPX file to plan a track search against, instead of an area search")
	activeOnly := flag.Bool("active-only", true, "drop archived and unavailable caches")
	quickStopOnly := flag.Bool("quick-stop-only", false, "keep only caches reachable without leaving the road")
	flag.Parse()

	cfg := config.Load()

	db, err := store.Open(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	dispatcher := events.NewDispatcher()
	dispatcher.Subscribe("tile.discovered", logHandler)
	dispatcher.Subscribe("details.fetched", logHandler)
	dispatcher.Subscribe("job.finished", logHandler)

	settings := store.NewSettingsRepo(db)
	tiles := store.NewTileRepo(db)
	details := store.NewDetailRepo(db)

	client := upstream.NewClient(cfg)
	tokens := token.NewCache(cfg, settings, dispatcher)
	tileCache := tilecache.New(cfg, db, tiles, client)
	detailCache := detailcache.New(cfg, details, client, tokens)
	queue := job.NewQueue(dispatcher)
	plan := planner.New(cfg, queue, tileCache, detailCache, dispatcher)

	filter := planner.Filter{ActiveOnly: *activeOnly, QuickStopOnly: *quickStopOnly}

	ctx := context.Background()

	var result planner.Result
	if *gpxPath != "" {
		result, err = runTrackPlan(ctx, plan, *gpxPath)
	} else {
		result, err = plan.AreaPlan(ctx, geo.Coordinate{Lat: *lat, Lon: *lon}, *radius, filter)
	}
	if err != nil {
		log.Fatalf("plan failed: %v", err)
	}

	if !result.Done {
		log.Printf("job %s still running after the fastpath window, poll it for results", result.JobID)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result.Geocaches); err != nil {
		log.Fatalf("failed to encode results: %v", err)
	}
}

func runTrackPlan(ctx context.Context, plan *planner.Planner, gpxPath string) (planner.Result, error) {
	f, err := os.Open(gpxPath)
	if err != nil {
		return planner.Result{}, fmt.Errorf("open gpx file: %w", err)
	}
	defer f.Close()

	t, err := track.FromGPX(f)
	if err != nil {
		return planner.Result{}, err
	}

	return plan.TrackPlan(ctx, t)
}

func logHandler(_ context.Context, event events.Event) error {
	log.Printf("[%s] %+v", event.Type(), event)
	return nil
}
