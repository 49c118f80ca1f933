package store

import (
	"os"
	"strconv"
	"testing"

	"geotrailfinder/config"
)

// requireTestDatabase opens a Store against a Postgres instance configured
// via PGHOST/PGPORT/PGDATABASE/PGUSER/PGPASSWORD, skipping the test if
// PGHOST isn't set. These tests exercise real SQL against the tiles2,
// tiles_codes, geocaches, and settings tables and need a running Postgres
// with that schema already applied to do it.
func requireTestDatabase(t *testing.T) *Store {
	t.Helper()

	host := os.Getenv("PGHOST")
	if host == "" {
		t.Skip("PGHOST not set, skipping store integration test")
	}

	port, _ := strconv.Atoi(os.Getenv("PGPORT"))
	if port == 0 {
		port = 5432
	}

	cfg := &config.Config{Database: config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Database: os.Getenv("PGDATABASE"),
		User:     os.Getenv("PGUSER"),
		Password: os.Getenv("PGPASSWORD"),
	}}

	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
