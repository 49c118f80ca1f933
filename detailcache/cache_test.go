package detailcache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotrailfinder/config"
	"geotrailfinder/store"
	"geotrailfinder/token"
	"geotrailfinder/upstream"
)

// requireTestStore opens a Store against a Postgres instance configured via
// PGHOST/PGPORT/PGDATABASE/PGUSER/PGPASSWORD, skipping the test if PGHOST
// isn't set, mirroring the store package's own integration-test convention.
func requireTestStore(t *testing.T) *store.Store {
	t.Helper()

	host := os.Getenv("PGHOST")
	if host == "" {
		t.Skip("PGHOST not set, skipping detailcache integration test")
	}

	port, _ := strconv.Atoi(os.Getenv("PGPORT"))
	if port == 0 {
		port = 5432
	}

	s, err := store.Open(&config.Config{Database: config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Database: os.Getenv("PGDATABASE"),
		User:     os.Getenv("PGUSER"),
		Password: os.Getenv("PGPASSWORD"),
	}})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func geocacheJSON(code string) string {
	return fmt.Sprintf(`{"referenceCode":%q,"name":"Cache %s","difficulty":2,"terrain":2,`+
		`"postedCoordinates":{"latitude":1,"longitude":2},"geocacheSize":{"id":0},`+
		`"geocacheType":{"id":2},"status":"Active"}`, code, code)
}

// newFakeDetailUpstream serves /v1.0/geocaches, returning one record per
// requested code, optionally failing the first N calls with 401 to exercise
// the token-refresh-and-retry path.
func newFakeDetailUpstream(t *testing.T, unauthorizedCount int32) (*upstream.Client, *int32, *httptest.Server) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= unauthorizedCount {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		codes := strings.Split(r.URL.Query().Get("referenceCodes"), ",")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "[")
		for i, code := range codes {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprint(w, geocacheJSON(code))
		}
		fmt.Fprint(w, "]")
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			Scheme:     "http",
			DetailHost: strings.TrimPrefix(srv.URL, "http://"),
			UserAgent:  "test-agent",
		},
		Pipeline: config.PipelineConfig{UpstreamPacing: 0},
	}
	return upstream.NewClient(cfg), &calls, srv
}

func newTestTokenCache(t *testing.T, settings *store.SettingsRepo) *token.Cache {
	t.Helper()
	require.NoError(t, settings.Upsert("access_token", "initial-token"))
	require.NoError(t, settings.Upsert("refresh_token", "initial-refresh"))

	refreshSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"refreshed-token","refresh_token":"refreshed-refresh"}`)
	}))
	t.Cleanup(refreshSrv.Close)

	cfg := &config.Config{OAuth: config.OAuthConfig{TokenURL: refreshSrv.URL}}
	return token.NewCache(cfg, settings, nil)
}

func TestGetFetchesMissesAndCachesThem(t *testing.T) {
	s := requireTestStore(t)
	details := store.NewDetailRepo(s)
	settings := store.NewSettingsRepo(s)
	client, calls, _ := newFakeDetailUpstream(t, 0)
	tokens := newTestTokenCache(t, settings)
	cfg := &config.Config{Pipeline: config.PipelineConfig{FreshnessWindow: 7 * 24 * time.Hour, BatchSize: 50}}
	cache := New(cfg, details, client, tokens)

	gcs, err := cache.Get(context.Background(), []string{"GCAAAA", "GCBBBB"})
	require.NoError(t, err)
	require.Len(t, gcs, 2)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))

	gcs, err = cache.Get(context.Background(), []string{"GCAAAA", "GCBBBB"})
	require.NoError(t, err)
	require.Len(t, gcs, 2)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls), "a second call within the freshness window must issue zero upstream detail requests")
}

func TestGetChunksMissesIntoBatchSizedCalls(t *testing.T) {
	s := requireTestStore(t)
	details := store.NewDetailRepo(s)
	settings := store.NewSettingsRepo(s)
	client, calls, _ := newFakeDetailUpstream(t, 0)
	tokens := newTestTokenCache(t, settings)
	cfg := &config.Config{Pipeline: config.PipelineConfig{FreshnessWindow: 7 * 24 * time.Hour, BatchSize: 50}}
	cache := New(cfg, details, client, tokens)

	codes := make([]string, 51)
	for i := range codes {
		codes[i] = fmt.Sprintf("GCX%03d", i)
	}

	gcs, err := cache.Get(context.Background(), codes)
	require.NoError(t, err)
	require.Len(t, gcs, 51)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls), "51 misses at batch size 50 must issue exactly two detail calls")
}

func TestGetRetriesOnceAfterTokenExpiry(t *testing.T) {
	s := requireTestStore(t)
	details := store.NewDetailRepo(s)
	settings := store.NewSettingsRepo(s)
	client, calls, _ := newFakeDetailUpstream(t, 1) // first call 401s, second succeeds
	tokens := newTestTokenCache(t, settings)
	cfg := &config.Config{Pipeline: config.PipelineConfig{FreshnessWindow: 7 * 24 * time.Hour, BatchSize: 50}}
	cache := New(cfg, details, client, tokens)

	gcs, err := cache.Get(context.Background(), []string{"GCRETRY"})
	require.NoError(t, err)
	require.Len(t, gcs, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))

	refreshed, _, found, err := details.Get("GCRETRY")
	require.NoError(t, err)
	require.True(t, found)
	assert.NotEmpty(t, refreshed)

	newAccess, _, err := settings.Get("access_token")
	require.NoError(t, err)
	assert.Equal(t, "refreshed-token", newAccess)
}

func TestGetDoesNotPersistPremiumStubs(t *testing.T) {
	s := requireTestStore(t)
	details := store.NewDetailRepo(s)
	settings := store.NewSettingsRepo(s)
	tokens := newTestTokenCache(t, settings)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"referenceCode":"GCPREM","isPremiumOnly":true}]`)
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{Scheme: "http", DetailHost: strings.TrimPrefix(srv.URL, "http://"), UserAgent: "test-agent"},
		Pipeline: config.PipelineConfig{UpstreamPacing: 0, FreshnessWindow: 7 * 24 * time.Hour, BatchSize: 50},
	}
	client := upstream.NewClient(cfg)
	cache := New(cfg, details, client, tokens)

	gcs, err := cache.Get(context.Background(), []string{"GCPREM"})
	require.NoError(t, err)
	require.Len(t, gcs, 1)
	assert.True(t, gcs[0].IsPremium)

	_, _, found, err := details.Get("GCPREM")
	require.NoError(t, err)
	assert.False(t, found, "premium-only stubs must never be persisted")
}
