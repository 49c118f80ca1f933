// Package upstream adapts the third-party geocache provider's tile and
// detail endpoints into domain objects.
package upstream

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"geotrailfinder/config"
)

// MaxBatchSize is the largest number of codes a single detail call accepts;
// passing more is a programming error.
const MaxBatchSize = 50

// Client issues discovery and detail requests against the upstream
// provider, sleeping cfg.Pipeline.UpstreamPacing after each Discover (once
// per map.png/map.info pair) and after each detail call that got a response,
// as courtesy throttling (the provider rate-limits aggressively).
type Client struct {
	http *http.Client
	cfg  *config.Config

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewClient builds an upstream Client from cfg.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		http: &http.Client{Timeout: 30 * time.Second},
		cfg:  cfg,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// scheme returns the configured upstream URL scheme, defaulting to "https"
// when unset (zero-value config.Config) rather than building a bare "://" URL.
func (c *Client) scheme() string {
	if c.cfg.Upstream.Scheme != "" {
		return c.cfg.Upstream.Scheme
	}
	return "https"
}

// pace sleeps the configured pacing interval after an upstream call.
func (c *Client) pace() {
	time.Sleep(c.cfg.Pipeline.UpstreamPacing)
}

// tileServer picks one of the provider's 4 tile mirrors uniformly at
// random, per call, to avoid pinning a single edge cache. *rand.Rand isn't
// safe for concurrent use on its own, unlike the top-level rand functions,
// so access is serialized behind randMu.
func (c *Client) tileServer() int {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	return c.rand.Intn(4) + 1
}
