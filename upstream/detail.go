package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"geotrailfinder/entities"
)

// detailFields is the fixed field list requested on every lite detail call.
const detailFields = "referenceCode,name,isPremiumOnly,difficulty,terrain,postedCoordinates," +
	"geocacheSize,geocacheType,status,shortDescription,longDescription,hints,geocacheLogs"

// ErrAuthExpired signals a detail call failed with an authentication error,
// so the caller (detailcache's fetchChunk) should refresh the token and retry.
var ErrAuthExpired = fmt.Errorf("upstream: token expired or invalid")

// DetailResult pairs a parsed Geocache with the raw JSON object it came
// from. The geocaches table stores the payload verbatim and reparses it on
// read, so callers persisting the result need both.
type DetailResult struct {
	Code     string
	Raw      json.RawMessage
	Geocache entities.Geocache
}

// FetchDetails retrieves full metadata for up to MaxBatchSize codes in one
// upstream call. A single malformed record aborts the whole batch; the
// upstream reply is assumed transactional per call.
func (c *Client) FetchDetails(ctx context.Context, token string, codes []string) ([]DetailResult, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	if len(codes) > MaxBatchSize {
		panic(fmt.Sprintf("upstream.FetchDetails: batch of %d exceeds MaxBatchSize %d", len(codes), MaxBatchSize))
	}

	url := fmt.Sprintf("%s://%s/v1.0/geocaches?referenceCodes=%s&lite=true&fields=%s&expand=geocachelogs:5",
		c.scheme(), c.cfg.Upstream.DetailHost, strings.Join(codes, ","), detailFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, entities.NewError(entities.ErrUpstream, "upstream.FetchDetails: build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.cfg.Upstream.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US;q=1")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, entities.NewError(entities.ErrUpstream, "upstream.FetchDetails: request", err)
	}
	defer resp.Body.Close()
	defer c.pace()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrAuthExpired
	}
	if resp.StatusCode != http.StatusOK {
		return nil, entities.NewError(entities.ErrUpstream, "upstream.FetchDetails",
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, entities.NewError(entities.ErrIO, "upstream.FetchDetails: read body", err)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, entities.NewError(entities.ErrParse, "upstream.FetchDetails: decode", err)
	}

	out := make([]DetailResult, 0, len(raws))
	for _, raw := range raws {
		gc, err := ParseDetailRecord(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, DetailResult{Code: gc.Code, Raw: raw, Geocache: gc})
	}
	return out, nil
}
