// Package token maintains the OAuth bearer token used to authenticate
// detail calls against the upstream provider. The access and refresh
// tokens are persisted as two independent settings rows rather than cached
// in memory: the database is the single source of truth, so multiple
// replicas sharing it observe the same token without a cross-worker
// invalidation protocol.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"geotrailfinder/config"
	"geotrailfinder/entities"
	"geotrailfinder/events"
	"geotrailfinder/store"
)

const (
	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"
)

// Cache resolves and refreshes the OAuth bearer token.
type Cache struct {
	http       *http.Client
	cfg        *config.Config
	settings   *store.SettingsRepo
	dispatcher *events.Dispatcher
}

// NewCache builds a Cache over the given settings repo, using cfg's OAuth
// client credentials and endpoint. dispatcher may be nil if no one needs
// token-refresh notifications.
func NewCache(cfg *config.Config, settings *store.SettingsRepo, dispatcher *events.Dispatcher) *Cache {
	return &Cache{
		http:       &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
		settings:   settings,
		dispatcher: dispatcher,
	}
}

// tokenResponse is the OAuth token endpoint's JSON reply shape.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Token returns the stored access token, refreshing it first if no row is
// present yet.
func (c *Cache) Token(ctx context.Context) (string, error) {
	tok, found, err := c.settings.Get(accessTokenKey)
	if err != nil {
		return "", err
	}
	if found {
		return tok, nil
	}
	return c.Refresh(ctx)
}

// Refresh exchanges the stored refresh token for a fresh access token,
// persisting both resulting tokens before returning, so a concurrent
// worker retrying a failed call picks up the new token from the database.
func (c *Cache) Refresh(ctx context.Context) (string, error) {
	refreshTok, found, err := c.settings.Get(refreshTokenKey)
	if err != nil {
		return "", err
	}
	if !found {
		return "", entities.NewError(entities.ErrAuth, "token.Cache.Refresh", errNoRefreshToken)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshTok},
		"redirect_uri":  {c.cfg.OAuth.RedirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OAuth.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", entities.NewError(entities.ErrAuth, "token.Cache.Refresh: build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.OAuth.ClientID, c.cfg.OAuth.ClientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", entities.NewError(entities.ErrAuth, "token.Cache.Refresh: request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", entities.NewError(entities.ErrAuth, "token.Cache.Refresh",
			fmt.Errorf("token endpoint returned status %d", resp.StatusCode))
	}

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", entities.NewError(entities.ErrParse, "token.Cache.Refresh: decode", err)
	}

	newRefresh := parsed.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshTok
	}

	if err := c.settings.Upsert(refreshTokenKey, newRefresh); err != nil {
		return "", err
	}
	if err := c.settings.Upsert(accessTokenKey, parsed.AccessToken); err != nil {
		return "", err
	}

	if c.dispatcher != nil {
		c.dispatcher.Publish(ctx, events.TokenRefreshed{})
	}

	return parsed.AccessToken, nil
}

// Seed installs an initial refresh token, for first-run bootstrap from an
// out-of-band authorization code exchange, and immediately exchanges it.
func (c *Cache) Seed(ctx context.Context, refreshToken string) error {
	if err := c.settings.Upsert(refreshTokenKey, refreshToken); err != nil {
		return err
	}
	_, err := c.Refresh(ctx)
	return err
}
