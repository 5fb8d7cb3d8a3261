// Package spotify implements the catalog client used by the enrichment
// pipeline: client-credentials auth with a cached token, and batched
// track/artist lookups with rate-limit aware retries.
package spotify

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/jpvargas/leaguedash/internal/domain"
	"github.com/jpvargas/leaguedash/internal/logger"
)

const (
	// MaxIDsPerRequest is the catalog's batch endpoint limit.
	MaxIDsPerRequest = 50

	maxAttempts       = 3
	backoffBase       = time.Second
	defaultRetryAfter = time.Second
	trackBatchDelay   = 100 * time.Millisecond
	artistBatchDelay  = 150 * time.Millisecond

	// tokenExpiryMargin refreshes the token this long before actual expiry.
	tokenExpiryMargin = 300 * time.Second

	requestTimeout = 10 * time.Second
)

// AuthError means the catalog rejected our credentials (or none are
// configured). It is fatal to an enrichment run and never retried here.
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("spotify authentication failed: %v", e.Cause)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// TransientError is a rate limit, server error or network failure. Batches
// that still fail after retries are dropped by the caller, not propagated.
type TransientError struct {
	Status int
	Cause  error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("spotify request failed: %v", e.Cause)
	}
	return fmt.Sprintf("spotify returned status %d", e.Status)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// Progress reports batch fetch progress to the caller.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Config holds the catalog endpoints and credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	APIURL       string
	TokenURL     string
}

// Client is a stateful catalog client. The token cache lives on the client;
// there is no global mutable state.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logger.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time

	sleep func(time.Duration)
}

func NewClient(cfg Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Default()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		log:   log.WithComponent("spotify"),
		sleep: time.Sleep,
	}
}

// URIToID converts a track URI like spotify:track:2gZUPNdn... to its bare id.
func URIToID(spotifyURI string) string {
	parts := strings.Split(spotifyURI, ":")
	return parts[len(parts)-1]
}

// Authenticate exchanges client credentials for a bearer token and caches
// it. The cached token is reused until five minutes before expiry. Failures
// are AuthError; callers treat them as fatal to the run.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticateLocked(ctx)
}

func (c *Client) authenticateLocked(ctx context.Context) error {
	if c.accessToken != "" && time.Now().Before(c.expiresAt.Add(-tokenExpiryMargin)) {
		return nil
	}

	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return &AuthError{Cause: fmt.Errorf("missing client credentials")}
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &AuthError{Cause: err}
	}
	credential := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+credential)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	requestedAt := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &AuthError{Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &AuthError{Cause: fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return &AuthError{Cause: fmt.Errorf("token decode error: %w", err)}
	}

	c.accessToken = result.AccessToken
	c.expiresAt = requestedAt.Add(time.Duration(result.ExpiresIn) * time.Second)
	c.log.Debug("authenticated", "expires_in", result.ExpiresIn)
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.authenticateLocked(ctx); err != nil {
		return "", err
	}
	return c.accessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// getJSON issues one bearer-authenticated GET with the retry policy: a 401
// triggers one token refresh and a single extra try; 429 waits Retry-After
// (default 1s); 5xx and network errors back off exponentially from 1s. At
// most three counted attempts.
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	var lastErr error
	refreshed := false

	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		token, err := c.token(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = &TransientError{Cause: err}
			c.sleep(backoffBase << attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			_ = resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil

		case resp.StatusCode == http.StatusUnauthorized:
			_ = resp.Body.Close()
			if refreshed {
				return &AuthError{Cause: fmt.Errorf("token rejected after refresh")}
			}
			refreshed = true
			c.invalidateToken()
			c.log.Warn("token expired, re-authenticating")
			attempt--

		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp)
			_ = resp.Body.Close()
			lastErr = &TransientError{Status: resp.StatusCode}
			c.log.Warn("rate limited", "retry_after", wait)
			c.sleep(wait)

		case resp.StatusCode >= 500:
			_ = resp.Body.Close()
			lastErr = &TransientError{Status: resp.StatusCode}
			wait := backoffBase << attempt
			c.log.Warn("server error", "status", resp.StatusCode, "backoff", wait)
			c.sleep(wait)

		default:
			_ = resp.Body.Close()
			return fmt.Errorf("spotify returned status %d", resp.StatusCode)
		}
	}

	return lastErr
}

func retryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(ra)
	if err != nil || seconds <= 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// FetchTracksBatch fetches up to 50 tracks in one request. Null elements in
// the response (ids unknown to the catalog) are dropped with a warning.
func (c *Client) FetchTracksBatch(ctx context.Context, spotifyURIs []string) ([]domain.TrackMetadata, error) {
	if len(spotifyURIs) == 0 {
		return nil, nil
	}
	if len(spotifyURIs) > MaxIDsPerRequest {
		return nil, fmt.Errorf("batch of %d exceeds the %d id limit", len(spotifyURIs), MaxIDsPerRequest)
	}

	ids := make([]string, len(spotifyURIs))
	for i, uri := range spotifyURIs {
		ids[i] = URIToID(uri)
	}

	var result struct {
		Tracks []*trackResponse `json:"tracks"`
	}
	endpoint := c.cfg.APIURL + "/tracks?ids=" + url.QueryEscape(strings.Join(ids, ","))
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tracks := make([]domain.TrackMetadata, 0, len(result.Tracks))
	for i, tr := range result.Tracks {
		if tr == nil {
			c.log.Warn("no track info found", "uri", spotifyURIs[i])
			continue
		}
		tracks = append(tracks, tr.toMetadata(spotifyURIs[i], now))
	}
	return tracks, nil
}

// FetchArtistsBatch fetches up to 50 artists in one request.
func (c *Client) FetchArtistsBatch(ctx context.Context, artistIDs []string) ([]domain.ArtistMetadata, error) {
	if len(artistIDs) == 0 {
		return nil, nil
	}
	if len(artistIDs) > MaxIDsPerRequest {
		return nil, fmt.Errorf("batch of %d exceeds the %d id limit", len(artistIDs), MaxIDsPerRequest)
	}

	var result struct {
		Artists []*artistResponse `json:"artists"`
	}
	endpoint := c.cfg.APIURL + "/artists?ids=" + url.QueryEscape(strings.Join(artistIDs, ","))
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	artists := make([]domain.ArtistMetadata, 0, len(result.Artists))
	for i, ar := range result.Artists {
		if ar == nil {
			c.log.Warn("no artist info found", "artist_id", artistIDs[i])
			continue
		}
		artists = append(artists, ar.toMetadata(now))
	}
	return artists, nil
}

// FetchAllTracks partitions the URI list into batches of 50 and fetches them
// sequentially with a small inter-batch delay. Batches that fail after
// exhausting retries are dropped; the caller can diff input and output
// lengths for the failure count.
func (c *Client) FetchAllTracks(ctx context.Context, spotifyURIs []string, onProgress func(Progress)) ([]domain.TrackMetadata, error) {
	batches := chunk(spotifyURIs, MaxIDsPerRequest)
	c.log.Info("fetching track metadata", "tracks", len(spotifyURIs), "batches", len(batches))

	all := make([]domain.TrackMetadata, 0, len(spotifyURIs))
	done := 0
	for i, batch := range batches {
		tracks, err := c.FetchTracksBatch(ctx, batch)
		if err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) || ctx.Err() != nil {
				return all, err
			}
			c.log.Warn("dropping failed track batch", "batch", i+1, "size", len(batch), "error", err)
		} else {
			all = append(all, tracks...)
		}

		done += len(batch)
		if onProgress != nil {
			onProgress(Progress{
				Current:    done,
				Total:      len(spotifyURIs),
				Percentage: percentage(i+1, len(batches)),
			})
		}
		if i < len(batches)-1 {
			c.sleep(trackBatchDelay)
		}
	}

	c.log.Info("track fetch complete", "fetched", len(all), "requested", len(spotifyURIs))
	return all, nil
}

// FetchAllArtists is the artist counterpart of FetchAllTracks.
func (c *Client) FetchAllArtists(ctx context.Context, artistIDs []string, onProgress func(Progress)) ([]domain.ArtistMetadata, error) {
	batches := chunk(artistIDs, MaxIDsPerRequest)
	c.log.Info("fetching artist metadata", "artists", len(artistIDs), "batches", len(batches))

	all := make([]domain.ArtistMetadata, 0, len(artistIDs))
	done := 0
	for i, batch := range batches {
		artists, err := c.FetchArtistsBatch(ctx, batch)
		if err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) || ctx.Err() != nil {
				return all, err
			}
			c.log.Warn("dropping failed artist batch", "batch", i+1, "size", len(batch), "error", err)
		} else {
			all = append(all, artists...)
		}

		done += len(batch)
		if onProgress != nil {
			onProgress(Progress{
				Current:    done,
				Total:      len(artistIDs),
				Percentage: percentage(i+1, len(batches)),
			})
		}
		if i < len(batches)-1 {
			c.sleep(artistBatchDelay)
		}
	}

	c.log.Info("artist fetch complete", "fetched", len(all), "requested", len(artistIDs))
	return all, nil
}

func chunk(items []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}

func percentage(done, total int) int {
	if total == 0 {
		return 100
	}
	return int(float64(done)/float64(total)*100 + 0.5)
}
