package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/fundgate/internal/cache"
	"github.com/temoto/robotstxt"
)

const robotsMaxBytes = 512 * 1024

// RobotsChecker checks robots.txt compliance
type RobotsChecker struct {
	parsed     map[string]*robotstxt.RobotsData
	mu         sync.RWMutex
	httpClient *http.Client
	userAgent  string
	store      cache.Cache // optional; persists raw robots.txt across runs
	ttl        time.Duration
}

// robotsEntry is the cached form of a robots.txt response
type robotsEntry struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// NewRobotsChecker creates a new robots.txt checker. store may be nil.
func NewRobotsChecker(client *http.Client, userAgent string, store cache.Cache, ttl time.Duration) *RobotsChecker {
	return &RobotsChecker{
		parsed:     make(map[string]*robotstxt.RobotsData),
		httpClient: client,
		userAgent:  userAgent,
		store:      store,
		ttl:        ttl,
	}
}

// CanFetch checks if the URL can be fetched according to robots.txt.
// Returns (allowed, crawlDelay, error). An unreachable robots.txt allows.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return false, 0, fmt.Errorf("no host in %q", rawURL)
	}

	data, err := r.robotsFor(ctx, parsed.Scheme, parsed.Host)
	if err != nil {
		return true, 0, nil
	}

	agent := NormalizeUserAgent(r.userAgent)
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}

	crawlDelay := time.Duration(0)
	if group := data.FindGroup(agent); group != nil {
		crawlDelay = group.CrawlDelay
	}

	return data.TestAgent(path, agent), crawlDelay, nil
}

func (r *RobotsChecker) robotsFor(ctx context.Context, scheme, host string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, exists := r.parsed[host]
	r.mu.RUnlock()
	if exists {
		return data, nil
	}

	key := cache.Key("robots", host)
	var entry robotsEntry
	found := false
	if r.store != nil {
		found, _ = cache.GetJSON(r.store, key, &entry)
	}

	if !found {
		fetched, err := r.fetch(ctx, fmt.Sprintf("%s://%s/robots.txt", scheme, host))
		if err != nil {
			return nil, err
		}
		entry = fetched
		if r.store != nil {
			_ = cache.SetJSON(r.store, key, entry, r.ttl)
		}
	}

	data, err := robotstxt.FromStatusAndBytes(entry.Status, entry.Body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.parsed[host] = data
	r.mu.Unlock()
	return data, nil
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) (robotsEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return robotsEntry{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return robotsEntry{}, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxBytes))
	if err != nil {
		return robotsEntry{}, fmt.Errorf("read robots.txt: %w", err)
	}
	return robotsEntry{Status: resp.StatusCode, Body: body}, nil
}

// Clear clears the parsed robots.txt data
func (r *RobotsChecker) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsed = make(map[string]*robotstxt.RobotsData)
}

// NormalizeUserAgent reduces a User-Agent header to the product token used
// for robots.txt group matching
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) > 0 {
		return strings.Split(parts[0], "/")[0]
	}
	return ua
}
