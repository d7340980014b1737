package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ppiankov/fundgate/internal/model"
	"golang.org/x/time/rate"
)

// Limiter throttles outbound requests per site. A nil *Limiter or one built
// with a non-positive rate lets every request through.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// NewLimiterFromConfig returns nil when rate limiting is disabled
func NewLimiterFromConfig(cfg model.RateLimitConfig) *Limiter {
	if !cfg.Enabled {
		return nil
	}
	return NewLimiter(cfg.RequestsPerSec, cfg.Burst)
}

// Wait blocks until a request to rawURL is allowed or ctx is done
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	if l == nil {
		return nil
	}
	domain, err := siteKey(rawURL)
	if err != nil {
		return err
	}
	return l.getLimiter(domain).Wait(ctx)
}

// Allow checks if a request is allowed without waiting
func (l *Limiter) Allow(rawURL string) bool {
	if l == nil {
		return true
	}
	domain, err := siteKey(rawURL)
	if err != nil {
		return false
	}
	return l.getLimiter(domain).Allow()
}

func (l *Limiter) getLimiter(domain string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[domain]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[domain] = limiter

	return limiter
}

// SetDomainRate sets a custom rate limit for a specific domain
func (l *Limiter) SetDomainRate(domain string, requestsPerSecond float64, burst int) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[model.DomainOf(domain)] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// ApplyCrawlDelay slows a domain to one request per delay when that is
// stricter than its current rate (robots.txt Crawl-delay)
func (l *Limiter) ApplyCrawlDelay(domain string, delay time.Duration) {
	if l == nil || delay <= 0 {
		return
	}
	limit := rate.Every(delay)

	current := l.getLimiter(model.DomainOf(domain))
	if current.Limit() > limit {
		current.SetLimit(limit)
		current.SetBurst(1)
	}
}

func siteKey(rawURL string) (string, error) {
	domain := model.DomainOf(rawURL)
	if domain == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return domain, nil
}
