package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/fundgate/internal/model"
	"github.com/ppiankov/fundgate/internal/util"
	"github.com/ppiankov/fundgate/internal/worker"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// Result describes whether a candidate website answered
type Result struct {
	URL          string     `json:"url"`
	StatusCode   int        `json:"status_code,omitempty"`
	IsAccessible bool       `json:"is_accessible"`
	IsDead       bool       `json:"is_dead"`
	RedirectURL  string     `json:"redirect_url,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Validator checks website reachability concurrently
type Validator struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
}

// NewValidator creates a new validator
func NewValidator(client *http.Client, maxWorkers int, userAgent string) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 20
	}
	if userAgent == "" {
		userAgent = model.DefaultConfig().HTTP.UserAgent
	}
	if client == nil {
		client = &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= util.MaxRedirects {
					return fmt.Errorf("stopped after %d redirects", util.MaxRedirects)
				}
				return nil
			},
		}
	}
	return &Validator{
		httpClient: client,
		maxWorkers: maxWorkers,
		userAgent:  userAgent,
	}
}

// CheckURLs checks every URL concurrently. Results are ordered like urls.
func (v *Validator) CheckURLs(ctx context.Context, urls []string) ([]Result, error) {
	if len(urls) == 0 {
		return []Result{}, nil
	}

	outcomes, _ := worker.FanOut(ctx, v.maxWorkers, urls, func(ctx context.Context, u string) (Result, error) {
		if ctx.Err() != nil {
			return Result{URL: u, Error: "context cancelled"}, nil
		}
		return v.checkWithRetry(ctx, u), nil
	})

	results := make([]Result, len(urls))
	for i, o := range outcomes {
		switch {
		case o.Err != nil:
			results[i] = Result{URL: urls[i], Error: o.Err.Error()}
		case o.Value.URL == "":
			results[i] = Result{URL: urls[i], Error: "context cancelled"}
		default:
			results[i] = o.Value
		}
	}
	return results, nil
}

// check requests a single URL with HEAD, falling back to GET when HEAD is refused
func (v *Validator) check(ctx context.Context, rawURL string) Result {
	result := v.request(ctx, http.MethodHead, rawURL)
	if result.StatusCode == http.StatusMethodNotAllowed || result.StatusCode == http.StatusNotImplemented {
		result = v.request(ctx, http.MethodGet, rawURL)
	}
	return result
}

func (v *Validator) request(ctx context.Context, method, rawURL string) Result {
	result := Result{URL: rawURL}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.IsDead = true
		return result
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.IsDead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.IsAccessible = true
	} else if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		result.IsDead = true
	}

	if final := resp.Request.URL.String(); final != rawURL {
		result.RedirectURL = final
	}

	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			result.LastModified = &t
		}
	}

	return result
}

// checkWithRetry retries transient failures with exponential backoff
func (v *Validator) checkWithRetry(ctx context.Context, rawURL string) Result {
	var result Result
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = v.check(ctx, rawURL)
		if !isRetryableResult(result) {
			return result
		}
		if attempt < validateMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			validateSleepFunc(backoff)
		}
	}
	return result
}

// isRetryableResult returns true for results that indicate transient failures
func isRetryableResult(result Result) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return result.Error != "" && isRetryableNetworkError(result.Error)
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
