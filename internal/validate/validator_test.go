package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func init() {
	// Disable retry sleep in all tests for fast execution
	validateSleepFunc = func(d time.Duration) {}
}

func TestValidator_Check_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Expected HEAD request, got %s", r.Method)
		}
		if r.Header.Get("User-Agent") != "test-agent/1.0" {
			t.Errorf("Unexpected User-Agent: %s", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2023 15:04:05 GMT")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	validator := NewValidator(nil, 20, "test-agent/1.0")
	result := validator.check(context.Background(), server.URL)

	if !result.IsAccessible {
		t.Error("Expected site to be accessible")
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", result.StatusCode)
	}
	if result.IsDead {
		t.Error("Expected site not to be dead")
	}
	if result.LastModified == nil {
		t.Error("Expected Last-Modified to be parsed")
	}
}

func TestValidator_Check_HeadNotAllowedFallsBackToGet(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	validator := NewValidator(nil, 1, "")
	result := validator.check(context.Background(), server.URL)

	if !result.IsAccessible {
		t.Errorf("Expected GET fallback to succeed, got %+v", result)
	}
	if len(methods) != 2 || methods[0] != http.MethodHead || methods[1] != http.MethodGet {
		t.Errorf("Expected HEAD then GET, got %v", methods)
	}
}

func TestValidator_Check_404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	validator := NewValidator(nil, 20, "")
	result := validator.check(context.Background(), server.URL)

	if result.IsAccessible {
		t.Error("Expected 404 site not to be accessible")
	}
	if !result.IsDead {
		t.Error("Expected 404 site to be marked as dead")
	}
}

func TestValidator_Check_Redirect(t *testing.T) {
	finalServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer finalServer.Close()

	redirectServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, finalServer.URL, http.StatusMovedPermanently)
	}))
	defer redirectServer.Close()

	validator := NewValidator(nil, 20, "")
	result := validator.check(context.Background(), redirectServer.URL)

	if !result.IsAccessible {
		t.Error("Expected redirected site to be accessible")
	}
	if result.RedirectURL != finalServer.URL {
		t.Errorf("Expected redirect to %s, got %s", finalServer.URL, result.RedirectURL)
	}
}

func TestValidator_CheckURLs_Concurrency(t *testing.T) {
	serverCount := 10
	urls := make([]string, serverCount)
	for i := 0; i < serverCount; i++ {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()
		urls[i] = server.URL
	}

	validator := NewValidator(nil, 20, "")

	start := time.Now()
	results, err := validator.CheckURLs(context.Background(), urls)
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != serverCount {
		t.Fatalf("Expected %d results, got %d", serverCount, len(results))
	}
	if duration > 500*time.Millisecond {
		t.Errorf("Checks took too long (%v), concurrent execution may not be working", duration)
	}
	for i, result := range results {
		if !result.IsAccessible {
			t.Errorf("Result %d: expected accessible", i)
		}
		if result.URL != urls[i] {
			t.Errorf("Result %d: expected URL %s, got %s", i, urls[i], result.URL)
		}
	}
}

func TestValidator_CheckURLs_Empty(t *testing.T) {
	validator := NewValidator(nil, 20, "")

	results, err := validator.CheckURLs(context.Background(), nil)
	if err != nil {
		t.Errorf("Expected no error for empty input, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 results, got %d", len(results))
	}
}

func TestValidator_CheckURLs_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	validator := NewValidator(nil, 20, "")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	results, err := validator.CheckURLs(ctx, []string{server.URL})
	if err != nil {
		t.Errorf("Expected cancellation to be reported per result, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].IsAccessible {
		t.Error("Expected site not to be accessible after context cancellation")
	}
	if results[0].URL != server.URL {
		t.Errorf("Expected URL to be preserved, got %q", results[0].URL)
	}
}

func TestValidator_CheckURLs_MixedResults(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer gone.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	validator := NewValidator(nil, 20, "")
	results, err := validator.CheckURLs(context.Background(), []string{ok.URL, gone.URL, broken.URL})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !results[0].IsAccessible {
		t.Error("Expected first site to be accessible")
	}
	if results[1].IsAccessible || !results[1].IsDead {
		t.Error("Expected second site to be dead")
	}
	if results[2].IsAccessible {
		t.Error("Expected third site not to be accessible (500 error)")
	}
}

func TestNewValidator_DefaultWorkers(t *testing.T) {
	validator := NewValidator(nil, 0, "")
	if validator.maxWorkers != 20 {
		t.Errorf("Expected default max workers to be 20, got %d", validator.maxWorkers)
	}
	if validator.userAgent == "" {
		t.Error("Expected default User-Agent")
	}
}

func TestCheckWithRetry_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	validator := NewValidator(nil, 20, "")
	result := validator.checkWithRetry(context.Background(), server.URL)

	if !result.IsAccessible {
		t.Error("Expected accessible after retry")
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestCheckWithRetry_PermanentFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	validator := NewValidator(nil, 20, "")
	result := validator.checkWithRetry(context.Background(), server.URL)

	if !result.IsDead {
		t.Error("Expected dead for 404")
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt for non-retryable error, got %d", attempts.Load())
	}
}

func TestCheckWithRetry_AllRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	validator := NewValidator(nil, 20, "")
	result := validator.checkWithRetry(context.Background(), server.URL)

	if result.IsAccessible {
		t.Error("Expected not accessible after all retries exhausted")
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestIsRetryableResult(t *testing.T) {
	tests := []struct {
		desc      string
		result    Result
		retryable bool
	}{
		{"200 OK", Result{StatusCode: 200, IsAccessible: true}, false},
		{"404 Not Found", Result{StatusCode: 404, IsDead: true}, false},
		{"500 Server Error", Result{StatusCode: 500}, true},
		{"503 Service Unavailable", Result{StatusCode: 503}, true},
		{"429 Too Many Requests", Result{StatusCode: 429}, true},
		{"timeout error", Result{Error: "request failed: timeout"}, true},
		{"connection refused", Result{Error: "request failed: connection refused"}, true},
		{"create request error", Result{Error: "create request: invalid URL"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := isRetryableResult(tt.result); got != tt.retryable {
				t.Errorf("isRetryableResult(%s) = %v, want %v", tt.desc, got, tt.retryable)
			}
		})
	}
}
