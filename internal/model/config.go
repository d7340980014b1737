package model

import (
	"fmt"
	"time"
)

// Config is the complete runtime configuration
type Config struct {
	Discovery    DiscoveryConfig   `yaml:"discovery" mapstructure:"discovery"`
	Filter       FilterConfig      `yaml:"filter" mapstructure:"filter"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Crawl        CrawlConfig       `yaml:"crawl" mapstructure:"crawl"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Retrieval    RetrievalConfig   `yaml:"retrieval" mapstructure:"retrieval"`
	Scoring      ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Authority    AuthorityConfig   `yaml:"authority" mapstructure:"authority"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
}

// DiscoveryConfig selects and configures the candidate source
type DiscoveryConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // serpapi, file
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	APIKey     string `yaml:"-" mapstructure:"api_key"`
	NumResults int    `yaml:"num_results" mapstructure:"num_results"`
	Language   string `yaml:"language" mapstructure:"language"`
	File       string `yaml:"file,omitempty" mapstructure:"file"` // candidates JSON for provider=file
}

// FilterConfig drives the relevance filter
type FilterConfig struct {
	ExcludeDomains  []string `yaml:"exclude_domains" mapstructure:"exclude_domains"`
	AllowedTLDs     []string `yaml:"allowed_tlds" mapstructure:"allowed_tlds"`
	CorporateHints  []string `yaml:"corporate_hints" mapstructure:"corporate_hints"`
	MaxSubdomainDot int      `yaml:"max_subdomain_dots" mapstructure:"max_subdomain_dots"`
	CheckReachable  bool     `yaml:"check_reachable" mapstructure:"check_reachable"` // HEAD-check websites before crawling
}

// HTTPConfig configures outbound requests
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CrawlConfig bounds augmentation per entity
type CrawlConfig struct {
	MaxPages      int      `yaml:"max_pages" mapstructure:"max_pages"`
	PathHints     []string `yaml:"path_hints" mapstructure:"path_hints"`
	ChunkSize     int      `yaml:"chunk_size" mapstructure:"chunk_size"`
	MinChunk      int      `yaml:"min_chunk" mapstructure:"min_chunk"`
	RespectRobots bool     `yaml:"respect_robots" mapstructure:"respect_robots"`
	Classifier    string   `yaml:"classifier" mapstructure:"classifier"` // keyword, llm
}

// RateLimitConfig throttles requests per domain
type RateLimitConfig struct {
	Enabled        bool    `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig controls page and evidence caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds per-stage fan-out
type ConcurrencyConfig struct {
	Workers           int `yaml:"workers" mapstructure:"workers"`
	Batch             int `yaml:"batch" mapstructure:"batch"` // concurrent queries in batch mode
	ValidationWorkers int `yaml:"validation_workers" mapstructure:"validation_workers"`
}

// RetrievalConfig configures per-axis evidence retrieval
type RetrievalConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	TopN    int  `yaml:"top_n" mapstructure:"top_n"`
}

// ScoringConfig holds the confidence and gate parameters
type ScoringConfig struct {
	MinItems      map[string]int `yaml:"min_items" mapstructure:"min_items"`
	RecencyMonths int            `yaml:"recency_months" mapstructure:"recency_months"`
	MinTotal      float64        `yaml:"min_total" mapstructure:"min_total"`
	MinConfidence float64        `yaml:"min_confidence" mapstructure:"min_confidence"`
}

// MinItemsByAxis resolves the min_items map to typed axes
func (s ScoringConfig) MinItemsByAxis() (map[Axis]int, error) {
	out := make(map[Axis]int, len(s.MinItems))
	for name, n := range s.MinItems {
		axis, err := ParseAxis(name)
		if err != nil {
			return nil, fmt.Errorf("scoring.min_items: %w", err)
		}
		out[axis] = n
	}
	return out, nil
}

// AuthorityConfig maps source domains and paths to authority tiers
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"` // host -> primary/secondary/tertiary
}

// PathPattern assigns a tier to URL paths matching a regular expression
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// LLMConfig configures the optional language model
type LLMConfig struct {
	Provider       string        `yaml:"provider" mapstructure:"provider"` // "" disables
	Model          string        `yaml:"model" mapstructure:"model"`
	APIKey         string        `yaml:"-" mapstructure:"api_key"`
	BaseURL        string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxTokens      int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	StrictEvidence bool          `yaml:"strict_evidence" mapstructure:"strict_evidence"`
	AxisQueries    bool          `yaml:"axis_queries" mapstructure:"axis_queries"`
	Narrative      bool          `yaml:"narrative" mapstructure:"narrative"`
}

// Enabled reports whether any provider is configured
func (c LLMConfig) Enabled() bool {
	return c.Provider != ""
}

// OutputConfig controls report emission
type OutputConfig struct {
	Dir             string `yaml:"dir" mapstructure:"dir"`
	RunLog          string `yaml:"run_log" mapstructure:"run_log"`
	EvidencePerAxis int    `yaml:"evidence_per_axis" mapstructure:"evidence_per_axis"`
	IncludeFooter   bool   `yaml:"include_footer" mapstructure:"include_footer"`
	SaveCandidates  string `yaml:"save_candidates,omitempty" mapstructure:"save_candidates"`
	Verbose         bool   `yaml:"-" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Provider:   "serpapi",
			BaseURL:    "https://serpapi.com",
			NumResults: 10,
			Language:   "en",
		},
		Filter: FilterConfig{
			ExcludeDomains: []string{
				"cnbc.com", "reuters.com", "bloomberg.com", "ft.com", "wsj.com",
				"techcrunch.com", "wired.com", "theverge.com", "forbes.com",
				"sec.gov", "fca.org.uk", "mas.gov.sg", "fsb.org",
				"medium.com", "reddit.com", "pinterest.com", "tistory.com",
			},
			AllowedTLDs:     []string{".com", ".ai", ".io", ".co", ".net", ".app", ".dev", ".org"},
			CorporateHints:  []string{"corp", "inc", "ltd", "llc", "ai", "tech", "app", "cloud"},
			MaxSubdomainDot: 2,
		},
		HTTP: HTTPConfig{
			Timeout:      20 * time.Second,
			UserAgent:    "fundgate/0.1 (+https://github.com/ppiankov/fundgate)",
			MaxBodyBytes: 2_000_000,
			MaxRetries:   3,
		},
		Crawl: CrawlConfig{
			MaxPages:      5,
			PathHints:     []string{"about", "team", "company", "security", "pricing", "customers", "docs", "blog", "news", "careers"},
			ChunkSize:     1000,
			MinChunk:      50,
			RespectRobots: true,
			Classifier:    "keyword",
		},
		RateLimiting: RateLimitConfig{
			Enabled:        true,
			RequestsPerSec: 2.0,
			Burst:          2,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".fundgate-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			Batch:             1,
			ValidationWorkers: 10,
		},
		Retrieval: RetrievalConfig{
			Enabled: true,
			TopN:    3,
		},
		Scoring: ScoringConfig{
			MinItems: map[string]int{
				AxisTechnologyDepth.String():     3,
				AxisMarket.String():              2,
				AxisTraction.String():            2,
				AxisCompetitiveMoat.String():     1,
				AxisRisk.String():                2,
				AxisTeam.String():                1,
				AxisDeploymentReadiness.String(): 2,
			},
			RecencyMonths: 18,
			MinTotal:      7.5,
			MinConfidence: 0.55,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"sec.gov", "companieshouse.gov.uk", "uspto.gov", "arxiv.org",
				"nature.com", "acm.org", "ieee.org", "github.com",
			},
			SecondaryDomains: []string{
				"reuters.com", "bloomberg.com", "ft.com", "wsj.com",
				"techcrunch.com", "crunchbase.com", "forbes.com", "cnbc.com",
			},
			PathPatterns: []PathPattern{
				{Pattern: `(?i)/(press|newsroom|investor[s]?)/`, Tier: "secondary"},
				{Pattern: `(?i)/(filings?|10-k|s-1)/`, Tier: "primary"},
			},
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			MaxTokens:      800,
			Timeout:        60 * time.Second,
			StrictEvidence: true,
			AxisQueries:    true,
			Narrative:      true,
		},
		Output: OutputConfig{
			Dir:             "reports",
			RunLog:          "reports/runs.jsonl",
			EvidencePerAxis: 3,
			IncludeFooter:   true,
		},
	}
}

// Validate rejects configurations the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Concurrency.Workers < 1 {
		return fmt.Errorf("concurrency.workers must be >= 1, got %d", c.Concurrency.Workers)
	}
	if c.Scoring.MinConfidence < 0 || c.Scoring.MinConfidence > 1 {
		return fmt.Errorf("scoring.min_confidence must be within [0,1], got %v", c.Scoring.MinConfidence)
	}
	if c.Scoring.MinTotal < 0 {
		return fmt.Errorf("scoring.min_total must be >= 0, got %v", c.Scoring.MinTotal)
	}
	if c.Scoring.RecencyMonths < 1 {
		return fmt.Errorf("scoring.recency_months must be >= 1, got %d", c.Scoring.RecencyMonths)
	}
	if _, err := c.Scoring.MinItemsByAxis(); err != nil {
		return err
	}
	if c.Retrieval.TopN < 1 {
		return fmt.Errorf("retrieval.top_n must be >= 1, got %d", c.Retrieval.TopN)
	}
	return nil
}
