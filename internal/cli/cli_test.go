package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/fundgate/internal/model"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func TestRegisterDefaults_RoundTrip(t *testing.T) {
	v := viper.New()
	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatalf("registerDefaults failed: %v", err)
	}

	var cfg model.Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := model.DefaultConfig()
	if cfg.Scoring.MinTotal != want.Scoring.MinTotal || cfg.Scoring.MinConfidence != want.Scoring.MinConfidence {
		t.Errorf("gate not restored: %+v", cfg.Scoring)
	}
	if cfg.HTTP.Timeout != want.HTTP.Timeout {
		t.Errorf("timeout = %v, want %v", cfg.HTTP.Timeout, want.HTTP.Timeout)
	}
	if len(cfg.Crawl.PathHints) != len(want.Crawl.PathHints) {
		t.Errorf("path hints = %v", cfg.Crawl.PathHints)
	}
	if cfg.Scoring.MinItems["technology_depth"] != 3 {
		t.Errorf("min_items not restored: %v", cfg.Scoring.MinItems)
	}
	if len(cfg.Authority.PathPatterns) != len(want.Authority.PathPatterns) {
		t.Errorf("path patterns = %v", cfg.Authority.PathPatterns)
	}
}

func TestRegisterDefaults_EnvOverride(t *testing.T) {
	t.Setenv("FUNDGATE_SCORING_MIN_TOTAL", "8.25")
	t.Setenv("FUNDGATE_CRAWL_MAX_PAGES", "2")
	t.Setenv("FUNDGATE_LLM_API_KEY", "sk-test")

	v := viper.New()
	v.SetEnvPrefix("FUNDGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Scoring.MinTotal != 8.25 {
		t.Errorf("min_total = %v, want 8.25", cfg.Scoring.MinTotal)
	}
	if cfg.Crawl.MaxPages != 2 {
		t.Errorf("max_pages = %d, want 2", cfg.Crawl.MaxPages)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("api key not read from environment")
	}
}

func TestFlatten(t *testing.T) {
	tree := map[string]any{
		"http": map[string]any{"timeout": "20s"},
		"scoring": map[string]any{
			"min_items": map[string]any{"team": 1},
			"min_total": 7.5,
		},
	}
	got := flatten("", tree)
	if got["http.timeout"] != "20s" || got["scoring.min_total"] != 7.5 {
		t.Errorf("unexpected flatten result: %v", got)
	}
	if _, ok := got["scoring.min_items"].(map[string]any); !ok {
		t.Errorf("min_items should stay a map: %v", got)
	}
}

func TestResolveSecrets(t *testing.T) {
	t.Setenv("SERPAPI_KEY", "serp-key")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "openai"
	if err := resolveSecrets(cfg); err == nil {
		t.Error("expected error when the OpenAI key is missing")
	}
	if cfg.Discovery.APIKey != "serp-key" {
		t.Errorf("discovery key = %q", cfg.Discovery.APIKey)
	}

	t.Setenv("OPENAI_API_KEY", "sk-1")
	cfg.LLM.APIKey = ""
	if err := resolveSecrets(cfg); err != nil || cfg.LLM.APIKey != "sk-1" {
		t.Errorf("resolveSecrets = %v, key %q", err, cfg.LLM.APIKey)
	}

	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")
	cfg = model.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	if err := resolveSecrets(cfg); err != nil || cfg.LLM.BaseURL != "http://gpu-box:11434" {
		t.Errorf("ollama base URL = %q, err %v", cfg.LLM.BaseURL, err)
	}
}

func TestLoadEvidence(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	content := `[{"source":"https://acme.ai/about","text":"Founded by a former CTO.","axis":"team","strength":"strong","published":"2025-03-01T00:00:00Z"}]`
	if err := os.WriteFile(good, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	items, err := loadEvidence(good)
	if err != nil {
		t.Fatalf("loadEvidence failed: %v", err)
	}
	if len(items) != 1 || items[0].Axis != model.AxisTeam || items[0].Strength != model.StrengthStrong {
		t.Errorf("unexpected items: %+v", items)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"source":"x","text":"y","axis":"vibes","strength":"strong"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadEvidence(bad); err == nil {
		t.Error("expected error for unknown axis")
	}

	if items, err := loadEvidence(""); err != nil || items != nil {
		t.Errorf("empty path should be a no-op, got %v %v", items, err)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Scoring.MinTotal != 7.5 || cfg.HTTP.Timeout != 20*time.Second {
		t.Errorf("unexpected config: %+v", cfg.Scoring)
	}
	if strings.Contains(string(data), "api_key") {
		t.Error("API keys must not be written to the config file")
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when the file already exists")
	}
}

func TestBuildPipeline_Offline(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Output.Dir = t.TempDir()
	cfg.Output.RunLog = ""

	var log bytes.Buffer
	p, err := buildPipeline(cfg, buildOptions{offline: true, log: &log})
	if err != nil {
		t.Fatalf("buildPipeline failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected a pipeline")
	}
}

func TestBuildPipeline_Errors(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Discovery.Provider = "bing"
	if _, err := buildPipeline(cfg, buildOptions{log: &bytes.Buffer{}}); err == nil {
		t.Error("expected error for unknown discovery provider")
	}

	cfg = model.DefaultConfig()
	cfg.Discovery.Provider = "file"
	if _, err := buildPipeline(cfg, buildOptions{log: &bytes.Buffer{}}); err == nil {
		t.Error("expected error for file provider without a path")
	}

	cfg = model.DefaultConfig()
	cfg.Scoring.MinConfidence = 2
	if _, err := buildPipeline(cfg, buildOptions{log: &bytes.Buffer{}}); err == nil {
		t.Error("expected validation error")
	}
}
