package model

import "time"

// Config is the complete wikimend configuration
type Config struct {
	Guardrails  GuardrailConfig   `yaml:"guardrails" json:"guardrails"`
	Agent       AgentConfig       `yaml:"agent" json:"agent"`
	Sources     SourcesConfig     `yaml:"sources" json:"sources"`
	Wikipedia   WikipediaConfig   `yaml:"wikipedia" json:"wikipedia"`
	Selection   SelectionConfig   `yaml:"article_selection" json:"article_selection"`
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
}

// GuardrailConfig bounds what counts as a minimal edit
type GuardrailConfig struct {
	MaxNewWords          int     `yaml:"max_new_words" json:"max_new_words"`                     // >= 0
	MaxContentRemovalPct float64 `yaml:"max_content_removal_pct" json:"max_content_removal_pct"` // 0-100
	MinSimilarityRatio   float64 `yaml:"min_similarity_ratio" json:"min_similarity_ratio"`       // 0.0-1.0
	SkipBLPArticles      bool    `yaml:"skip_blp_articles" json:"skip_blp_articles"`
}

// AgentConfig configures the LLM edit proposer
type AgentConfig struct {
	Provider           string `yaml:"provider" json:"provider"` // openai, anthropic
	Model              string `yaml:"model" json:"model"`
	APIKey             string `yaml:"-" json:"-"` // From environment only, never persisted
	BaseURL            string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	MaxTokens          int    `yaml:"max_tokens" json:"max_tokens"`
	MaxEditsPerArticle int    `yaml:"max_edits_per_article" json:"max_edits_per_article"` // >= 1
}

// SourcesConfig configures citation search and resolution
type SourcesConfig struct {
	SearchAPIs            []string `yaml:"search_apis" json:"search_apis"` // crossref, semantic_scholar
	ReliabilityCheck      bool     `yaml:"reliability_check" json:"reliability_check"`
	SemanticScholarAPIKey string   `yaml:"-" json:"-"`
	CrossrefEmail         string   `yaml:"crossref_email,omitempty" json:"crossref_email,omitempty"`
}

// WikipediaConfig configures the live wiki endpoint and submission gate
type WikipediaConfig struct {
	APIEndpoint           string `yaml:"api_endpoint" json:"api_endpoint"`
	Username              string `yaml:"-" json:"-"`
	Password              string `yaml:"-" json:"-"`
	EditSummarySuffix     string `yaml:"edit_summary_suffix" json:"edit_summary_suffix"`
	RateLimitEditsPerHour int    `yaml:"rate_limit_edits_per_hour" json:"rate_limit_edits_per_hour"` // >= 1
}

// SelectionConfig configures candidate article screening
type SelectionConfig struct {
	Category         string `yaml:"category" json:"category"`
	MaxBodyLines     int    `yaml:"max_body_lines" json:"max_body_lines"`
	ExcludeBLP       bool   `yaml:"exclude_blp" json:"exclude_blp"`
	ExcludeProtected bool   `yaml:"exclude_protected" json:"exclude_protected"`
}

// HTTPConfig configures outbound HTTP behavior
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"`
	NoProxy      string        `yaml:"no_proxy,omitempty" json:"no_proxy,omitempty"`
}

// CacheConfig configures the article/resolution cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ConcurrencyConfig configures worker counts and outbound politeness
type ConcurrencyConfig struct {
	ResolverWorkers   int     `yaml:"resolver_workers" json:"resolver_workers"`
	AnalyzeWorkers    int     `yaml:"analyze_workers" json:"analyze_workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"` // Per external domain
	Burst             int     `yaml:"burst" json:"burst"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Guardrails: GuardrailConfig{
			MaxNewWords:          50,
			MaxContentRemovalPct: 20,
			MinSimilarityRatio:   0.85,
			SkipBLPArticles:      true,
		},
		Agent: AgentConfig{
			Provider:           "openai",
			Model:              "gpt-4o-mini",
			MaxTokens:          4096,
			MaxEditsPerArticle: 15,
		},
		Sources: SourcesConfig{
			SearchAPIs:       []string{"crossref", "semantic_scholar"},
			ReliabilityCheck: true,
		},
		Wikipedia: WikipediaConfig{
			APIEndpoint:           "https://en.wikipedia.org/w/api.php",
			EditSummarySuffix:     "(AI-assisted citation/cleanup, human-reviewed)",
			RateLimitEditsPerHour: 10,
		},
		Selection: SelectionConfig{
			Category:         "Articles lacking sources",
			MaxBodyLines:     4,
			ExcludeBLP:       true,
			ExcludeProtected: true,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Wikimend/0.1 (+https://github.com/ppiankov/wikimend)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			ResolverWorkers:   10,
			AnalyzeWorkers:    2,
			RequestsPerSecond: 2,
			Burst:             5,
		},
	}
}
