package types

import (
	"fmt"
	"time"
)

// DefaultReportStructure is the report organization given to the planner
// when none is configured.
const DefaultReportStructure = `Use this structure to create a report on the user-provided topic:

1. Introduction (no research needed)
   - Brief overview of the topic area

2. Main Body Sections:
   - Each section should focus on a sub-topic of the user-provided topic

3. Conclusion
   - Aim for 1 structural element (either a list or table) that distills the main body sections
   - Provide a concise summary of the report`

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "report-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// WorkflowConfig holds the knobs of the report and section state machines.
type WorkflowConfig struct {
	// ReportStructure is the organization template handed to the planner.
	ReportStructure string `json:"report_structure" yaml:"report_structure" mapstructure:"report_structure"`

	// NumberOfQueries bounds the queries generated per planning or section
	// round (default 2).
	NumberOfQueries int `json:"number_of_queries" yaml:"number_of_queries" mapstructure:"number_of_queries"`

	// MaxSearchDepth bounds the search rounds per researched section (default 2).
	MaxSearchDepth int `json:"max_search_depth" yaml:"max_search_depth" mapstructure:"max_search_depth"`

	// SearchBackend selects the web search provider: tavily or perplexity.
	SearchBackend SearchBackend `json:"search_backend" yaml:"search_backend" mapstructure:"search_backend"`

	// DefaultReportType is used when a start request names no report type.
	DefaultReportType ReportType `json:"default_report_type" yaml:"default_report_type" mapstructure:"default_report_type"`
}

// Validate checks bounds and enum values.
func (c WorkflowConfig) Validate() error {
	if c.NumberOfQueries < 1 {
		return fmt.Errorf("%w: number_of_queries must be at least 1, got %d", ErrConfiguration, c.NumberOfQueries)
	}
	if c.MaxSearchDepth < 1 {
		return fmt.Errorf("%w: max_search_depth must be at least 1, got %d", ErrConfiguration, c.MaxSearchDepth)
	}
	if _, err := ParseSearchBackend(string(c.SearchBackend)); err != nil {
		return err
	}
	if c.DefaultReportType != "" {
		if _, err := ParseReportType(string(c.DefaultReportType)); err != nil {
			return err
		}
	}
	return nil
}

// LLMProvider identifies the chat model API.
type LLMProvider string

const (
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
)

// ModelConfig holds settings for one chat model (planner or writer).
type ModelConfig struct {
	// Provider selects the API: openai or anthropic.
	Provider LLMProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "o3-mini", "claude-3-5-sonnet-latest").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint, for proxies and compatible APIs.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries is the number of retry attempts for transport failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxTokens caps the response length (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
}

// Validate checks the provider and model.
func (c ModelConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("%w: unsupported model provider %q", ErrConfiguration, c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: %s model is not set", ErrConfiguration, c.Provider)
	}
	return nil
}

// SearchConfig holds settings for the web research client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// TavilyAPIKey authenticates Tavily requests.
	TavilyAPIKey string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty" mapstructure:"tavily_api_key"`

	// PerplexityAPIKey authenticates Perplexity requests.
	PerplexityAPIKey string `json:"perplexity_api_key,omitempty" yaml:"perplexity_api_key,omitempty" mapstructure:"perplexity_api_key"`

	// MaxResults is the number of results requested per query (default 5).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// TavilySearchDepth is "basic" or "advanced" (default "basic").
	TavilySearchDepth string `json:"tavily_search_depth" yaml:"tavily_search_depth" mapstructure:"tavily_search_depth"`

	// PerplexityModel is the online model used per query (default "sonar-pro").
	PerplexityModel string `json:"perplexity_model" yaml:"perplexity_model" mapstructure:"perplexity_model"`

	// RequestsPerSecond limits outgoing search requests; 0 disables the limit.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// CheckpointDriver selects the checkpoint store implementation.
type CheckpointDriver string

const (
	CheckpointMemory   CheckpointDriver = "memory"
	CheckpointSQLite   CheckpointDriver = "sqlite"
	CheckpointPostgres CheckpointDriver = "postgres"
	CheckpointRedis    CheckpointDriver = "redis"
)

// CheckpointConfig holds settings for workflow state persistence.
type CheckpointConfig struct {
	// Driver selects memory, sqlite, postgres, or redis.
	Driver CheckpointDriver `json:"driver" yaml:"driver" mapstructure:"driver"`

	// DSN is the database path (sqlite), connection string (postgres), or
	// address (redis, e.g. "localhost:6379").
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`

	// RedisPassword and RedisDB configure the redis client.
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`

	// KeyPrefix namespaces redis keys (default "report-engine:workflow:").
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`

	// TTL expires redis checkpoints; 0 keeps them forever.
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// Validate checks the driver.
func (c CheckpointConfig) Validate() error {
	switch c.Driver {
	case CheckpointMemory:
		return nil
	case CheckpointSQLite, CheckpointPostgres, CheckpointRedis:
		if c.DSN == "" {
			return fmt.Errorf("%w: checkpoint dsn is required for driver %q", ErrConfiguration, c.Driver)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported checkpoint driver %q", ErrConfiguration, c.Driver)
	}
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// StaticDir is the single-page app build directory; empty disables it.
	StaticDir string `json:"static_dir" yaml:"static_dir" mapstructure:"static_dir"`

	// AllowedOrigins lists CORS origins (default ["*"]).
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`

	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Development switches to the human-readable console encoder.
	Development bool `json:"development" yaml:"development" mapstructure:"development"`
}

// Config groups all settings for the engine and its surfaces.
type Config struct {
	Workflow   WorkflowConfig   `json:"workflow" yaml:"workflow" mapstructure:"workflow"`
	Planner    ModelConfig      `json:"planner" yaml:"planner" mapstructure:"planner"`
	Writer     ModelConfig      `json:"writer" yaml:"writer" mapstructure:"writer"`
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint" mapstructure:"checkpoint"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Workflow: WorkflowConfig{
			ReportStructure:   DefaultReportStructure,
			NumberOfQueries:   2,
			MaxSearchDepth:    2,
			SearchBackend:     BackendTavily,
			DefaultReportType: ReportMarketing,
		},
		Planner: ModelConfig{
			Provider:   ProviderOpenAI,
			Model:      "o3-mini",
			MaxRetries: 3,
			MaxTokens:  4096,
		},
		Writer: ModelConfig{
			Provider:   ProviderAnthropic,
			Model:      "claude-3-5-sonnet-latest",
			MaxRetries: 3,
			MaxTokens:  4096,
		},
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "report-engine/0.1",
			},
			MaxResults:        5,
			TavilySearchDepth: "basic",
			PerplexityModel:   "sonar-pro",
			MaxRetries:        5,
		},
		Checkpoint: CheckpointConfig{
			Driver:    CheckpointMemory,
			KeyPrefix: "report-engine:workflow:",
		},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   15 * time.Minute,
			IdleTimeout:    2 * time.Minute,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks every section that the engine depends on.
func (c Config) Validate() error {
	if err := c.Workflow.Validate(); err != nil {
		return err
	}
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	if err := c.Writer.Validate(); err != nil {
		return fmt.Errorf("writer: %w", err)
	}
	return c.Checkpoint.Validate()
}
