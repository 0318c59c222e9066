package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Provider names for the matching pipeline.
const (
	ProviderBackend = "backend"
	ProviderGemini  = "gemini"
)

// Preview head size bounds. Values outside this range are clamped, not
// rejected.
const (
	MinPreviewHeadChars     = 100
	MaxPreviewHeadChars     = 4000
	DefaultPreviewHeadChars = 1200
)

// Config holds all application configuration
// Credential Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (HIRINGBUDDY_BACKEND_TOKEN, etc.)
// 4. Default values - Lowest priority
type Config struct {
	Backend       BackendConfig       `mapstructure:"backend"`
	AI            AIConfig            `mapstructure:"ai"`
	Workflow      WorkflowConfig      `mapstructure:"workflow"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// BackendConfig holds the HTTP matching backend configuration.
type BackendConfig struct {
	BaseURL        string               `mapstructure:"baseURL"`
	Token          string               `mapstructure:"token"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxRetries     int                  `mapstructure:"maxRetries"`
	RateLimit      RateLimitConfig      `mapstructure:"rateLimit"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// AIConfig holds the local Gemini provider configuration, used when the
// workflow runs without the HTTP backend.
type AIConfig struct {
	// Global/fallback configuration
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	APIKey      string        `mapstructure:"apiKey"`
	MaxRetries  int           `mapstructure:"maxRetries"`
	Temperature float32       `mapstructure:"temperature"`

	// Operation-specific configurations
	Match     OperationAIConfig `mapstructure:"match"`
	Draft     OperationAIConfig `mapstructure:"draft"`
	Interview OperationAIConfig `mapstructure:"interview"`
}

// OperationAIConfig holds AI configuration for specific operations.
// Pointer fields distinguish "not set" from zero values.
type OperationAIConfig struct {
	Model          string               `mapstructure:"model"`
	Timeout        *time.Duration       `mapstructure:"timeout"`
	APIKey         string               `mapstructure:"apiKey"`
	MaxRetries     *int                 `mapstructure:"maxRetries"`
	Temperature    *float32             `mapstructure:"temperature"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// RateLimitConfig holds client-side request pacing configuration.
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	Window         time.Duration `mapstructure:"window"`
}

// WorkflowConfig holds workflow-level defaults.
type WorkflowConfig struct {
	PreviewHeadChars  int    `mapstructure:"previewHeadChars"`
	Language          string `mapstructure:"language"`
	DefaultLocation   string `mapstructure:"defaultLocation"`
	DefaultNumResults int    `mapstructure:"defaultNumResults"`
	PromptDir         string `mapstructure:"promptDir"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	ConsoleOutput   bool             `mapstructure:"consoleOutput"`
	SampleRate      float64          `mapstructure:"sampleRate"`
	Tracing         TracingConfig    `mapstructure:"tracing"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Console         ConsoleConfig    `mapstructure:"console"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix("HIRINGBUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'HIRINGBUDDY'")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/hiringbuddy/")
	v.AddConfigPath("$HOME/.hiringbuddy")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/hiringbuddy/, $HOME/.hiringbuddy, .")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and environment variable overrides")

	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Pick up config file edits made while the app is running; the new
	// values apply from the next LoadConfig, this one only logs.
	if configFileUsed != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Printf("[CONFIG] Config file changed: %s (restart to apply)", e.Name)
		})
		v.WatchConfig()
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Backend Configuration
	v.SetDefault("backend.baseURL", "http://localhost:8000")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", 60*time.Second)
	v.SetDefault("backend.maxRetries", 3)
	v.SetDefault("backend.rateLimit.enabled", false)
	v.SetDefault("backend.rateLimit.requestsPerMin", 60)
	v.SetDefault("backend.rateLimit.burstCapacity", 10)
	v.SetDefault("backend.rateLimit.window", time.Minute)
	v.SetDefault("backend.circuitBreaker.enabled", true)
	v.SetDefault("backend.circuitBreaker.maxRequests", 3)
	v.SetDefault("backend.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("backend.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("backend.circuitBreaker.minRequests", 3)
	v.SetDefault("backend.circuitBreaker.failureThreshold", 0.6)

	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", ProviderBackend)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)

	// AI Configuration - Match operation defaults
	v.SetDefault("ai.match.model", "")
	v.SetDefault("ai.match.timeout", 90*time.Second) // Longer timeout for full resume bodies
	v.SetDefault("ai.match.apiKey", "")
	v.SetDefault("ai.match.maxRetries", 2)
	v.SetDefault("ai.match.temperature", 0.1) // Very low temperature for factual analysis

	// AI Configuration - Draft operation defaults
	v.SetDefault("ai.draft.model", "")
	v.SetDefault("ai.draft.timeout", 90*time.Second)
	v.SetDefault("ai.draft.apiKey", "")
	v.SetDefault("ai.draft.maxRetries", 2)
	v.SetDefault("ai.draft.temperature", 0.3) // Lower temperature for consistency

	// AI Configuration - Interview operation defaults
	v.SetDefault("ai.interview.model", "")
	v.SetDefault("ai.interview.timeout", 60*time.Second)
	v.SetDefault("ai.interview.apiKey", "")
	v.SetDefault("ai.interview.maxRetries", 3)
	v.SetDefault("ai.interview.temperature", 0.2)

	// Circuit Breaker Configuration defaults for all operations
	for _, op := range []string{"match", "draft", "interview"} {
		v.SetDefault("ai."+op+".circuitBreaker.enabled", true)
		v.SetDefault("ai."+op+".circuitBreaker.maxRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.minRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.failureThreshold", 0.6)
	}

	// Workflow Configuration
	v.SetDefault("workflow.previewHeadChars", DefaultPreviewHeadChars)
	v.SetDefault("workflow.language", "en")
	v.SetDefault("workflow.defaultLocation", "Morocco")
	v.SetDefault("workflow.defaultNumResults", 10)
	v.SetDefault("workflow.promptDir", "")

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 5*1024*1024) // 5MB, room for PDF resumes

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.backendToken", "")
	v.SetDefault("vault.secrets.geminiKey", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "hiringbuddy")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderBackend:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend base URL is required (set HIRINGBUDDY_BACKEND_BASEURL environment variable)")
		}
	case ProviderGemini:
		if c.AI.APIKey == "" {
			return fmt.Errorf("Gemini API key is required (set HIRINGBUDDY_AI_APIKEY environment variable)")
		}
	default:
		return fmt.Errorf("invalid provider: %s (must be %q or %q)", c.AI.Provider, ProviderBackend, ProviderGemini)
	}

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}

	switch c.Workflow.Language {
	case "en", "fr":
	default:
		return fmt.Errorf("invalid workflow language: %s (must be 'en' or 'fr')", c.Workflow.Language)
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	return nil
}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
}

// GetMatchConfig returns the AI configuration for match operations with fallback to global config
func (c *Config) GetMatchConfig() OperationAIConfig {
	config := c.AI.Match
	c.applyOperationDefaults(&config)
	return config
}

// GetDraftConfig returns the AI configuration for draft operations with fallback to global config
func (c *Config) GetDraftConfig() OperationAIConfig {
	config := c.AI.Draft
	c.applyOperationDefaults(&config)
	return config
}

// GetInterviewConfig returns the AI configuration for interview operations with fallback to global config
func (c *Config) GetInterviewConfig() OperationAIConfig {
	config := c.AI.Interview
	c.applyOperationDefaults(&config)
	return config
}

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	// Legacy environment variable support
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Backend.Token == "" {
		c.Backend.Token = os.Getenv("HIRINGBUDDY_BACKEND_TOKEN")
	}

	// Clamp the preview head size rather than failing on out-of-range values
	if c.Workflow.PreviewHeadChars < MinPreviewHeadChars {
		c.Workflow.PreviewHeadChars = MinPreviewHeadChars
	}
	if c.Workflow.PreviewHeadChars > MaxPreviewHeadChars {
		c.Workflow.PreviewHeadChars = MaxPreviewHeadChars
	}

	if c.Workflow.DefaultNumResults <= 0 {
		c.Workflow.DefaultNumResults = 10
	}
	if c.Workflow.DefaultLocation == "" {
		c.Workflow.DefaultLocation = "Morocco"
	}

	// Set dynamic service instance ID if not specified
	if c.Observability.ServiceInstance == "" {
		if hostname, err := os.Hostname(); err == nil {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-%s", c.Observability.ServiceName, hostname)
		} else {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-1", c.Observability.ServiceName)
		}
	}

	// Set console output based on log level if not explicitly configured
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"HIRINGBUDDY_BACKEND_BASEURL",
		"HIRINGBUDDY_BACKEND_TOKEN",
		"HIRINGBUDDY_AI_PROVIDER",
		"HIRINGBUDDY_AI_MODEL",
		"HIRINGBUDDY_AI_APIKEY",
		"HIRINGBUDDY_WORKFLOW_LANGUAGE",
		"HIRINGBUDDY_APP_LOGLEVEL",
		"HIRINGBUDDY_VAULT_ENABLED",
		"GEMINI_API_KEY", // Legacy support
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			// Mask sensitive values
			lower := strings.ToLower(envVar)
			if strings.Contains(lower, "apikey") || strings.Contains(lower, "token") || strings.Contains(lower, "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] Backend Base URL: %s", c.Backend.BaseURL)
	if c.Backend.Token != "" {
		log.Println("[CONFIG] Backend Token: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] Backend Token: ***NOT SET***")
	}
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] Gemini API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] Gemini API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Workflow Language: %s", c.Workflow.Language)
	log.Printf("[CONFIG] Preview Head Chars: %d", c.Workflow.PreviewHeadChars)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] === Operation-Specific AI Configurations ===")
	log.Printf("[CONFIG] Match - Model: %s", c.AI.Match.Model)
	log.Printf("[CONFIG] Draft - Model: %s", c.AI.Draft.Model)
	log.Printf("[CONFIG] Interview - Model: %s", c.AI.Interview.Model)

	log.Println("[CONFIG] =====================================")
}
