package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validTestConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 60 * time.Second,
		},
		AI: AIConfig{
			Provider:    ProviderBackend,
			Model:       "gemini-2.0-flash",
			Timeout:     60 * time.Second,
			MaxRetries:  3,
			Temperature: 0.7,
		},
		Workflow: WorkflowConfig{
			PreviewHeadChars:  DefaultPreviewHeadChars,
			Language:          "en",
			DefaultLocation:   "Morocco",
			DefaultNumResults: 10,
		},
		App: AppConfig{
			LogLevel:         "info",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:   "valid backend config",
			mutate: func(c *Config) {},
		},
		{
			name: "missing backend base URL",
			mutate: func(c *Config) {
				c.Backend.BaseURL = ""
			},
			errorMsg: "backend base URL is required",
		},
		{
			name: "gemini provider requires api key",
			mutate: func(c *Config) {
				c.AI.Provider = ProviderGemini
				c.AI.APIKey = ""
			},
			errorMsg: "Gemini API key is required",
		},
		{
			name: "gemini provider with api key",
			mutate: func(c *Config) {
				c.AI.Provider = ProviderGemini
				c.AI.APIKey = "test-key"
				c.Backend.BaseURL = ""
			},
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.AI.Provider = "openai"
			},
			errorMsg: "invalid provider",
		},
		{
			name: "non-positive backend timeout",
			mutate: func(c *Config) {
				c.Backend.Timeout = 0
			},
			errorMsg: "backend timeout must be positive",
		},
		{
			name: "unsupported language",
			mutate: func(c *Config) {
				c.Workflow.Language = "de"
			},
			errorMsg: "invalid workflow language",
		},
		{
			name: "default format not in supported formats",
			mutate: func(c *Config) {
				c.App.DefaultFormat = "yaml"
			},
			errorMsg: "invalid default format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validTestConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.errorMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyFallbacksClampsPreviewHead(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"below minimum", 10, MinPreviewHeadChars},
		{"at minimum", MinPreviewHeadChars, MinPreviewHeadChars},
		{"in range", DefaultPreviewHeadChars, DefaultPreviewHeadChars},
		{"at maximum", MaxPreviewHeadChars, MaxPreviewHeadChars},
		{"above maximum", 100000, MaxPreviewHeadChars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validTestConfig()
			config.Workflow.PreviewHeadChars = tt.input

			config.applyFallbacks()

			assert.Equal(t, tt.expected, config.Workflow.PreviewHeadChars)
		})
	}
}

func TestApplyFallbacksWorkflowDefaults(t *testing.T) {
	config := validTestConfig()
	config.Workflow.DefaultLocation = ""
	config.Workflow.DefaultNumResults = 0

	config.applyFallbacks()

	assert.Equal(t, "Morocco", config.Workflow.DefaultLocation)
	assert.Equal(t, 10, config.Workflow.DefaultNumResults)
}

func TestApplyFallbacksServiceInstance(t *testing.T) {
	config := validTestConfig()
	config.Observability.ServiceName = "hiringbuddy"
	config.Observability.ServiceInstance = ""

	config.applyFallbacks()

	assert.NotEmpty(t, config.Observability.ServiceInstance)
	assert.Contains(t, config.Observability.ServiceInstance, "hiringbuddy-")
}

func TestGetMatchConfigFallbacks(t *testing.T) {
	config := validTestConfig()
	config.AI.APIKey = "global-key"

	matchConfig := config.GetMatchConfig()

	assert.Equal(t, "gemini-2.0-flash", matchConfig.Model)
	assert.Equal(t, "global-key", matchConfig.APIKey)
	assert.NotNil(t, matchConfig.Timeout)
	assert.Equal(t, 60*time.Second, *matchConfig.Timeout)
	assert.NotNil(t, matchConfig.MaxRetries)
	assert.Equal(t, 3, *matchConfig.MaxRetries)
	assert.NotNil(t, matchConfig.Temperature)
	assert.Equal(t, float32(0.7), *matchConfig.Temperature)
}

func TestGetDraftConfigOverrides(t *testing.T) {
	config := validTestConfig()
	timeout := 90 * time.Second
	temperature := float32(0.3)
	config.AI.Draft = OperationAIConfig{
		Model:       "gemini-2.5-pro",
		Timeout:     &timeout,
		Temperature: &temperature,
	}

	draftConfig := config.GetDraftConfig()

	assert.Equal(t, "gemini-2.5-pro", draftConfig.Model)
	assert.Equal(t, 90*time.Second, *draftConfig.Timeout)
	assert.Equal(t, float32(0.3), *draftConfig.Temperature)
	// Unset fields still fall back to globals
	assert.Equal(t, 3, *draftConfig.MaxRetries)
}
