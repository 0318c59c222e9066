package backend

import (
	"errors"
	"testing"
	"time"

	"hiringbuddy/internal/config"
	apperrors "hiringbuddy/internal/errors"
)

func breakerTestLogger(t *testing.T) *apperrors.Logger {
	t.Helper()
	logger, err := apperrors.New("error")
	if err != nil {
		t.Fatal(err)
	}
	return logger
}

func enabledBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func TestNewRequestCircuitBreaker(t *testing.T) {
	logger := breakerTestLogger(t)

	t.Run("enabled", func(t *testing.T) {
		cb := NewRequestCircuitBreaker("requests", enabledBreakerConfig(), logger)
		if cb == nil {
			t.Fatal("expected non-nil breaker")
		}

		stats := cb.GetStats()
		if stats["name"] != "Backend-requests" {
			t.Errorf("name = %v, want Backend-requests", stats["name"])
		}
		if stats["state"] != "closed" {
			t.Errorf("state = %v, want closed", stats["state"])
		}
		if !cb.IsHealthy() {
			t.Error("new breaker should be healthy")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		cb := NewRequestCircuitBreaker("requests", config.CircuitBreakerConfig{Enabled: false}, logger)
		if cb != nil {
			t.Fatal("disabled config should yield nil breaker")
		}

		stats := cb.GetStats()
		if stats["enabled"] != false {
			t.Errorf("enabled = %v, want false", stats["enabled"])
		}
		if !cb.IsHealthy() {
			t.Error("nil breaker should report healthy")
		}
	})
}

func TestRequestCircuitBreakerExecute(t *testing.T) {
	logger := breakerTestLogger(t)

	t.Run("passes through result", func(t *testing.T) {
		cb := NewRequestCircuitBreaker("requests", enabledBreakerConfig(), logger)
		got, err := cb.Execute(func() ([]byte, error) {
			return []byte("ok"), nil
		})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if string(got) != "ok" {
			t.Errorf("result = %q", got)
		}
	})

	t.Run("passes through error", func(t *testing.T) {
		cb := NewRequestCircuitBreaker("requests", enabledBreakerConfig(), logger)
		wantErr := errors.New("backend down")
		_, err := cb.Execute(func() ([]byte, error) {
			return nil, wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Errorf("Execute() error = %v, want %v", err, wantErr)
		}
	})

	t.Run("nil breaker executes directly", func(t *testing.T) {
		var cb *RequestCircuitBreaker
		got, err := cb.Execute(func() ([]byte, error) {
			return []byte("direct"), nil
		})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if string(got) != "direct" {
			t.Errorf("result = %q", got)
		}
	})
}

func TestNewAICircuitBreaker(t *testing.T) {
	logger := breakerTestLogger(t)

	cfg := &config.OperationAIConfig{CircuitBreaker: enabledBreakerConfig()}
	cb := NewAICircuitBreaker("Match", cfg, logger)
	if cb == nil {
		t.Fatal("expected non-nil breaker")
	}

	disabled := &config.OperationAIConfig{CircuitBreaker: config.CircuitBreakerConfig{Enabled: false}}
	if NewAICircuitBreaker("Match", disabled, logger) != nil {
		t.Error("disabled config should yield nil breaker")
	}
}
