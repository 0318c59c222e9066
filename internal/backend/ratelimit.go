package backend

import (
	"context"
	"sync"
	"time"

	"hiringbuddy/internal/errors"

	"golang.org/x/time/rate"
)

// LimiterManager paces outgoing backend requests per endpoint so a burst
// of workflow actions cannot trip the service's own rate limits.
type LimiterManager struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	rate     rate.Limit
	burst    int
	done     chan struct{}
	logger   *errors.Logger
}

// NewLimiterManager creates a new manager.
// requestsPerMin is the number of requests allowed per minute per endpoint.
func NewLimiterManager(requestsPerMin int, burstCapacity int, logger *errors.Logger) *LimiterManager {
	// The rate.Limit is specified in requests per second.
	r := rate.Limit(float64(requestsPerMin) / 60.0)

	m := &LimiterManager{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		rate:     r,
		burst:    burstCapacity,
		done:     make(chan struct{}),
		logger:   logger,
	}

	go m.cleanupRoutine(10 * time.Minute)
	return m
}

// GetLimiter retrieves or creates a limiter for a given endpoint.
func (m *LimiterManager) GetLimiter(endpoint string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.limiters[endpoint]
	if !exists {
		limiter = rate.NewLimiter(m.rate, m.burst)
		m.limiters[endpoint] = limiter
	}
	m.lastSeen[endpoint] = time.Now()

	return limiter
}

// Wait blocks until the endpoint's limiter releases a token or ctx ends.
// A nil manager never blocks, so pacing stays optional.
func (m *LimiterManager) Wait(ctx context.Context, endpoint string) error {
	if m == nil {
		return nil
	}
	return m.GetLimiter(endpoint).Wait(ctx)
}

// GetStats returns current limiter statistics
func (m *LimiterManager) GetStats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"active_limiters": len(m.limiters),
		"rate_per_second": float64(m.rate),
		"rate_per_minute": float64(m.rate) * 60.0,
		"burst_capacity":  m.burst,
	}
}

// cleanupRoutine periodically removes inactive limiters
func (m *LimiterManager) cleanupRoutine(cleanupInterval time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup(cleanupInterval)
		case <-m.done:
			return
		}
	}
}

// cleanup removes limiters that haven't been used for the specified duration
func (m *LimiterManager) cleanup(evictionAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for endpoint, lastSeen := range m.lastSeen {
		if now.Sub(lastSeen) > evictionAge {
			delete(m.limiters, endpoint)
			delete(m.lastSeen, endpoint)
		}
	}

	if m.logger != nil {
		m.logger.Debug("Request pacer cleanup completed",
			"remaining_limiters", len(m.limiters))
	}
}

// Close stops the cleanup goroutine.
func (m *LimiterManager) Close() {
	if m == nil {
		return
	}
	close(m.done)
}
