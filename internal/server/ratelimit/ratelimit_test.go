package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, cfg *Config) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.Now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/jobs/job_1/pipeline", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/jobs/job_1/pipeline", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 6*time.Second, info.RetryAfter)
	assert.True(t, info.ResetTime.After(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
}

func TestLimiter_Refill(t *testing.T) {
	limiter, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute})

	for i := 0; i < 60; i++ {
		limiter.Allow("10.0.0.1", "/leads/manual", "GET")
	}
	allowed, _ := limiter.Allow("10.0.0.1", "/leads/manual", "GET")
	require.False(t, allowed)

	clock.Advance(time.Second)
	allowed, _ = limiter.Allow("10.0.0.1", "/leads/manual", "GET")
	assert.True(t, allowed, "one token refills per second")

	allowed, _ = limiter.Allow("10.0.0.1", "/leads/manual", "GET")
	assert.False(t, allowed)
}

func TestLimiter_DefaultBucketIsSharedAcrossPaths(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 2, DefaultWindow: time.Minute})

	allowed, _ := limiter.Allow("127.0.0.1", "/jobs/a/pipeline", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("127.0.0.1", "/jobs/b/pipeline", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("127.0.0.1", "/leads/manual", "POST")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow("127.0.0.2", "/leads/manual", "POST")
	assert.True(t, allowed, "other clients have their own bucket")
}

func TestLimiter_WhitelistBlacklistDisabled(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		client   string
		wantPass bool
	}{
		{"whitelisted", &Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, Whitelist: map[string]bool{"127.0.0.1": true}}, "127.0.0.1", true},
		{"blacklisted", &Config{Enabled: true, DefaultLimit: 1000, DefaultWindow: time.Minute, Blacklist: map[string]bool{"192.168.1.1": true}}, "192.168.1.1", false},
		{"disabled", &Config{Enabled: false}, "127.0.0.1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, _ := newTestLimiter(t, tt.config)
			for i := 0; i < 20; i++ {
				allowed, info := limiter.Allow(tt.client, "/leads/manual", "GET")
				assert.Equal(t, tt.wantPass, allowed)
				assert.Zero(t, info.Limit)
			}
		})
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(20),
	})
	client := "203.0.113.7"

	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow(client, "/leads/website", "POST")
		require.True(t, allowed, "burst request %d", i+1)
		assert.Equal(t, 20, info.Limit)
	}
	allowed, info := limiter.Allow(client, "/leads/website", "POST")
	assert.False(t, allowed, "website form burst is 5")
	assert.Equal(t, 3*time.Second, info.RetryAfter)

	allowed, info = limiter.Allow(client, "/leads/website", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit, "recruiter queue uses the default limit")

	for i := 0; i < 50; i++ {
		allowed, _ = limiter.Allow(client, "/health", "GET")
		require.True(t, allowed)
	}
}

func TestLimiter_WebhookPrefixSharesBucket(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/webhooks/", Method: "POST", Limit: 2, Window: time.Minute, Burst: 2},
		},
	})

	allowed, _ := limiter.Allow("127.0.0.1", "/webhooks/whatsapp", "POST")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("127.0.0.1", "/webhooks/telephony", "POST")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("127.0.0.1", "/webhooks/whatsapp", "POST")
	assert.False(t, allowed)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/test", "GET"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowedCount)
}

func TestLimiter_CleanupRemovesIdleBuckets(t *testing.T) {
	limiter, clock := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		IdleTTL:       time.Hour,
	})

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
	}
	require.Equal(t, 10, limiter.size())

	clock.Advance(45 * time.Minute)
	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
	}
	clock.Advance(30 * time.Minute)
	limiter.cleanupBuckets()

	assert.Equal(t, 5, limiter.size())
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	limiter.Stop()
	limiter.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter, _ := newTestLimiter(t, nil)

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 600, info.Limit)
}
