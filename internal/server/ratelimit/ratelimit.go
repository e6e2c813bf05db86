// Package ratelimit provides per-client, per-endpoint rate limiting for the
// HTTP API.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultRate     rate.Limit // requests per second
	DefaultBurst    int
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig builds a configuration with the given default rate and the
// stricter endpoint tiers. A non-positive rps disables limiting.
func NewConfig(rps float64, burst int) *Config {
	if burst <= 0 {
		burst = int(rps) + 1
	}
	return &Config{
		Enabled:         rps > 0,
		DefaultRate:     rate.Limit(rps),
		DefaultBurst:    burst,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

type bucket struct {
	limiter    *rate.Limiter
	limit      int
	lastAccess time.Time
}

// Limiter manages rate limiting for multiple clients.
type Limiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket // client:endpoint:method -> bucket
	config      *Config
	cleanupStop chan struct{}
	stopOnce    sync.Once
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = NewConfig(10, 20)
	}

	l := &Limiter{
		buckets: make(map[string]*bucket),
		config:  config,
	}

	if config.Enabled && config.CleanupInterval > 0 {
		l.cleanupStop = make(chan struct{})
		go l.cleanup(config.CleanupInterval)
	}
	return l
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
func (l *Limiter) Allow(clientID, endpoint, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	lim, limit, burst := l.config.DefaultRate, l.config.DefaultBurst, l.config.DefaultBurst
	if ec := MatchEndpoint(endpoint, method, l.config.EndpointConfigs); ec != nil {
		if ec.Limit <= 0 {
			return true, Info{Allowed: true}
		}
		lim = rate.Limit(float64(ec.Limit) / ec.Window.Seconds())
		limit = ec.Limit
		burst = ec.Burst
		if burst <= 0 {
			burst = ec.Limit
		}
	}

	b := l.getBucket(clientID+":"+endpoint+":"+method, lim, limit, burst)

	now := time.Now()
	allowed := b.limiter.AllowN(now, 1)
	info := Info{
		Allowed:   allowed,
		Limit:     b.limit,
		Remaining: max(0, int(b.limiter.TokensAt(now))),
	}
	if !allowed {
		r := b.limiter.ReserveN(now, 1)
		info.RetryAfter = r.DelayFrom(now)
		r.CancelAt(now)
	}
	return allowed, info
}

func (l *Limiter) getBucket(key string, lim rate.Limit, limit, burst int) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(lim, burst), limit: limit}
		l.buckets[key] = b
	}
	b.lastAccess = time.Now()
	return b
}

func (l *Limiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanupBuckets(time.Now())
		case <-l.cleanupStop:
			return
		}
	}
}

// cleanupBuckets drops buckets idle for longer than the configured TTL.
func (l *Limiter) cleanupBuckets(now time.Time) {
	ttl := l.config.IdleTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	cutoff := now.Add(-ttl)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop stops the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}
