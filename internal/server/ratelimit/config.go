package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/internx-match/internal/config"
)

// EndpointConfig is the limit for one route. A Path ending in "/" matches
// by prefix.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int // defaults to Limit when 0
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTimeout     time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// FromSettings builds the limiter configuration from the loaded settings.
func FromSettings(s config.RateLimitConfig) *Config {
	if !s.Enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    s.DefaultLimit,
		DefaultWindow:   s.DefaultWindow,
		CleanupInterval: s.CleanupInterval,
		IdleTimeout:     time.Hour,
		Whitelist:       ipSet(s.Whitelist),
		Blacklist:       ipSet(s.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-route limits. Completion calls the
// reasoning service once per response, so it is the strictest.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/sessions/", Method: http.MethodPost, Limit: 60, Window: time.Hour, Burst: 10},
		{Path: "/match-scores/recompute", Method: http.MethodPost, Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/accuracy/", Method: http.MethodPost, Limit: 300, Window: time.Minute, Burst: 30},
	}
}

func ipSet(list []string) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, ip := range list {
		if ip = strings.TrimSpace(ip); ip != "" {
			out[ip] = true
		}
	}
	return out
}
