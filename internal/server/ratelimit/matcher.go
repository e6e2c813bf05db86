package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Toolchain runs
		{Path: "/api/compile-latex", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/api/generate-final-pdf", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},

		// Model calls
		{Path: "/api/generate-latex", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/api/polish-content", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/api/documents/", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
	}
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Path matching supports prefix matching (e.g., "/api/documents/" matches "/api/documents/{id}/header").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Health checks are unlimited
	if path == "/api/health" && method == "GET" {
		return &EndpointConfig{Limit: 0}
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path) {
			return config
		}
	}

	return nil
}
