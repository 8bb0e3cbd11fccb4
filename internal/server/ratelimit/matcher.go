package ratelimit

import (
	"net/http"
	"strings"
)

// unlimited is returned for routes that are never limited.
var unlimited = EndpointConfig{}

// MatchEndpoint returns the configuration for a request, or nil when the
// default applies. Exact matches win over prefix matches.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == http.MethodGet {
		return &unlimited
	}

	for i := range configs {
		if configs[i].Method == method && configs[i].Path == path {
			return &configs[i]
		}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}
