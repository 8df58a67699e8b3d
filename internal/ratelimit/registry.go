package ratelimit

import (
	"net/http"
	"sort"
	"strings"

	"github.com/docassist/docassist/internal/constants"
)

// Scope groups backend endpoints that share a rate budget.
type Scope string

const (
	// ScopeAPI covers auth, inventory and text endpoints.
	ScopeAPI Scope = "api"

	// ScopeAsk covers the question endpoint, which runs a model call per request.
	ScopeAsk Scope = "ask"

	// ScopeUpload covers multipart uploads.
	ScopeUpload Scope = "upload"
)

// ScopeConfig holds the token bucket parameters for one scope.
type ScopeConfig struct {
	Scope         Scope
	RatePerSec    float64
	BurstCapacity float64
}

// EndpointRule maps a path fragment (and optionally a method) to a scope.
type EndpointRule struct {
	Pattern string
	Method  string // "" matches any method
	Scope   Scope
}

// specificity orders rules: method-specific first, then longer patterns.
func (r EndpointRule) specificity() int {
	score := len(r.Pattern)
	if r.Method != "" {
		score += 1000
	}
	return score
}

// Registry resolves request paths to scopes and owns one limiter per scope.
type Registry struct {
	rules        []EndpointRule
	scopeConfigs map[Scope]ScopeConfig
	limiters     map[Scope]*RateLimiter
	defaultScope Scope
}

// NewRegistry creates the registry for the document backend's endpoints.
func NewRegistry() *Registry {
	r := &Registry{
		defaultScope: ScopeAPI,
		scopeConfigs: map[Scope]ScopeConfig{
			ScopeAPI:    {Scope: ScopeAPI, RatePerSec: constants.APIRatePerSec, BurstCapacity: constants.APIBurstCapacity},
			ScopeAsk:    {Scope: ScopeAsk, RatePerSec: 1, BurstCapacity: 3},
			ScopeUpload: {Scope: ScopeUpload, RatePerSec: 4, BurstCapacity: 8},
		},
		rules: []EndpointRule{
			{Pattern: "/ask", Method: http.MethodGet, Scope: ScopeAsk},
			{Pattern: "/upload", Method: http.MethodPost, Scope: ScopeUpload},
		},
	}
	sort.Slice(r.rules, func(i, j int) bool {
		return r.rules[i].specificity() > r.rules[j].specificity()
	})

	r.limiters = make(map[Scope]*RateLimiter, len(r.scopeConfigs))
	for scope, cfg := range r.scopeConfigs {
		r.limiters[scope] = NewRateLimiter(cfg.RatePerSec, cfg.BurstCapacity)
	}
	return r
}

// ResolveScope returns the most specific matching scope or ScopeAPI.
func (r *Registry) ResolveScope(method, path string) Scope {
	for _, rule := range r.rules {
		if !strings.Contains(path, rule.Pattern) {
			continue
		}
		if rule.Method != "" && !strings.EqualFold(rule.Method, method) {
			continue
		}
		return rule.Scope
	}
	return r.defaultScope
}

// GetScopeConfig returns a scope's configuration, falling back to the default scope.
func (r *Registry) GetScopeConfig(scope Scope) ScopeConfig {
	if cfg, ok := r.scopeConfigs[scope]; ok {
		return cfg
	}
	return r.scopeConfigs[r.defaultScope]
}

// Limiter returns the limiter for a request.
func (r *Registry) Limiter(method, path string) *RateLimiter {
	return r.limiters[r.ResolveScope(method, path)]
}

// SetWarnFunc installs fn on every scope's limiter.
func (r *Registry) SetWarnFunc(fn WarnFunc) {
	for _, l := range r.limiters {
		l.SetWarnFunc(fn)
	}
}
