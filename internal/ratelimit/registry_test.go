package ratelimit

import (
	"net/http"
	"testing"
)

func TestResolveScope(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		method string
		path   string
		want   Scope
	}{
		{http.MethodGet, "/api/documents", ScopeAPI},
		{http.MethodDelete, "/api/deletedocument/abc", ScopeAPI},
		{http.MethodPost, "/api/auth/login", ScopeAPI},
		{http.MethodGet, "/api/textindb", ScopeAPI},
		{http.MethodGet, "/api/ask", ScopeAsk},
		{http.MethodPost, "/api/upload", ScopeUpload},
		// method-specific rules do not match other methods
		{http.MethodGet, "/api/upload", ScopeAPI},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if got := r.ResolveScope(tt.method, tt.path); got != tt.want {
				t.Errorf("ResolveScope(%q, %q) = %q, want %q", tt.method, tt.path, got, tt.want)
			}
		})
	}
}

func TestRegistryLimiterPerScope(t *testing.T) {
	r := NewRegistry()

	ask := r.Limiter(http.MethodGet, "/api/ask")
	docs := r.Limiter(http.MethodGet, "/api/documents")
	if ask == nil || docs == nil {
		t.Fatal("Limiter() returned nil")
	}
	if ask == docs {
		t.Error("ask and api scopes share a limiter")
	}
	if r.Limiter(http.MethodGet, "/api/textindb") != docs {
		t.Error("endpoints in the same scope should share a limiter")
	}
}

func TestGetScopeConfigUnknownFallsBack(t *testing.T) {
	r := NewRegistry()
	if got := r.GetScopeConfig(Scope("nope")).Scope; got != ScopeAPI {
		t.Errorf("GetScopeConfig(unknown).Scope = %q, want %q", got, ScopeAPI)
	}
}
