package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func requestFrom(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginPolicy(t *testing.T) {
	policy := newOriginPolicy([]string{"http://localhost:8080", "HTTPS://Campus.Example", "not a url", ""}, slog.New(slog.DiscardHandler))

	for origin, want := range map[string]bool{
		"http://localhost:8080":  true,
		"https://campus.example": true,
		"https://CAMPUS.example": true,
		"http://campus.example":  false,
		"http://localhost:9999":  false,
		"http://evil.example":    false,
		"":                       false,
		"::::":                   false,
	} {
		t.Run(origin, func(t *testing.T) {
			require.Equal(t, want, policy.check(requestFrom(origin)))
		})
	}
}

func TestOriginPolicy_Wildcard(t *testing.T) {
	req := require.New(t)
	policy := newOriginPolicy([]string{"*"}, slog.New(slog.DiscardHandler))

	req.True(policy.check(requestFrom("http://anything.example")))
	req.False(policy.check(requestFrom("")), "browsers always send an origin")
}
