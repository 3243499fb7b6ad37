package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestPurpose: Validates per-client throttling and idle eviction.
// Scope: Unit Test
// Security: Brute-force and abuse mitigation (CWE-770)
// Test Case ID: RL-01
func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.0001, 2)
	t.Cleanup(rl.Stop)

	h := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(remote, xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:1000", ""))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:2000", ""))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:3000", ""))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:1000", ""))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.3:1000", "198.51.100.7, 10.0.0.3"))

	rl.evictIdle(time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:4000", ""))
}
