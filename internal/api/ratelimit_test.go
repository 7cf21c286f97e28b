package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOriginPolicy(t *testing.T) {
	p := NewOriginPolicy([]string{"http://localhost:*", "https://arena.example/", " "})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://localhost:3000", true},
		{"https://arena.example", true},
		{"https://arena.example.evil", false},
		{"https://evil.example", false},
		{"http://127.0.0.1:3000", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Allowed(tt.origin), tt.origin)
	}

	assert.True(t, NewOriginPolicy([]string{"*"}).Allowed("https://anything.example"))
}

func TestConnLimiter(t *testing.T) {
	c := NewConnLimiter(2)
	assert.True(t, c.Acquire("1.2.3.4"))
	assert.True(t, c.Acquire("1.2.3.4"))
	assert.False(t, c.Acquire("1.2.3.4"))
	assert.True(t, c.Acquire("5.6.7.8"), "limits are per IP")

	c.Release("1.2.3.4")
	assert.Equal(t, 1, c.Count("1.2.3.4"))
	assert.True(t, c.Acquire("1.2.3.4"))
}

func TestIPRateLimiterCleanup(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	assert.Zero(t, rl.cleanup(time.Now()))
	assert.Equal(t, 2, rl.cleanup(time.Now().Add(3*time.Minute)))
	assert.True(t, rl.Allow("a"), "fresh bucket after cleanup")

	st := rl.Stats()
	assert.EqualValues(t, 3, st.Allowed)
	assert.EqualValues(t, 1, st.Rejected)
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", GetClientIP(r))

	r.Header.Set("X-Real-IP", " 10.0.0.2 ")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", GetClientIP(r))
}

func TestLoopbackOnly(t *testing.T) {
	assert.Equal(t, "localhost:6060", loopbackOnly("localhost:6060"))
	assert.Equal(t, "127.0.0.1:7070", loopbackOnly("127.0.0.1:7070"))
	assert.Equal(t, "[::1]:6060", loopbackOnly("[::1]:6060"))
	assert.Equal(t, "127.0.0.1:6060", loopbackOnly("0.0.0.0:6060"))
	assert.Equal(t, "127.0.0.1:9000", loopbackOnly(":9000"))
	assert.Equal(t, "127.0.0.1:6060", loopbackOnly("garbage"))
}
