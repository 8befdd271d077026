package httpapi

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPLimiter_DisabledWhenNotPositive(t *testing.T) {
	assert.Nil(t, newIPLimiter(0))
	assert.Nil(t, newIPLimiter(-1))
}

func TestIPLimiter_PerAddress(t *testing.T) {
	l := newIPLimiter(1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))

	now = now.Add(time.Minute)
	assert.True(t, l.allow("10.0.0.1"))
}

func TestIPLimiter_DropsIdleAddresses(t *testing.T) {
	l := newIPLimiter(5)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		l.allow(fmt.Sprintf("10.0.0.%d", i))
	}
	require.Len(t, l.visitors, 100)

	now = now.Add(30 * time.Second)
	l.allow("10.0.1.1")
	assert.Len(t, l.visitors, 101)

	now = now.Add(limiterIdle)
	l.allow("10.0.1.2")
	assert.Len(t, l.visitors, 1)
	assert.Contains(t, l.visitors, "10.0.1.2")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", clientIP(r))

	r.RemoteAddr = "bare"
	assert.Equal(t, "bare", clientIP(r))
}
