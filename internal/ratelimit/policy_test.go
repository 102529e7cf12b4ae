package ratelimit

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifierPrefersAPIKey(t *testing.T) {
	r := httpRequest(t, "10.0.0.5:4321")
	r.Header.Set("x-api-key", "k1")
	assert.Equal(t, "k1", Identifier(r))
}

func TestIdentifierFallsBackToNormalizedClientAddr(t *testing.T) {
	r := httpRequest(t, "[::ffff:10.0.0.1]:4321")
	assert.Equal(t, "10.0.0.1", Identifier(r))
}

func TestIdentifierLowercasesAddr(t *testing.T) {
	r := httpRequest(t, "[2001:DB8::1]:80")
	assert.Equal(t, "2001:db8::1", Identifier(r))
}

func TestResolverDefaultsUnknownPlanToFree(t *testing.T) {
	res := NewResolver(10, 0.1)
	r := httpRequest(t, "10.0.0.1:1")
	r.URL.RawQuery = url.Values{"plan": {"nonexistent"}}.Encode()

	_, capacity, rate := res.Resolve(r)
	assert.Equal(t, 10.0, capacity)
	assert.Equal(t, 0.1, rate)
}

func TestResolverHonorsProPlan(t *testing.T) {
	res := NewResolver(10, 0.1)
	r := httpRequest(t, "10.0.0.1:1")
	r.URL.RawQuery = url.Values{"plan": {"pro"}}.Encode()

	_, capacity, rate := res.Resolve(r)
	assert.Equal(t, 30.0, capacity)
	assert.Equal(t, 0.5, rate)
}

func TestResolverHonorsEnterprisePlan(t *testing.T) {
	res := NewResolver(10, 0.1)
	r := httpRequest(t, "10.0.0.1:1")
	r.URL.RawQuery = url.Values{"plan": {"enterprise"}}.Encode()

	_, capacity, rate := res.Resolve(r)
	assert.Equal(t, 60.0, capacity)
	assert.Equal(t, 1.0, rate)
}

func httpRequest(t *testing.T, remoteAddr string) *http.Request {
	t.Helper()
	r, err := http.NewRequest(http.MethodGet, "/", nil)
	assert.NoError(t, err)
	r.RemoteAddr = remoteAddr
	return r
}
