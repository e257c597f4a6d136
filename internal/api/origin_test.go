package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func requestWithOrigin(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/sites/site-1/ws", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestOriginCheckerAllowList(t *testing.T) {
	oc := newOriginChecker([]string{"https://app.example.com"}, discardLogger())

	assert.True(t, oc.check(requestWithOrigin("https://app.example.com")))
	assert.True(t, oc.check(requestWithOrigin("HTTPS://APP.EXAMPLE.COM")), "origin comparison is case-insensitive")
	assert.False(t, oc.check(requestWithOrigin("https://evil.example.com")))
	assert.False(t, oc.check(requestWithOrigin("http://app.example.com")), "scheme is part of the origin")
}

func TestOriginCheckerWildcard(t *testing.T) {
	oc := newOriginChecker([]string{"*"}, discardLogger())
	assert.True(t, oc.check(requestWithOrigin("https://anywhere.example.com")))
}

func TestOriginCheckerMissingHeaderAllowed(t *testing.T) {
	oc := newOriginChecker([]string{"https://app.example.com"}, discardLogger())
	assert.True(t, oc.check(requestWithOrigin("")), "non-browser clients send no Origin header")
}

func TestOriginCheckerIgnoresInvalidConfigEntries(t *testing.T) {
	oc := newOriginChecker([]string{"not a url", "https://app.example.com"}, discardLogger())
	assert.True(t, oc.check(requestWithOrigin("https://app.example.com")))
	assert.False(t, oc.check(requestWithOrigin("not a url")))
}
