package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// originChecker enforces the configured origin allow-list on WebSocket
// upgrade requests. Requests without an Origin header (non-browser
// clients) are allowed.
type originChecker struct {
	allowed  map[string]struct{}
	allowAll bool
	log      *slog.Logger
}

func newOriginChecker(origins []string, log *slog.Logger) *originChecker {
	oc := &originChecker{allowed: make(map[string]struct{}), log: log}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			oc.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn("ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		oc.allowed[normalized] = struct{}{}
	}
	return oc
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

func (oc *originChecker) check(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if header == "" {
		return true
	}
	if oc.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(header)
	if !ok {
		return false
	}
	if _, exists := oc.allowed[normalized]; exists {
		return true
	}
	oc.log.Warn("blocked websocket connection from disallowed origin", "origin", header)
	return false
}
