// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// CSRFProtection rejects state-changing requests that a browser sent from a
// foreign page. The control API listens on loopback, so any web page the
// user has open could otherwise start or delete recordings.
//
// Requests without Origin and Referer come from non-browser clients (the
// ctl command, hotkey helpers) and pass. Same-origin requests and requests
// from allowedOrigins pass.
func CSRFProtection(allowedOrigins []string) func(http.Handler) http.Handler {
	originsMap := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originsMap[strings.TrimSuffix(origin, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut &&
				r.Method != http.MethodDelete && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			requestOrigin := getRequestOrigin(r)
			if requestOrigin != "" && !isOriginAllowed(requestOrigin, originsMap, r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"cross-origin request not allowed","code":"forbidden"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getRequestOrigin extracts the origin from the Origin header, falling back
// to the Referer.
func getRequestOrigin(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return strings.TrimSuffix(origin, "/")
	}

	referer := r.Header.Get("Referer")
	if referer == "" {
		return ""
	}
	refererURL, err := url.Parse(referer)
	if err != nil || refererURL.Host == "" {
		// An unparsable referer still came from a browser.
		return "null"
	}
	return refererURL.Scheme + "://" + refererURL.Host
}

func isOriginAllowed(requestOrigin string, allowedOrigins map[string]bool, r *http.Request) bool {
	if allowedOrigins[requestOrigin] {
		return true
	}
	return isSameOrigin(requestOrigin, r)
}

func isSameOrigin(requestOrigin string, r *http.Request) bool {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if r.Host == "" {
		return false
	}
	return requestOrigin == scheme+"://"+r.Host
}
