// Package server holds HTTP middleware shared by the API server.
package server

import (
	"net/http"
	"slices"
	"strings"
)

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	// AllowedOrigins lists the origins that may call the API.
	// Empty allows all origins ("*").
	AllowedOrigins []string

	// AllowedMethods defaults to GET, POST, DELETE, OPTIONS.
	AllowedMethods []string
}

var defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}

// OriginAllowed reports whether origin may call the API under cfg.
// A request without an Origin header is always allowed.
func (cfg CORSConfig) OriginAllowed(origin string) bool {
	if origin == "" || len(cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(cfg.AllowedOrigins, origin)
}

// CORSMiddleware adds CORS headers to responses. Requests from origins
// outside cfg.AllowedOrigins get no CORS headers, so browsers block the
// response; their preflights are refused outright.
func CORSMiddleware(cfg CORSConfig, next http.Handler) http.Handler {
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	allowMethods := strings.Join(methods, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowedOrigin := "*"
		if len(cfg.AllowedOrigins) > 0 {
			if !cfg.OriginAllowed(origin) || origin == "" {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			allowedOrigin = origin
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", allowMethods)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
