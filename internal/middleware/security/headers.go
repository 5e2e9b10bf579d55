package security

import (
	"fmt"
	"net/http"
)

type HeadersConfig struct {
	CSP string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginResource string
}

// DefaultHeadersConfig suits a JSON API that also upgrades /ws.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; connect-src 'self'; frame-ancestors 'none'; base-uri 'none'",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:     "same-origin",
		CrossOriginResource:   "same-origin",
	}
}

type HeadersMiddleware struct {
	config HeadersConfig
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.applyHeaders(w, r)
		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) applyHeaders(w http.ResponseWriter, r *http.Request) {
	headers := w.Header()
	set := func(name, value string) {
		if value != "" {
			headers.Set(name, value)
		}
	}

	set("X-Content-Type-Options", h.config.XContentTypeOptions)
	set("X-Frame-Options", h.config.XFrameOptions)
	set("Content-Security-Policy", h.config.CSP)
	set("Referrer-Policy", h.config.ReferrerPolicy)
	set("Permissions-Policy", h.config.PermissionsPolicy)
	set("Cross-Origin-Opener-Policy", h.config.CrossOriginOpener)
	set("Cross-Origin-Resource-Policy", h.config.CrossOriginResource)

	// HSTS only means something over TLS.
	if r.TLS != nil && h.config.HSTSMaxAge > 0 {
		hsts := fmt.Sprintf("max-age=%d", h.config.HSTSMaxAge)
		if h.config.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		headers.Set("Strict-Transport-Security", hsts)
	}
}

// NoStore marks responses as uncacheable by intermediaries.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
