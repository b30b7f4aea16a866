package middleware

import (
	"fmt"
	"net/http"

	"github.com/straye-as/renewal-api/internal/config"
)

// header is one static response header
type header struct {
	name  string
	value string
}

// securityHeaders builds the header set once from configuration. Empty values
// are skipped so a deployment can switch any single header off.
func securityHeaders(cfg *config.SecurityConfig) []header {
	var hs []header
	add := func(name, value string) {
		if value != "" {
			hs = append(hs, header{name: name, value: value})
		}
	}

	if cfg.ContentTypeNosniff {
		add("X-Content-Type-Options", "nosniff")
	}
	add("X-Frame-Options", cfg.FrameOptions)
	add("X-XSS-Protection", cfg.XSSProtection)
	add("Content-Security-Policy", cfg.ContentSecurityPolicy)
	add("Referrer-Policy", cfg.ReferrerPolicy)
	add("Permissions-Policy", cfg.PermissionsPolicy)
	add("X-DNS-Prefetch-Control", "off")
	add("X-Download-Options", "noopen")
	add("X-Permitted-Cross-Domain-Policies", "none")
	add("Cross-Origin-Opener-Policy", "same-origin")

	if cfg.EnableHSTS {
		hsts := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		add("Strict-Transport-Security", hsts)
	}
	return hs
}

// SecurityHeaders returns a middleware that adds security headers to responses
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	hs := securityHeaders(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, sh := range hs {
				h.Set(sh.name, sh.value)
			}
			h.Del("X-Powered-By")
			h.Del("Server")
			next.ServeHTTP(w, r)
		})
	}
}
