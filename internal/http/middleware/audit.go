package middleware

import (
	"net/http"
	"strings"
)

// ActivityRecorder stores one activity entry for a finished request
type ActivityRecorder interface {
	RecordRequest(r *http.Request, status int)
}

// AuditConfig holds configuration for audit middleware
type AuditConfig struct {
	// SkipPaths contains path prefixes that should not be audited
	SkipPaths []string
	// SkipMethods contains HTTP methods that should not be audited
	SkipMethods []string
	// AuditReads enables auditing of GET requests
	AuditReads bool
}

// DefaultAuditConfig returns default audit configuration
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		SkipPaths: []string{
			"/health",
			"/swagger",
		},
		SkipMethods: []string{
			http.MethodOptions,
			http.MethodHead,
		},
		AuditReads: false,
	}
}

// AuditMiddleware writes successful mutating staff requests to the activity log
type AuditMiddleware struct {
	recorder ActivityRecorder
	config   *AuditConfig
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(recorder ActivityRecorder, config *AuditConfig) *AuditMiddleware {
	if config == nil {
		config = DefaultAuditConfig()
	}
	return &AuditMiddleware{recorder: recorder, config: config}
}

// Audit must be mounted after the auth middleware so the recorder can see the user
func (m *AuditMiddleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.recorder == nil || !m.shouldAudit(r) {
			next.ServeHTTP(w, r)
			return
		}

		rw := wrapResponseWriter(w)
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 200 && rw.statusCode < 300 {
			m.recorder.RecordRequest(r, rw.statusCode)
		}
	})
}

func (m *AuditMiddleware) shouldAudit(r *http.Request) bool {
	for _, method := range m.config.SkipMethods {
		if r.Method == method {
			return false
		}
	}
	if r.Method == http.MethodGet && !m.config.AuditReads {
		return false
	}
	for _, skipPath := range m.config.SkipPaths {
		if strings.HasPrefix(r.URL.Path, skipPath) {
			return false
		}
	}
	return true
}
