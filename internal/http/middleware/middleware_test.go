package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/straye-as/renewal-api/internal/auth"
	"github.com/straye-as/renewal-api/internal/config"
	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func serve(h http.Handler, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	base := config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
		LoginPerWindow:    1,
		UploadPerWindow:   1,
	}

	t.Run("exceeding the limit returns 429", func(t *testing.T) {
		cfg := base
		h := middleware.NewRateLimiter(&cfg, zap.NewNop()).LimitByIP(okHandler(http.StatusOK))

		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/projects", "10.0.0.1:1").Code)
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/projects", "10.0.0.1:2").Code)

		w := serve(h, http.MethodGet, "/api/projects", "10.0.0.1:3")
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
		var apiErr domain.APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		assert.Equal(t, domain.ErrorTypeRateLimited, apiErr.Type)

		// a different client has its own budget
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/projects", "10.0.0.2:1").Code)
	})

	t.Run("disabled passes everything", func(t *testing.T) {
		cfg := base
		cfg.Enabled = false
		h := middleware.NewRateLimiter(&cfg, zap.NewNop()).LimitLogin(okHandler(http.StatusOK))
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/login", "10.0.0.1:1").Code)
		}
	})

	t.Run("whitelisted ip and path", func(t *testing.T) {
		cfg := base
		cfg.WhitelistIPs = []string{"10.9.9.9"}
		cfg.WhitelistPaths = []string{"/health", "/swagger/*"}
		h := middleware.NewRateLimiter(&cfg, zap.NewNop()).LimitLogin(okHandler(http.StatusOK))

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/login", "10.9.9.9:1").Code)
			assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health", "10.0.0.5:1").Code)
			assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/swagger/index.html", "10.0.0.5:1").Code)
		}
		assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/login", "10.0.0.5:1").Code)
		assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodPost, "/login", "10.0.0.5:1").Code)
	})

	t.Run("forwarded address identifies the client", func(t *testing.T) {
		cfg := base
		h := middleware.NewRateLimiter(&cfg, zap.NewNop()).LimitUpload(okHandler(http.StatusOK))

		send := func(forwarded string) int {
			req := httptest.NewRequest(http.MethodPost, "/upload", nil)
			req.RemoteAddr = "172.16.0.1:1"
			req.Header.Set("X-Forwarded-For", forwarded)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			return w.Code
		}
		assert.Equal(t, http.StatusOK, send("203.0.113.7, 172.16.0.1"))
		assert.Equal(t, http.StatusOK, send("203.0.113.8"))
		assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7"))
	})
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []string
}

func (f *fakeRecorder) RecordRequest(r *http.Request, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, r.Method+" "+r.URL.Path)
}

func TestAudit(t *testing.T) {
	t.Run("records successful writes only", func(t *testing.T) {
		rec := &fakeRecorder{}
		m := middleware.NewAuditMiddleware(rec, nil)

		serve(m.Audit(okHandler(http.StatusCreated)), http.MethodPost, "/api/add-task", "")
		serve(m.Audit(okHandler(http.StatusBadRequest)), http.MethodPost, "/api/add-task", "")
		serve(m.Audit(okHandler(http.StatusOK)), http.MethodGet, "/api/meetings", "")
		serve(m.Audit(okHandler(http.StatusOK)), http.MethodOptions, "/api/meetings", "")
		serve(m.Audit(okHandler(http.StatusOK)), http.MethodPost, "/health/db", "")

		assert.Equal(t, []string{"POST /api/add-task"}, rec.entries)
	})

	t.Run("reads are recorded when enabled", func(t *testing.T) {
		rec := &fakeRecorder{}
		cfg := middleware.DefaultAuditConfig()
		cfg.AuditReads = true
		m := middleware.NewAuditMiddleware(rec, cfg)

		serve(m.Audit(okHandler(http.StatusOK)), http.MethodGet, "/api/meetings", "")
		assert.Equal(t, []string{"GET /api/meetings"}, rec.entries)
	})

	t.Run("nil recorder is a passthrough", func(t *testing.T) {
		m := middleware.NewAuditMiddleware(nil, nil)
		w := serve(m.Audit(okHandler(http.StatusAccepted)), http.MethodPost, "/upload", "")
		assert.Equal(t, http.StatusAccepted, w.Code)
	})
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := middleware.Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := serve(h, http.MethodGet, "/api/projects", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, domain.ErrorTypeInternal, apiErr.Type)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	t.Run("abort handler is re-raised", func(t *testing.T) {
		h := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		}))
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			serve(h, http.MethodGet, "/download-doc/x", "")
		})
	})
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	user := &auth.UserContext{UserID: 7, Username: "dana", Role: domain.RoleLawyer}

	// stands in for the auth middleware
	authenticate := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserContext(r.Context(), user)))
		})
	}
	h := middleware.Logging(zap.New(core))(authenticate(middleware.CaptureUser(okHandler(http.StatusNoContent))))

	t.Run("generates a request id", func(t *testing.T) {
		w := serve(h, http.MethodGet, "/api/tasks", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("keeps the caller's request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	})

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[1].ContextMap()
	assert.Equal(t, "abc-123", fields["request_id"])
	assert.Equal(t, int64(http.StatusNoContent), fields["status_code"])
	assert.Equal(t, uint64(7), fields["user_id"])
	assert.Equal(t, "dana", fields["user_name"])
}

func TestSecurityHeaders(t *testing.T) {
	cfg := &config.SecurityConfig{
		ContentTypeNosniff:    true,
		FrameOptions:          "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		EnableHSTS:            true,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	}
	w := serve(middleware.SecurityHeaders(cfg)(okHandler(http.StatusOK)), http.MethodGet, "/", "")

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	// unset values are not sent
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))

	w = serve(middleware.SecurityHeaders(&config.SecurityConfig{})(okHandler(http.StatusOK)), http.MethodGet, "/", "")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestCORS(t *testing.T) {
	preflight := func(h http.Handler, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}
	corsCfg := func(origins ...string) *config.CORSConfig {
		return &config.CORSConfig{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}
	}

	tests := []struct {
		name        string
		cfg         *config.CORSConfig
		environment string
		origin      string
		allowed     bool
	}{
		{"explicit origin allowed", corsCfg("https://crm.example.com"), "production", "https://crm.example.com", true},
		{"explicit origin rejects others", corsCfg("https://crm.example.com"), "production", "https://evil.example.com", false},
		{"development allows any origin", corsCfg(), "development", "http://localhost:5173", true},
		{"production without origins denies", corsCfg(), "production", "https://crm.example.com", false},
		{"wildcard allows any origin", corsCfg("*"), "staging", "https://anything.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.CORS(tt.cfg, tt.environment, zap.NewNop())(okHandler(http.StatusOK))
			w := preflight(h, tt.origin)
			if tt.allowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
