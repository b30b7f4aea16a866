package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/straye-as/renewal-api/internal/auth"
	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-with-enough-entropy"

func testUser() *domain.User {
	return &domain.User{ID: 7, Username: "dana", Role: domain.RoleLawyer}
}

func okHandler(captured **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured, _ = auth.FromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, time.Hour)

	token, err := tm.Issue(testUser())
	require.NoError(t, err)

	userCtx, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userCtx.UserID)
	assert.Equal(t, "dana", userCtx.Username)
	assert.Equal(t, domain.RoleLawyer, userCtx.Role)
}

func TestTokenManager_RejectsOtherSecret(t *testing.T) {
	token, err := auth.NewTokenManager("another-secret", time.Hour).Issue(testUser())
	require.NoError(t, err)

	_, err = auth.NewTokenManager(testSecret, time.Hour).Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, time.Millisecond)
	token, err := tm.Issue(testUser())
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := jwt.MapClaims{"sub": "1", "iss": "renewal-api", "role": "admin"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.NewTokenManager(testSecret, time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestTokenManager_EmptySecretCannotIssue(t *testing.T) {
	_, err := auth.NewTokenManager("", time.Hour).Issue(testUser())
	assert.Error(t, err)
}

func TestMiddleware_Authenticate(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, time.Hour)
	mw := auth.NewMiddleware(tm, "bot-key", zap.NewNop())
	token, err := tm.Issue(testUser())
	require.NoError(t, err)

	var captured *auth.UserContext
	handler := mw.Authenticate(okHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, domain.UserID(7), captured.ID())
}

func TestMiddleware_Authenticate_Failures(t *testing.T) {
	mw := auth.NewMiddleware(auth.NewTokenManager(testSecret, time.Hour), "bot-key", zap.NewNop())
	handler := mw.Authenticate(okHandler(nil))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), domain.ErrorTypeUnauthorized)
		})
	}
}

func TestMiddleware_RequireAPIKey(t *testing.T) {
	mw := auth.NewMiddleware(auth.NewTokenManager(testSecret, time.Hour), "bot-key", zap.NewNop())

	var captured *auth.UserContext
	handler := mw.RequireAPIKey(okHandler(&captured))

	req := httptest.NewRequest(http.MethodPost, "/api/bot/new-lead", nil)
	req.Header.Set("x-api-key", "bot-key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.True(t, captured.Service)

	req = httptest.NewRequest(http.MethodPost, "/api/bot/new-lead", nil)
	req.Header.Set("x-api-key", "wrong")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_RequireAPIKey_EmptyConfiguredKeyRejectsAll(t *testing.T) {
	mw := auth.NewMiddleware(auth.NewTokenManager(testSecret, time.Hour), "", zap.NewNop())
	handler := mw.RequireAPIKey(okHandler(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/bot/new-lead", nil)
	req.Header.Set("x-api-key", "")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_RequireRole(t *testing.T) {
	mw := auth.NewMiddleware(auth.NewTokenManager(testSecret, time.Hour), "", zap.NewNop())
	handler := mw.RequireAdmin(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{UserID: 2, Role: domain.RoleAgent}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{UserID: 1, Role: domain.RoleAdmin}))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserContext_CanActFor(t *testing.T) {
	agent := &auth.UserContext{UserID: 3, Role: domain.RoleAgent}
	assert.True(t, agent.CanActFor(3))
	assert.False(t, agent.CanActFor(4))

	manager := &auth.UserContext{UserID: 5, Role: domain.RoleManager}
	assert.True(t, manager.CanActFor(4))
}

func TestPasswords(t *testing.T) {
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, auth.CheckPassword(hash, "secret1"))
	assert.False(t, auth.CheckPassword(hash, "secret2"))

	tmp, err := auth.TemporaryPassword()
	require.NoError(t, err)
	assert.Len(t, tmp, 6)
}

func TestMustFromContext_Panics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Panics(t, func() { auth.MustFromContext(req.Context()) })
}
