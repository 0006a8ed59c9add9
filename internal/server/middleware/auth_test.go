package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spkap/GATIS/internal/server/handlers"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

func testJWTConfig() handlers.JWTConfig {
	return handlers.JWTConfig{
		Secret:         []byte("test-secret-key"),
		AccessTokenTTL: 60 * time.Minute,
	}
}

// testHandler is a simple handler that checks context values
func testHandler(t *testing.T, expectedUsername string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, ok := handlers.GetUsername(r.Context())
		require.True(t, ok, "username should be in context")
		assert.Equal(t, expectedUsername, username)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

// rejectingHandler fails the test if called
func rejectingHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("Handler should not be called")
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	jwtConfig := testJWTConfig()

	// Generate valid token
	token, err := handlers.GenerateAccessToken(jwtConfig, "testuser")
	require.NoError(t, err)

	authMiddleware := AuthMiddleware(setupTestLogger(), jwtConfig)
	wrappedHandler := authMiddleware(testHandler(t, "testuser"))

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	wrappedHandler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestAuthMiddleware_MissingAuthHeader(t *testing.T) {
	authMiddleware := AuthMiddleware(setupTestLogger(), testJWTConfig())
	wrappedHandler := authMiddleware(rejectingHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	// No Authorization header

	w := httptest.NewRecorder()
	wrappedHandler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing token")
}

func TestAuthMiddleware_InvalidAuthHeaderFormat(t *testing.T) {
	authMiddleware := AuthMiddleware(setupTestLogger(), testJWTConfig())

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "some-token"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty value", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrappedHandler := authMiddleware(rejectingHandler(t))

			req := httptest.NewRequest(http.MethodPost, "/generate", nil)
			req.Header.Set("Authorization", tt.header)

			w := httptest.NewRecorder()
			wrappedHandler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	authMiddleware := AuthMiddleware(setupTestLogger(), testJWTConfig())
	wrappedHandler := authMiddleware(rejectingHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.Header.Set("Authorization", "Bearer not-a-valid-token")

	w := httptest.NewRecorder()
	wrappedHandler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	expiredConfig := testJWTConfig()
	expiredConfig.AccessTokenTTL = -time.Minute

	token, err := handlers.GenerateAccessToken(expiredConfig, "testuser")
	require.NoError(t, err)

	authMiddleware := AuthMiddleware(setupTestLogger(), testJWTConfig())
	wrappedHandler := authMiddleware(rejectingHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	wrappedHandler.ServeHTTP(w, req)

	// Просроченный и подделанный токены дают один и тот же ответ
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}

func TestAuthMiddleware_TokenWithWrongSecret(t *testing.T) {
	otherConfig := handlers.JWTConfig{
		Secret:         []byte("other-secret-key"),
		AccessTokenTTL: 60 * time.Minute,
	}

	token, err := handlers.GenerateAccessToken(otherConfig, "testuser")
	require.NoError(t, err)

	authMiddleware := AuthMiddleware(setupTestLogger(), testJWTConfig())
	wrappedHandler := authMiddleware(rejectingHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	wrappedHandler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
