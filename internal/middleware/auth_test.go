package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, scopes []string) string {
	t.Helper()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scopes: scopes,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authProtected(secret string, scope string) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetSubject(r.Context())))
	})
	return Auth(secret)(RequireScope(scope)(inner))
}

func TestAuthMissingHeader(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	authProtected(testSecret, ScopeAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthInvalidToken(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret", []string{ScopeAdmin}))

	rec := httptest.NewRecorder()
	authProtected(testSecret, ScopeAdmin).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMissingScope(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, []string{"reader"}))

	rec := httptest.NewRecorder()
	authProtected(testSecret, ScopeAdmin).ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthValidToken(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, []string{ScopeAdmin}))

	rec := httptest.NewRecorder()
	authProtected(testSecret, ScopeAdmin).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ops", rec.Body.String())
}

func TestParseChatID(t *testing.T) {
	t.Parallel()

	id, err := ParseChatID("-100123456")
	require.NoError(t, err)
	require.Equal(t, int64(-100123456), id)

	_, err = ParseChatID("abc")
	require.Error(t, err)
}
