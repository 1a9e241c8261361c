package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestUsername(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		want    string
	}{
		{name: "nil session", session: nil, want: "anonymous"},
		{name: "anonymous", session: StaticSession{Identity: AnonymousIdentity}, want: "anonymous"},
		{name: "named", session: StaticSession{Identity: Identity{Name: "alice"}}, want: "alice"},
		{name: "empty name", session: StaticSession{Identity: Identity{}}, want: "anonymous"},
		{name: "error", session: StaticSession{Identity: Identity{Name: "mallory"}, Err: errors.New("boom")}, want: "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Username(tt.session))
		})
	}
}

func TestStaticAuthenticator(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, "anonymous", Username(Anonymous().Session(req)))
	require.Equal(t, "bob", Username(StaticAuthenticator{Identity: Identity{Name: "bob"}}.Session(req)))
}

func TestUsernameContext(t *testing.T) {
	_, ok := UsernameFromContext(context.Background())
	require.False(t, ok)

	ctx := WithUsername(context.Background(), "alice")
	got, ok := UsernameFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "alice", got)
}

func TestNewJWTAuthenticatorRequiresSecret(t *testing.T) {
	_, err := NewJWTAuthenticator("", "", zerolog.Nop())
	require.Error(t, err)
}

func TestJWTAuthenticatorBearer(t *testing.T) {
	a, err := NewJWTAuthenticator(testSecret, "", zerolog.Nop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, Claims{Name: "Alice Example"}))

	identity, err := a.Session(req).CurrentUser()
	require.NoError(t, err)
	require.Equal(t, Identity{Name: "Alice Example"}, identity)
}

func TestJWTAuthenticatorCookieAndSubjectFallback(t *testing.T) {
	a, err := NewJWTAuthenticator(testSecret, "session", zerolog.Nop())
	require.NoError(t, err)

	token := signToken(t, testSecret, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "bob"}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})

	require.Equal(t, "bob", Username(a.Session(req)))
}

func TestJWTAuthenticatorNonBearerHeaderUsesCookie(t *testing.T) {
	a, err := NewJWTAuthenticator(testSecret, "session", zerolog.Nop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	req.AddCookie(&http.Cookie{Name: "session", Value: signToken(t, testSecret, Claims{Name: "carol"})})

	require.Equal(t, "carol", Username(a.Session(req)))
}

func TestJWTAuthenticatorMissingToken(t *testing.T) {
	a, err := NewJWTAuthenticator(testSecret, "", zerolog.Nop())
	require.NoError(t, err)

	identity, err := a.Session(httptest.NewRequest(http.MethodGet, "/", nil)).CurrentUser()
	require.NoError(t, err)
	require.True(t, identity.Anonymous)
}

func TestJWTAuthenticatorRejectsBadTokens(t *testing.T) {
	a, err := NewJWTAuthenticator(testSecret, "", zerolog.Nop())
	require.NoError(t, err)

	expired := Claims{
		Name:             "late",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	}

	tokens := map[string]string{
		"wrong secret": signToken(t, "other-secret", Claims{Name: "eve"}),
		"expired":      signToken(t, testSecret, expired),
		"garbage":      "not-a-token",
	}

	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			identity, err := a.Session(req).CurrentUser()
			require.ErrorIs(t, err, ErrInvalidToken)
			require.True(t, identity.Anonymous)
			require.Equal(t, "anonymous", Username(a.Session(req)))
		})
	}
}
