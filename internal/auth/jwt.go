package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// DefaultCookieName is the cookie checked when no Authorization header is set.
const DefaultCookieName = "nbtemplates-token"

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims carried by tokens issued by the hosting notebook server.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuthenticator resolves identities from HMAC-signed bearer tokens issued
// by the hosting notebook server. Requests without a token are anonymous.
type JWTAuthenticator struct {
	secret     []byte
	cookieName string
	logger     zerolog.Logger
}

// NewJWTAuthenticator creates an authenticator for the shared secret.
func NewJWTAuthenticator(secret, cookieName string, logger zerolog.Logger) (*JWTAuthenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &JWTAuthenticator{
		secret:     []byte(secret),
		cookieName: cookieName,
		logger:     logger,
	}, nil
}

// Session implements Authenticator.
func (a *JWTAuthenticator) Session(r *http.Request) Session {
	return &jwtSession{auth: a, token: a.tokenFromRequest(r)}
}

func (a *JWTAuthenticator) tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(a.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Parse validates token and returns the identity it names.
func (a *JWTAuthenticator) Parse(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}

	name := claims.Name
	if name == "" {
		name = claims.Subject
	}
	if name == "" {
		return AnonymousIdentity, nil
	}
	return Identity{Name: name}, nil
}

type jwtSession struct {
	auth  *JWTAuthenticator
	token string
}

func (s *jwtSession) CurrentUser() (Identity, error) {
	if s.token == "" {
		return AnonymousIdentity, nil
	}
	identity, err := s.auth.Parse(s.token)
	if err != nil {
		s.auth.logger.Warn().Err(err).Msg("rejecting session token")
		return AnonymousIdentity, err
	}
	return identity, nil
}
