// Package auth resolves the user a template request is rendered for.
package auth

import (
	"context"
	"net/http"

	"github.com/opencode-ai/nbtemplates/internal/placeholder"
)

// Identity is the authenticated user behind a request.
type Identity struct {
	Name      string
	Anonymous bool
}

// AnonymousIdentity is reported when a request carries no credentials.
var AnonymousIdentity = Identity{Name: placeholder.DefaultUsername, Anonymous: true}

// Session exposes the identity of the current request.
type Session interface {
	CurrentUser() (Identity, error)
}

// Authenticator builds a Session for an HTTP request.
type Authenticator interface {
	Session(r *http.Request) Session
}

// Username returns the display name of the session user, or the anonymous
// sentinel when the session is anonymous or cannot be resolved.
func Username(session Session) string {
	if session == nil {
		return placeholder.DefaultUsername
	}
	identity, err := session.CurrentUser()
	if err != nil || identity.Anonymous || identity.Name == "" {
		return placeholder.DefaultUsername
	}
	return identity.Name
}

// StaticSession always reports the same identity.
type StaticSession struct {
	Identity Identity
	Err      error
}

// CurrentUser implements Session.
func (s StaticSession) CurrentUser() (Identity, error) {
	return s.Identity, s.Err
}

// StaticAuthenticator hands every request the same session.
type StaticAuthenticator struct {
	Identity Identity
}

// Anonymous returns an authenticator that treats every request as anonymous.
func Anonymous() StaticAuthenticator {
	return StaticAuthenticator{Identity: AnonymousIdentity}
}

// Session implements Authenticator.
func (a StaticAuthenticator) Session(*http.Request) Session {
	return StaticSession{Identity: a.Identity}
}

type contextKey struct{}

// WithUsername stores a resolved username on ctx.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, contextKey{}, username)
}

// UsernameFromContext returns the username stored by WithUsername.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(contextKey{}).(string)
	return username, ok
}
