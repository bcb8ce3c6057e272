// Package auth resolves the authenticated principal for writes. A
// session (user id + API token) is looked up from the OS keyring first,
// then from environment variables, so interactive sign-in and CI usage
// coexist.
package auth

import (
	"sync"

	"ibonocollect/collect"
)

// Source indicates where a session was found
type Source string

const (
	SourceKeyring Source = "keyring"
	SourceEnv     Source = "env"
	SourceNone    Source = "none"
)

// Session represents a resolved sign-in
type Session struct {
	UserID string
	Token  string
	Source Source
}

// Resolver finds the current session, checking sources in priority
// order: keyring, then environment. It caches the result; Reset clears
// the cache after sign-in or sign-out.
type Resolver struct {
	mu      sync.Mutex
	cached  *Session
	checked bool
}

// NewResolver creates a new session resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the current session, or a Session with SourceNone
// when nobody is signed in.
func (r *Resolver) Resolve() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.checked {
		return r.cached, nil
	}

	// A broken keyring backend (headless machine, no dbus) must not
	// block an environment session; only surface the error when no
	// other source resolves.
	userID, token, keyringErr := GetSession()
	if keyringErr == nil && userID != "" && token != "" {
		r.cached = &Session{UserID: userID, Token: token, Source: SourceKeyring}
		r.checked = true
		return r.cached, nil
	}

	if HasEnvSession() {
		r.cached = &Session{UserID: envUserID(), Token: envToken(), Source: SourceEnv}
		r.checked = true
		return r.cached, nil
	}

	if keyringErr != nil {
		return nil, keyringErr
	}

	r.cached = &Session{Source: SourceNone}
	r.checked = true
	return r.cached, nil
}

// Reset clears the cached session so the next Resolve re-reads sources.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
	r.checked = false
}

// CurrentUser implements collect.Authenticator.
func (r *Resolver) CurrentUser() (*collect.User, error) {
	session, err := r.Resolve()
	if err != nil {
		return nil, err
	}
	if session.Source == SourceNone {
		return nil, collect.ErrNotAuthenticated
	}
	return &collect.User{ID: session.UserID}, nil
}

// Token returns the API token for the remote client, empty when signed
// out.
func (r *Resolver) Token() (string, error) {
	session, err := r.Resolve()
	if err != nil {
		return "", err
	}
	return session.Token, nil
}
