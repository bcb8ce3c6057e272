package auth

import (
	"errors"
	"os"
	"testing"

	"ibonocollect/collect"
)

func setEnvSession(t *testing.T, userID, token string) {
	t.Helper()
	os.Setenv(EnvUserID, userID)
	os.Setenv(EnvToken, token)
	t.Cleanup(func() {
		os.Unsetenv(EnvUserID)
		os.Unsetenv(EnvToken)
	})
}

func TestResolver_Resolve_EnvironmentSession(t *testing.T) {
	setEnvSession(t, "envuser", "envtoken")

	resolver := NewResolver()
	session, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}

	if session.UserID != "envuser" {
		t.Errorf("UserID = %q, want %q", session.UserID, "envuser")
	}
	if session.Token != "envtoken" {
		t.Errorf("Token = %q, want %q", session.Token, "envtoken")
	}
	if session.Source != SourceEnv {
		t.Errorf("Source = %q, want %q", session.Source, SourceEnv)
	}
}

func TestResolver_Resolve_Caches(t *testing.T) {
	setEnvSession(t, "envuser", "envtoken")

	resolver := NewResolver()
	if _, err := resolver.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// The environment changes but the cached session holds until Reset.
	os.Setenv(EnvUserID, "otheruser")
	session, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if session.UserID != "envuser" {
		t.Errorf("UserID = %q, want cached %q", session.UserID, "envuser")
	}

	resolver.Reset()
	session, err = resolver.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if session.UserID != "otheruser" {
		t.Errorf("UserID after Reset = %q, want %q", session.UserID, "otheruser")
	}
}

func TestResolver_CurrentUser(t *testing.T) {
	setEnvSession(t, "envuser", "envtoken")

	resolver := NewResolver()
	user, err := resolver.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user.ID != "envuser" {
		t.Errorf("user.ID = %q, want %q", user.ID, "envuser")
	}
}

func TestResolver_Token(t *testing.T) {
	setEnvSession(t, "envuser", "envtoken")

	resolver := NewResolver()
	token, err := resolver.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "envtoken" {
		t.Errorf("Token() = %q, want %q", token, "envtoken")
	}
}

func TestResolver_CurrentUser_SignedOut(t *testing.T) {
	// No env session; a keyring may or may not be reachable here, so a
	// keyring transport error is accepted alongside the sign-in error.
	os.Unsetenv(EnvUserID)
	os.Unsetenv(EnvToken)

	resolver := NewResolver()
	_, err := resolver.CurrentUser()
	if err == nil {
		t.Fatal("CurrentUser() error = nil, want error when signed out")
	}
	if userID, _, kerr := GetSession(); kerr == nil && userID == "" {
		if !errors.Is(err, collect.ErrNotAuthenticated) {
			t.Errorf("error = %v, want ErrNotAuthenticated", err)
		}
	}
}
