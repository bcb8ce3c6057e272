package auth

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name for all ibonocollect keyring entries
	keyringService = "ibonocollect"
	// keyringSessionKey is the entry holding the signed-in session
	keyringSessionKey = "session"
)

// SetSession stores the signed-in session in the OS keyring.
func SetSession(userID, token string) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if strings.ContainsRune(userID, '\n') {
		return fmt.Errorf("user id cannot contain newlines")
	}

	secret := userID + "\n" + token
	if err := keyring.Set(keyringService, keyringSessionKey, secret); err != nil {
		return fmt.Errorf("failed to store session in keyring: %w", err)
	}
	return nil
}

// GetSession retrieves the session from the OS keyring. A missing entry
// returns empty strings without error.
func GetSession() (userID, token string, err error) {
	secret, err := keyring.Get(keyringService, keyringSessionKey)
	if err == keyring.ErrNotFound {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read session from keyring: %w", err)
	}

	parts := strings.SplitN(secret, "\n", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("malformed session entry in keyring")
	}
	return parts[0], parts[1], nil
}

// DeleteSession removes the session from the OS keyring. Deleting a
// missing entry is not an error.
func DeleteSession() error {
	err := keyring.Delete(keyringService, keyringSessionKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete session from keyring: %w", err)
	}
	return nil
}
