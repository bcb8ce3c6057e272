package auth

import "os"

// Environment variable names for non-interactive use (CI, scripts).
const (
	EnvUserID = "IBONOCOLLECT_USER_ID"
	EnvToken  = "IBONOCOLLECT_TOKEN"
)

// envUserID retrieves the user id from the environment.
func envUserID() string {
	return os.Getenv(EnvUserID)
}

// envToken retrieves the API token from the environment.
func envToken() string {
	return os.Getenv(EnvToken)
}

// HasEnvSession checks whether a complete session is present in the
// environment.
func HasEnvSession() bool {
	return envUserID() != "" && envToken() != ""
}
