package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Credentials are the macaroons authorizing store requests.
type Credentials struct {
	Root      string `json:"r"`
	Discharge string `json:"d"`
}

// ParseCredentials decodes the base64 JSON written by "snapcraft export-login".
func ParseCredentials(encoded string) (*Credentials, error) {
	encoded = strings.TrimSpace(encoded)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if creds.Root == "" || creds.Discharge == "" {
		return nil, fmt.Errorf("%w: missing root or discharge macaroon", ErrInvalidCredentials)
	}

	return &creds, nil
}

// CredentialsFromEnv reads credentials from the environment variable env.
// It returns nil, nil when the variable is unset or empty.
func CredentialsFromEnv(env string) (*Credentials, error) {
	v := os.Getenv(env)
	if v == "" {
		return nil, nil
	}
	return ParseCredentials(v)
}

// Header returns the Authorization header value.
func (c *Credentials) Header() string {
	return fmt.Sprintf("Macaroon root=%q, discharge=%q", c.Root, c.Discharge)
}
