package invoicing

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
)

// EracuniConfig holds configuration for the e-Računi JSON API
type EracuniConfig struct {
	// APIURL is the single endpoint every method is posted to
	APIURL string
	// Username is the API user
	Username string
	// PasswordHash is the MD5 hex digest of the API password
	PasswordHash string
	// Password is used to derive PasswordHash when the hash is not configured
	Password string
	// Token is the API token issued for the organisation
	Token string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// EracuniDefaultAPIURL is the production API endpoint
	EracuniDefaultAPIURL = "https://e-racuni.com/S8c/API"
	// eracuniDefaultTimeoutSeconds applies when no timeout is configured
	eracuniDefaultTimeoutSeconds = 30
)

// Errors for e-Računi configuration
var (
	ErrEracuniConfigMissingUsername = errors.New("eracuni: username is required")
	ErrEracuniConfigMissingPassword = errors.New("eracuni: password hash is required")
	ErrEracuniConfigMissingToken    = errors.New("eracuni: token is required")
)

// NewEracuniConfig creates a new e-Računi configuration with defaults
func NewEracuniConfig(username, passwordHash, token string) *EracuniConfig {
	return &EracuniConfig{
		APIURL:         EracuniDefaultAPIURL,
		Username:       username,
		PasswordHash:   passwordHash,
		Token:          token,
		TimeoutSeconds: eracuniDefaultTimeoutSeconds,
	}
}

// Validate validates the configuration and fills in defaults
func (c *EracuniConfig) Validate() error {
	if c.Username == "" {
		return ErrEracuniConfigMissingUsername
	}
	if c.PasswordHash == "" && c.Password != "" {
		c.PasswordHash = HashPassword(c.Password)
	}
	if c.PasswordHash == "" {
		return ErrEracuniConfigMissingPassword
	}
	if c.Token == "" {
		return ErrEracuniConfigMissingToken
	}
	if c.APIURL == "" {
		c.APIURL = EracuniDefaultAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = eracuniDefaultTimeoutSeconds
	}
	return nil
}

// HashPassword returns the lowercase MD5 hex digest expected in the md5pass field.
// NOTE: MD5 is required by the e-Računi API; it is not used for any local security purpose.
func HashPassword(password string) string {
	sum := md5.Sum([]byte(password))
	return strings.ToLower(hex.EncodeToString(sum[:]))
}
