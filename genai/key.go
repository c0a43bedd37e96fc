// Package genai resolves which API key a generation request should use
// against the generative-image provider.
package genai

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"
)

var (
	ErrNoKey      = errors.New("no API key available")
	ErrInvalidKey = errors.New("API key has invalid format")
)

// EnvKey is the environment variable holding the server's own key.
const EnvKey = "GENAI_API_KEY"

const (
	keyPrefix = "sk-"
	keyMinLen = 20
)

// KeySource says which tier a resolved key came from.
type KeySource string

const (
	SourceRequest KeySource = "request"
	SourceUser    KeySource = "user"
	SourceServer  KeySource = "server"
)

// Resolver picks an API key by precedence: a key supplied with the request
// beats the key stored on the user's account, which beats the server-wide
// key from the environment.
type Resolver struct {
	serverKey string
}

// NewResolver reads the server key from the environment. A missing server
// key is fine as long as requests or users bring their own.
func NewResolver() *Resolver {
	return &Resolver{serverKey: strings.TrimSpace(os.Getenv(EnvKey))}
}

// NewResolverWithServerKey is the injectable form used by tests and by
// callers that load configuration themselves.
func NewResolverWithServerKey(serverKey string) *Resolver {
	return &Resolver{serverKey: strings.TrimSpace(serverKey)}
}

// Resolve returns the first usable key in precedence order. A present but
// malformed request or user key is an error rather than a silent fall
// through, so a typo cannot quietly bill the server key.
func (r *Resolver) Resolve(requestKey, userKey string) (string, KeySource, error) {
	if k := strings.TrimSpace(requestKey); k != "" {
		if !ValidFormat(k) {
			return "", "", ErrInvalidKey
		}
		return k, SourceRequest, nil
	}
	if k := strings.TrimSpace(userKey); k != "" {
		if !ValidFormat(k) {
			return "", "", ErrInvalidKey
		}
		return k, SourceUser, nil
	}
	if r.serverKey != "" {
		if !ValidFormat(r.serverKey) {
			return "", "", ErrInvalidKey
		}
		return r.serverKey, SourceServer, nil
	}
	return "", "", ErrNoKey
}

// ValidFormat checks the provider's key shape without calling the provider.
func ValidFormat(key string) bool {
	return strings.HasPrefix(key, keyPrefix) && len(key) >= keyMinLen
}

// Fingerprint returns a short stable digest of the key for log lines. Raw
// keys must never reach the logger.
func Fingerprint(key string) string {
	if key == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(key))
	return "key:" + hex.EncodeToString(sum[:])[:12]
}
