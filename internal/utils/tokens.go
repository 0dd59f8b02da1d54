package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

const (
	// CSRFTokenBytes is the entropy of a CSRF token before encoding.
	CSRFTokenBytes = 32
	// NonceBytes is the entropy of a CSP nonce before encoding.
	NonceBytes = 16
)

// NewCSRFToken returns a URL-safe random token for one cookie session.
func NewCSRFToken() (string, error) {
	return randomToken(CSRFTokenBytes)
}

// NewNonce returns a random value for a Content-Security-Policy nonce.
func NewNonce() (string, error) {
	return randomToken(NonceBytes)
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// TokensMatch compares a submitted token with the issued one in constant
// time. An empty submission never matches.
func TokensMatch(submitted, issued string) bool {
	if submitted == "" || issued == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(issued)) == 1
}
