package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenLength is the number of hex characters in an auth token.
const TokenLength = 32

// NewToken draws 128 bits from the system's cryptographic source and
// renders them as 32 lowercase hex characters. Tokens are secrets;
// guessing one takes over the session it names.
func NewToken() (Token, error) {
	var buf [TokenLength / 2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return Token(hex.EncodeToString(buf[:])), nil
}

// ValidTokenFormat reports whether a string looks like an issued token:
// exactly 32 lowercase hex characters.
func ValidTokenFormat(s string) bool {
	if len(s) != TokenLength {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
