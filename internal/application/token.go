package application

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// TokenSource produces unlock tokens.
type TokenSource interface {
	NewToken() (string, error)
}

// CryptoTokenSource renders 4 random bytes as 8 uppercase hex characters.
type CryptoTokenSource struct {
	// Reader defaults to crypto/rand.Reader.
	Reader io.Reader
}

func (s CryptoTokenSource) NewToken() (string, error) {
	reader := s.Reader
	if reader == nil {
		reader = rand.Reader
	}

	buf := make([]byte, 4)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return "", fmt.Errorf("read token entropy: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// NormalizeToken trims and upper-cases a token typed by an administrator.
func NormalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}
