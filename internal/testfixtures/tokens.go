package testfixtures

import (
	"fmt"
	"sync"
)

// TokenSequence is a deterministic application.TokenSource. It hands out the
// preset tokens first, then 00000001, 00000002, and so on.
type TokenSequence struct {
	mu      sync.Mutex
	preset  []string
	counter uint32
	issued  []string
}

// NewTokenSequence returns a sequence that yields preset before counting.
func NewTokenSequence(preset ...string) *TokenSequence {
	return &TokenSequence{preset: append([]string(nil), preset...)}
}

// NewToken returns the next token in the sequence.
func (s *TokenSequence) NewToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var token string
	if len(s.preset) > 0 {
		token, s.preset = s.preset[0], s.preset[1:]
	} else {
		s.counter++
		token = fmt.Sprintf("%08X", s.counter)
	}
	s.issued = append(s.issued, token)
	return token, nil
}

// Issued returns every token handed out so far.
func (s *TokenSequence) Issued() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.issued...)
}
