package api

import (
	"crypto/subtle"
	"sync"
)

// AuthProvider validates bearer tokens for the operations endpoint.
// An empty token set rejects everything.
type AuthProvider struct {
	mu     sync.RWMutex
	tokens []string
}

// NewAuthProvider creates a provider from the configured token list.
func NewAuthProvider(tokens []string) *AuthProvider {
	p := &AuthProvider{}
	p.Replace(tokens)
	return p
}

// Authenticate reports whether the token is valid. Comparison is
// constant-time per candidate token.
func (a *AuthProvider) Authenticate(token string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, valid := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(valid)) == 1 {
			return true
		}
	}
	return false
}

// Replace swaps the full token set, dropping empty entries.
func (a *AuthProvider) Replace(tokens []string) {
	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token != "" {
			cleaned = append(cleaned, token)
		}
	}

	a.mu.Lock()
	a.tokens = cleaned
	a.mu.Unlock()
}

// HasTokens reports whether any token is configured.
func (a *AuthProvider) HasTokens() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.tokens) > 0
}
