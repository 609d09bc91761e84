package auth

import "time"

// TokenIssuer abstracts token creation (e.g., JWT).
// It allows use cases to stay framework-agnostic.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
}

// TokenVerifier resolves a bearer token to its subject.
// Implementations return ErrTokenExpired or ErrInvalidToken.
type TokenVerifier interface {
	Verify(token string) (string, error)
}
