package auth

import "rotavault/internal/domain/models"

// TokenVerifier defines the interface for access-token verification.
// This abstraction keeps the middleware agnostic to how tokens are
// verified, so tests can swap in a static verifier.
type TokenVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.AccessClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}
