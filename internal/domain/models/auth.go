package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the JWT claims structure issued by the identity provider.
// The subject claim carries the resident's user id; Verified reflects the
// admin-managed verification flag mirrored into the token on issue.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Role     string `json:"role"` // "resident" or "admin"
	Verified bool   `json:"verified"`
}

// GetUserID returns the user id from the JWT subject claim.
func (c *AccessClaims) GetUserID() string {
	return c.Subject
}
