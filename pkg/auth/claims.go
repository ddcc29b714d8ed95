package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims is the typed JWT issued by the local identity backend.
// The subject carries the account id.
type AccessTokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
