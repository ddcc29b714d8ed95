package auth

import (
	"github.com/swiftride/users-backend/internal/users"
)

// SignupRequest captures the fields required to open an account.
type SignupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse pairs a bearer token with the caller's aggregate.
type AuthResponse struct {
	Token string             `json:"token"`
	User  *users.UserProfile `json:"user"`
}
