package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/swiftride/users-backend/api/middleware"
	"github.com/swiftride/users-backend/api/responses"
	"github.com/swiftride/users-backend/api/validators"
	"github.com/swiftride/users-backend/internal/users"
	"github.com/swiftride/users-backend/pkg/enums"
	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
	"github.com/swiftride/users-backend/pkg/logger"
)

type userAssembler interface {
	Assemble(ctx context.Context, userID string) (*users.UserProfile, error)
	AssembleAll(ctx context.Context) ([]*users.UserProfile, error)
}

type userWriter interface {
	Create(ctx context.Context, profile users.UserProfile) (*users.UserProfile, error)
	ApplyUpdate(ctx context.Context, userID string, input users.UpdateInput) (*users.UserProfile, error)
}

// CreateUserRequest is the payload for direct profile creation. The id comes
// from the authenticated caller, never from the body.
type CreateUserRequest struct {
	FirstName         string        `json:"firstName" validate:"required"`
	LastName          string        `json:"lastName" validate:"required"`
	Email             string        `json:"email" validate:"required,email"`
	PhoneNumber       string        `json:"phoneNumber" validate:"required"`
	ProfilePictureURL *string       `json:"profilePictureURL,omitempty"`
	UserType          *string       `json:"userType,omitempty" validate:"omitempty,oneof=rider driver"`
	Driver            *users.Driver `json:"driver,omitempty"`
}

// OnboardingRequest carries a role selection plus optional driver details.
// It serves both the onboarding and the profile update endpoints.
type OnboardingRequest struct {
	IsDriver      *bool                `json:"isDriver" validate:"required"`
	UserType      *string              `json:"userType,omitempty" validate:"omitempty,oneof=rider driver"`
	DriverDetails *users.DriverDetails `json:"driverDetails,omitempty"`
}

// CurrentUser returns the caller's assembled aggregate.
func CurrentUser(assembler userAssembler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user ID"))
			return
		}

		profile, err := assembler.Assemble(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// ListUsers returns every stored aggregate.
func ListUsers(assembler userAssembler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := assembler.AssembleAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profiles)
	}
}

// CreateUser persists a profile for the authenticated caller.
func CreateUser(writer userWriter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user ID"))
			return
		}

		var body CreateUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		now := time.Now().UTC()
		profile := users.UserProfile{
			ID:                userID,
			FirstName:         validators.SanitizeString(body.FirstName, 100),
			LastName:          validators.SanitizeString(body.LastName, 100),
			Email:             body.Email,
			PhoneNumber:       validators.SanitizeString(body.PhoneNumber, 32),
			ProfilePictureURL: body.ProfilePictureURL,
			CreatedAt:         now,
			UpdatedAt:         now,
			UserType:          enums.UserTypeRider,
			Driver:            body.Driver,
		}
		if body.UserType != nil {
			profile.UserType = enums.UserType(*body.UserType)
		}

		created, err := writer.Create(r.Context(), profile)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, created)
	}
}

// UpdateProfile applies a partial profile update and returns the fresh
// aggregate.
func UpdateProfile(writer userWriter, logg *logger.Logger) http.HandlerFunc {
	return applyUpdate(writer, logg, false)
}

// Onboarding applies a role selection, marks onboarding complete, and
// returns the fresh aggregate.
func Onboarding(writer userWriter, logg *logger.Logger) http.HandlerFunc {
	return applyUpdate(writer, logg, true)
}

func applyUpdate(writer userWriter, logg *logger.Logger, completeOnboarding bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user ID"))
			return
		}

		var body OnboardingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := users.UpdateInput{
			IsDriver:           *body.IsDriver,
			Driver:             body.DriverDetails,
			CompleteOnboarding: completeOnboarding,
		}
		if body.UserType != nil {
			userType := enums.UserType(*body.UserType)
			input.UserType = &userType
		}

		updated, err := writer.ApplyUpdate(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
