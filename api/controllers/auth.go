package controllers

import (
	"net/http"

	"github.com/swiftride/users-backend/api/responses"
	"github.com/swiftride/users-backend/api/validators"
	"github.com/swiftride/users-backend/internal/auth"
	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
	"github.com/swiftride/users-backend/pkg/logger"
)

// Signup wires account creation into the HTTP layer.
func Signup(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.SignupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.FirstName = validators.SanitizeString(body.FirstName, 100)
		body.LastName = validators.SanitizeString(body.LastName, 100)
		body.PhoneNumber = validators.SanitizeString(body.PhoneNumber, 32)

		result, err := svc.Signup(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// Login wires credential verification into the HTTP layer.
func Login(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
