package middleware

import (
	"net/http"
	"strings"

	"github.com/swiftride/users-backend/api/responses"
	"github.com/swiftride/users-backend/api/validators"
	"github.com/swiftride/users-backend/internal/identity"
	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
	"github.com/swiftride/users-backend/pkg/logger"
)

const userIDHeader = "X-User-Id"

// Identity resolves the caller's account id and seeds the request context
// with it. A bearer token is verified when both a token and a verifier are
// available; otherwise the gateway-injected X-User-Id header is trusted
// as-is.
func Identity(verifier identity.TokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := strings.TrimSpace(r.Header.Get(userIDHeader))
			if authHeader := r.Header.Get("Authorization"); authHeader != "" && verifier != nil {
				token, err := validators.BearerToken(authHeader)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				resolved, err := verifier.VerifyToken(ctx, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid bearer token"))
					return
				}
				userID = resolved
			}

			if userID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user ID"))
				return
			}

			ctx = WithUserID(ctx, userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
