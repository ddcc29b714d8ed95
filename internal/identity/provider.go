// Package identity wraps the external credential service behind one Provider
// contract. Two backends exist: the hosted identity platform used in
// production and a database-backed local provider for development and tests.
package identity

import (
	"context"

	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
)

// Session is the outcome of a successful credential verification or token
// issuance: the account it belongs to plus an opaque bearer token.
type Session struct {
	AccountID string
	Token     string
}

// Provider is the credential service contract. Implementations translate
// their transport failures into the shared error taxonomy before returning.
type Provider interface {
	// CreateAccount registers a durable credential record and returns the
	// new account id. Duplicate emails surface as CodeConflict.
	CreateAccount(ctx context.Context, email, password, displayName, phone string) (string, error)
	// VerifyCredentials checks an email/password pair. Unknown email and
	// wrong password are indistinguishable to the caller.
	VerifyCredentials(ctx context.Context, email, password string) (Session, error)
	// IssueTokenForAccount mints a bearer token for an existing account.
	IssueTokenForAccount(ctx context.Context, accountID string) (string, error)
	// UpdateAccountProfile pushes display name and phone changes to the
	// credential record.
	UpdateAccountProfile(ctx context.Context, accountID, displayName, phone string) error
	// DeleteAccount removes the credential record. Used as the signup
	// compensation step, so deleting an absent account is not an error.
	DeleteAccount(ctx context.Context, accountID string) error
}

// TokenVerifier resolves a bearer token back to the account it was minted
// for. Providers that cannot verify their own tokens do not implement it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (accountID string, err error)
}

// invalidCredentials is the single collapsed authentication failure. The
// message never reveals whether the email or the password was wrong.
func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
