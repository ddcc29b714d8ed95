package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftride/users-backend/pkg/config"
	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
	"github.com/swiftride/users-backend/pkg/logger"
)

func newTestFirebaseProvider(t *testing.T, handler http.HandlerFunc) *FirebaseProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logg := logger.New(logger.Options{ServiceName: "identity-test", Output: io.Discard})
	provider, err := NewFirebaseProvider(context.Background(), config.GoogleConfig{APIKey: "test-key"}, logg)
	require.NoError(t, err)
	provider.baseURL = server.URL
	provider.httpClient = server.Client()
	return provider
}

func toolkitError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, status, message)
}

func TestFirebaseCreateAccountReturnsAccountID(t *testing.T) {
	provider := newTestFirebaseProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "accounts:signUp")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ada@example.com", payload["email"])

		fmt.Fprint(w, `{"localId":"acct-1","idToken":"tok"}`)
	})

	accountID, err := provider.CreateAccount(context.Background(), "ada@example.com", "secret1", "Ada Okafor", "+15550100")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", accountID)
}

func TestFirebaseCreateAccountDuplicateEmailIsConflict(t *testing.T) {
	provider := newTestFirebaseProvider(t, func(w http.ResponseWriter, r *http.Request) {
		toolkitError(w, http.StatusBadRequest, "EMAIL_EXISTS")
	})

	_, err := provider.CreateAccount(context.Background(), "ada@example.com", "secret1", "", "")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestFirebaseWeakPasswordIsValidation(t *testing.T) {
	provider := newTestFirebaseProvider(t, func(w http.ResponseWriter, r *http.Request) {
		toolkitError(w, http.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters")
	})

	_, err := provider.CreateAccount(context.Background(), "ada@example.com", "x", "", "")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestFirebaseCredentialFailuresCollapse(t *testing.T) {
	messages := []string{"EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS"}
	var seen []string
	for _, message := range messages {
		provider := newTestFirebaseProvider(t, func(w http.ResponseWriter, r *http.Request) {
			toolkitError(w, http.StatusBadRequest, message)
		})
		_, err := provider.VerifyCredentials(context.Background(), "ada@example.com", "wrong")
		require.Error(t, err)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
		seen = append(seen, err.Error())
	}
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, seen[0], seen[2])
}

func TestFirebaseUnknownErrorIsUpstream(t *testing.T) {
	provider := newTestFirebaseProvider(t, func(w http.ResponseWriter, r *http.Request) {
		toolkitError(w, http.StatusInternalServerError, "BACKEND_ERROR")
	})

	_, err := provider.VerifyCredentials(context.Background(), "ada@example.com", "secret1")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUpstream))
}

func TestFirebaseIssueTokenWithoutServiceAccountFails(t *testing.T) {
	requested := false
	provider := newTestFirebaseProvider(t, func(w http.ResponseWriter, r *http.Request) {
		requested = true
		toolkitError(w, http.StatusInternalServerError, "BACKEND_ERROR")
	})

	_, err := provider.IssueTokenForAccount(context.Background(), "acct-1")
	assert.False(t, requested)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUpstream))
}
