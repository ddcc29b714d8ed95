package identity

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftride/users-backend/pkg/config"
	"github.com/swiftride/users-backend/pkg/db"
	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
	"github.com/swiftride/users-backend/pkg/logger"
)

func newLocalProvider(t *testing.T) *LocalProvider {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "identity-test", Output: io.Discard})
	client, err := db.New(context.Background(), config.DBConfig{DSN: ":memory:"}, true, logg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(&Account{}))

	provider, err := NewLocalProvider(client, config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "swiftride-test",
		ExpirationMinutes: 60,
	}, config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}, logg)
	require.NoError(t, err)
	return provider
}

func TestLocalCreateAndVerifyRoundTrip(t *testing.T) {
	provider := newLocalProvider(t)
	ctx := context.Background()

	accountID, err := provider.CreateAccount(ctx, "Ada@Example.com", "secret1", "Ada Okafor", "+15550100")
	require.NoError(t, err)
	require.NotEmpty(t, accountID)

	session, err := provider.VerifyCredentials(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, accountID, session.AccountID)
	assert.NotEmpty(t, session.Token)

	resolved, err := provider.VerifyToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, accountID, resolved)
}

func TestLocalDuplicateEmailIsConflict(t *testing.T) {
	provider := newLocalProvider(t)
	ctx := context.Background()

	_, err := provider.CreateAccount(ctx, "ada@example.com", "secret1", "", "")
	require.NoError(t, err)

	_, err = provider.CreateAccount(ctx, "ADA@example.com", "secret2", "", "")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestLocalCredentialFailuresCollapse(t *testing.T) {
	provider := newLocalProvider(t)
	ctx := context.Background()

	_, err := provider.CreateAccount(ctx, "ada@example.com", "secret1", "", "")
	require.NoError(t, err)

	_, unknownErr := provider.VerifyCredentials(ctx, "ghost@example.com", "secret1")
	require.Error(t, unknownErr)
	assert.True(t, pkgerrors.Is(unknownErr, pkgerrors.CodeUnauthorized))

	_, wrongErr := provider.VerifyCredentials(ctx, "ada@example.com", "not-it")
	require.Error(t, wrongErr)
	assert.True(t, pkgerrors.Is(wrongErr, pkgerrors.CodeUnauthorized))

	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLocalWeakPasswordIsValidation(t *testing.T) {
	provider := newLocalProvider(t)
	_, err := provider.CreateAccount(context.Background(), "ada@example.com", "short", "", "")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestLocalIssueTokenForMissingAccountIsNotFound(t *testing.T) {
	provider := newLocalProvider(t)
	_, err := provider.IssueTokenForAccount(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestLocalUpdateAccountProfile(t *testing.T) {
	provider := newLocalProvider(t)
	ctx := context.Background()

	accountID, err := provider.CreateAccount(ctx, "ada@example.com", "secret1", "Ada", "+15550100")
	require.NoError(t, err)

	require.NoError(t, provider.UpdateAccountProfile(ctx, accountID, "Ada O.", "+15550199"))

	account, err := provider.findByID(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "Ada O.", account.DisplayName)
	assert.Equal(t, "+15550199", account.Phone)

	err = provider.UpdateAccountProfile(ctx, "ghost", "X", "")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestLocalDeleteAccountIsIdempotent(t *testing.T) {
	provider := newLocalProvider(t)
	ctx := context.Background()

	accountID, err := provider.CreateAccount(ctx, "ada@example.com", "secret1", "", "")
	require.NoError(t, err)

	require.NoError(t, provider.DeleteAccount(ctx, accountID))
	require.NoError(t, provider.DeleteAccount(ctx, accountID))

	_, err = provider.IssueTokenForAccount(ctx, accountID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
