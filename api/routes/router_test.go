package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftride/users-backend/internal/auth"
	"github.com/swiftride/users-backend/internal/identity"
	"github.com/swiftride/users-backend/internal/users"
	"github.com/swiftride/users-backend/pkg/config"
	"github.com/swiftride/users-backend/pkg/db"
	"github.com/swiftride/users-backend/pkg/docstore"
	"github.com/swiftride/users-backend/pkg/logger"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})

	store := docstore.NewMemoryStore()
	assembler, err := users.NewAssembler(store)
	require.NoError(t, err)
	writer, err := users.NewWriter(store, assembler)
	require.NoError(t, err)

	client, err := db.New(context.Background(), config.DBConfig{DSN: ":memory:"}, true, logg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(&identity.Account{}))

	provider, err := identity.NewLocalProvider(client, config.JWTConfig{
		Secret:            "routes-test-secret",
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

	authService, err := auth.NewService(auth.ServiceParams{
		Provider:  provider,
		Writer:    writer,
		Assembler: assembler,
		Logger:    logg,
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Env = "test"

	return NewRouter(RouterParams{
		Config:    cfg,
		Logger:    logg,
		Assembler: assembler,
		Writer:    writer,
		Auth:      authService,
		Verifier:  provider,
	})
}

func doJSON(t *testing.T, router http.Handler, method, target string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signupPayload(email string) map[string]any {
	return map[string]any{
		"email":       email,
		"password":    "secret1",
		"firstName":   "Ada",
		"lastName":    "Okafor",
		"phoneNumber": "+15550100",
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/users/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSignupThenOnboardingEndToEnd(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/users/signup", signupPayload("ada@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var signup struct {
		Token string             `json:"token"`
		User  *users.UserProfile `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signup))
	require.NotEmpty(t, signup.Token)
	require.NotNil(t, signup.User)
	assert.Equal(t, "Ada", signup.User.FirstName)
	assert.Equal(t, "rider", string(signup.User.UserType))
	assert.False(t, signup.User.OnboardingCompleted)
	assert.Nil(t, signup.User.Driver)

	// isActive and capacity are deliberately omitted; the request decoder
	// must default them to true and 4.
	onboarding := map[string]any{
		"isDriver": true,
		"userType": "driver",
		"driverDetails": map[string]any{
			"licenseNumber": "DL-77",
			"vehicles": []map[string]any{
				{"vehicleId": "v1", "make": "Toyota", "model": "Corolla", "year": 2020, "licensePlate": "XYZ123"},
			},
		},
	}
	rec = doJSON(t, router, http.MethodPost, "/users/onboarding", onboarding, map[string]string{
		"X-User-Id": signup.User.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated users.UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.OnboardingCompleted)
	assert.Equal(t, "driver", string(updated.UserType))
	require.NotNil(t, updated.Driver)
	assert.True(t, updated.Driver.IsActive)
	assert.Equal(t, "DL-77", updated.Driver.LicenseNumber)
	require.Len(t, updated.Driver.Vehicles, 1)
	assert.Equal(t, "v1", updated.Driver.Vehicles[0].VehicleID)
	assert.Equal(t, 4, updated.Driver.Vehicles[0].Capacity)

	// A bearer token resolves to the same identity as the header.
	rec = doJSON(t, router, http.MethodGet, "/users/", nil, map[string]string{
		"Authorization": "Bearer " + signup.Token,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me users.UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, signup.User.ID, me.ID)
	require.NotNil(t, me.Driver)
}

func TestDuplicateSignupConflicts(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/users/signup", signupPayload("dup@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/users/signup", signupPayload("dup@example.com"), nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	var errBody struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.NotEmpty(t, errBody.Detail)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/users/signup", signupPayload("known@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	wrongPassword := doJSON(t, router, http.MethodPost, "/users/login", map[string]any{
		"email": "known@example.com", "password": "wrong-password",
	}, nil)
	unknownEmail := doJSON(t, router, http.MethodPost, "/users/login", map[string]any{
		"email": "ghost@example.com", "password": "whatever1",
	}, nil)

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestLoginReturnsAggregate(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/users/signup", signupPayload("login@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/users/login", map[string]any{
		"email": "login@example.com", "password": "secret1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		Token string             `json:"token"`
		User  *users.UserProfile `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Token)
	require.NotNil(t, login.User)
	assert.Equal(t, "login@example.com", login.User.Email)
}

func TestAnonymousProfileAccessRejected(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/users/", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing user ID")
}

func TestListUsersReturnsEveryone(t *testing.T) {
	router := newTestRouter(t)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		rec := doJSON(t, router, http.MethodPost, "/users/signup", signupPayload(email), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, router, http.MethodGet, "/users/all", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []users.UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}
