package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftride/users-backend/internal/auth"
	"github.com/swiftride/users-backend/internal/users"
	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
)

type stubAuthService struct {
	signupResp *auth.AuthResponse
	signupErr  error
	loginResp  *auth.AuthResponse
	loginErr   error
}

func (s stubAuthService) Signup(ctx context.Context, req auth.SignupRequest) (*auth.AuthResponse, error) {
	return s.signupResp, s.signupErr
}

func (s stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
	return s.loginResp, s.loginErr
}

func TestSignupSuccess(t *testing.T) {
	svc := stubAuthService{signupResp: &auth.AuthResponse{
		Token: "tok",
		User:  &users.UserProfile{ID: "acct-1", FirstName: "Ada"},
	}}
	handler := Signup(svc, nil)

	body, _ := json.Marshal(map[string]any{
		"email":       "ada@example.com",
		"password":    "secret1",
		"firstName":   "Ada",
		"lastName":    "Okafor",
		"phoneNumber": "+15550100",
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/signup", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp auth.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tok", resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "acct-1", resp.User.ID)
}

func TestSignupConflictIs409(t *testing.T) {
	svc := stubAuthService{signupErr: pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")}
	handler := Signup(svc, nil)

	body, _ := json.Marshal(map[string]any{
		"email":       "ada@example.com",
		"password":    "secret1",
		"firstName":   "Ada",
		"lastName":    "Okafor",
		"phoneNumber": "+15550100",
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/signup", bytes.NewReader(body)))

	require.Equal(t, http.StatusConflict, rec.Code)
	var errBody struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "email is already registered", errBody.Detail)
}

func TestSignupRejectsMalformedBody(t *testing.T) {
	handler := Signup(stubAuthService{}, nil)

	body, _ := json.Marshal(map[string]any{"email": "not-an-email", "password": "secret1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/signup", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginBadCredentialsIs401(t *testing.T) {
	svc := stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")}
	handler := Login(svc, nil)

	body, _ := json.Marshal(map[string]any{"email": "ada@example.com", "password": "wrong"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/login", bytes.NewReader(body)))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var errBody struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "invalid email or password", errBody.Detail)
}

func TestLoginSuccess(t *testing.T) {
	svc := stubAuthService{loginResp: &auth.AuthResponse{
		Token: "tok",
		User:  &users.UserProfile{ID: "acct-1"},
	}}
	handler := Login(svc, nil)

	body, _ := json.Marshal(map[string]any{"email": "ada@example.com", "password": "secret1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/login", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
}
