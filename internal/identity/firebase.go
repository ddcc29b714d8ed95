package identity

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/swiftride/users-backend/pkg/config"
	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
	"github.com/swiftride/users-backend/pkg/logger"
)

const (
	identityToolkitBaseURL = "https://identitytoolkit.googleapis.com/v1"
	customTokenAudience    = "https://identitytoolkit.googleapis.com/google.identity.identitytoolkit.v1.IdentityToolkit"
	customTokenTTL         = time.Hour
)

// FirebaseProvider talks to the Google Identity Toolkit REST API. Password
// flows use the web API key; account management for an arbitrary uid mints a
// service-account custom token first and acts as that user.
type FirebaseProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	saEmail    string
	saKey      *rsa.PrivateKey
	logger     *logger.Logger
}

type serviceAccountFile struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// NewFirebaseProvider validates the Google credentials and builds the
// provider. The service-account file is optional; without it only the
// password flows are available.
func NewFirebaseProvider(ctx context.Context, cfg config.GoogleConfig, logg *logger.Logger) (*FirebaseProvider, error) {
	if logg == nil {
		return nil, fmt.Errorf("identity logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("firebase web API key is required")
	}

	provider := &FirebaseProvider{
		apiKey:     apiKey,
		baseURL:    identityToolkitBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logg,
	}

	if path := strings.TrimSpace(cfg.ApplicationCredentials); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading service account file: %w", err)
		}
		var sa serviceAccountFile
		if err := json.Unmarshal(raw, &sa); err != nil {
			return nil, fmt.Errorf("parsing service account file: %w", err)
		}
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("parsing service account key: %w", err)
		}
		provider.saEmail = sa.ClientEmail
		provider.saKey = key
	}

	logg.Info(ctx, "firebase identity provider initialized")
	return provider, nil
}

func (p *FirebaseProvider) CreateAccount(ctx context.Context, email, password, displayName, phone string) (string, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"displayName":       displayName,
		"returnSecureToken": true,
	}
	var out struct {
		LocalID string `json:"localId"`
	}
	if err := p.post(ctx, "accounts:signUp", payload, &out); err != nil {
		return "", err
	}
	return out.LocalID, nil
}

func (p *FirebaseProvider) VerifyCredentials(ctx context.Context, email, password string) (Session, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var out struct {
		LocalID string `json:"localId"`
		IDToken string `json:"idToken"`
	}
	if err := p.post(ctx, "accounts:signInWithPassword", payload, &out); err != nil {
		return Session{}, err
	}
	return Session{AccountID: out.LocalID, Token: out.IDToken}, nil
}

func (p *FirebaseProvider) IssueTokenForAccount(ctx context.Context, accountID string) (string, error) {
	session, err := p.signInAs(ctx, accountID)
	if err != nil {
		return "", err
	}
	return session.Token, nil
}

func (p *FirebaseProvider) UpdateAccountProfile(ctx context.Context, accountID, displayName, phone string) error {
	session, err := p.signInAs(ctx, accountID)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"idToken":           session.Token,
		"displayName":       displayName,
		"returnSecureToken": false,
	}
	return p.post(ctx, "accounts:update", payload, &struct{}{})
}

func (p *FirebaseProvider) DeleteAccount(ctx context.Context, accountID string) error {
	session, err := p.signInAs(ctx, accountID)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) || pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
			return nil
		}
		return err
	}
	return p.post(ctx, "accounts:delete", map[string]any{"idToken": session.Token}, &struct{}{})
}

// signInAs exchanges a freshly minted custom token for an id token belonging
// to the given account.
func (p *FirebaseProvider) signInAs(ctx context.Context, accountID string) (Session, error) {
	customToken, err := p.mintCustomToken(accountID)
	if err != nil {
		return Session{}, err
	}
	payload := map[string]any{
		"token":             customToken,
		"returnSecureToken": true,
	}
	var out struct {
		IDToken string `json:"idToken"`
	}
	if err := p.post(ctx, "accounts:signInWithCustomToken", payload, &out); err != nil {
		return Session{}, err
	}
	return Session{AccountID: accountID, Token: out.IDToken}, nil
}

func (p *FirebaseProvider) mintCustomToken(accountID string) (string, error) {
	if p.saKey == nil {
		return "", pkgerrors.New(pkgerrors.CodeUpstream, "service account credentials are not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": p.saEmail,
		"sub": p.saEmail,
		"aud": customTokenAudience,
		"uid": accountID,
		"iat": now.Unix(),
		"exp": now.Add(customTokenTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(p.saKey)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "signing custom token failed")
	}
	return signed, nil
}

func (p *FirebaseProvider) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding identity request failed")
	}
	url := fmt.Sprintf("%s/%s?key=%s", p.baseURL, endpoint, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building identity request failed")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "identity provider unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "reading identity response failed")
	}
	if resp.StatusCode >= 400 {
		return p.translate(resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decoding identity response failed")
		}
	}
	return nil
}

// translate maps the Identity Toolkit error envelope onto the shared
// taxonomy. Credential failures collapse into one generic answer.
func (p *FirebaseProvider) translate(status int, raw []byte) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(raw, &envelope)
	message := envelope.Error.Message

	switch {
	case message == "EMAIL_EXISTS":
		return pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
	case message == "PHONE_NUMBER_EXISTS":
		return pkgerrors.New(pkgerrors.CodeConflict, "phone number is already registered")
	case message == "INVALID_EMAIL":
		return pkgerrors.New(pkgerrors.CodeValidation, "email address is invalid")
	case strings.HasPrefix(message, "WEAK_PASSWORD"):
		return pkgerrors.New(pkgerrors.CodeValidation, "password does not meet the strength requirements")
	case message == "EMAIL_NOT_FOUND",
		message == "INVALID_PASSWORD",
		message == "INVALID_LOGIN_CREDENTIALS",
		message == "USER_DISABLED":
		return invalidCredentials()
	case message == "USER_NOT_FOUND":
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	case strings.HasPrefix(message, "TOO_MANY_ATTEMPTS"):
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
	default:
		return pkgerrors.New(pkgerrors.CodeUpstream, fmt.Sprintf("identity provider error (status %d)", status)).
			WithDetails(map[string]string{"message": message})
	}
}
