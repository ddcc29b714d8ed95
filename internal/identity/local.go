package identity

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swiftride/users-backend/pkg/auth"
	"github.com/swiftride/users-backend/pkg/config"
	"github.com/swiftride/users-backend/pkg/db"
	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
	"github.com/swiftride/users-backend/pkg/logger"
	"github.com/swiftride/users-backend/pkg/security"
)

// minPasswordLength mirrors the hosted provider's weakest accepted password.
const minPasswordLength = 6

// Account is the credential record of the database-backed provider.
type Account struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Email        string    `gorm:"column:email"`
	PasswordHash string    `gorm:"column:password_hash"`
	DisplayName  string    `gorm:"column:display_name"`
	Phone        string    `gorm:"column:phone"`
	Disabled     bool      `gorm:"column:disabled"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (Account) TableName() string { return "accounts" }

// LocalProvider keeps credentials in the service database, hashes passwords
// with argon2id, and mints HS256 bearer tokens. It stands in for the hosted
// identity platform in development and tests.
type LocalProvider struct {
	client *db.Client
	jwtCfg config.JWTConfig
	pwCfg  config.PasswordConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewLocalProvider validates the signing configuration and builds the provider.
func NewLocalProvider(client *db.Client, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig, logg *logger.Logger) (*LocalProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("database client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("identity logger required")
	}
	if strings.TrimSpace(jwtCfg.Secret) == "" {
		return nil, fmt.Errorf("jwt secret is required for the local identity provider")
	}
	return &LocalProvider{
		client: client,
		jwtCfg: jwtCfg,
		pwCfg:  pwCfg,
		logger: logg,
		now:    time.Now,
	}, nil
}

func (p *LocalProvider) CreateAccount(ctx context.Context, email, password, displayName, phone string) (string, error) {
	normalized := normalizeEmail(email)
	if !strings.Contains(normalized, "@") {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email address is invalid")
	}
	if len(password) < minPasswordLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "password does not meet the strength requirements")
	}

	var existing Account
	err := p.client.DB().WithContext(ctx).Where("LOWER(email) = ?", normalized).First(&existing).Error
	if err == nil {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
	}
	if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return "", pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "account lookup failed")
	}

	hash, err := security.HashPassword(password, p.pwCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password failed")
	}

	now := p.now().UTC()
	account := Account{
		ID:           uuid.NewString(),
		Email:        normalized,
		PasswordHash: hash,
		DisplayName:  displayName,
		Phone:        phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.client.DB().WithContext(ctx).Create(&account).Error; err != nil {
		// The lookup above races with concurrent signups; the unique index
		// on email is the authority.
		if db.IsUniqueViolation(err, "") {
			return "", pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "account creation failed")
	}
	return account.ID, nil
}

func (p *LocalProvider) VerifyCredentials(ctx context.Context, email, password string) (Session, error) {
	var account Account
	err := p.client.DB().WithContext(ctx).Where("LOWER(email) = ?", normalizeEmail(email)).First(&account).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return Session{}, invalidCredentials()
		}
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "account lookup failed")
	}
	if account.Disabled {
		return Session{}, invalidCredentials()
	}
	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		return Session{}, invalidCredentials()
	}

	token, err := auth.MintAccessToken(p.jwtCfg, p.now(), account.ID, account.Email)
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "token minting failed")
	}
	return Session{AccountID: account.ID, Token: token}, nil
}

func (p *LocalProvider) IssueTokenForAccount(ctx context.Context, accountID string) (string, error) {
	account, err := p.findByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	token, err := auth.MintAccessToken(p.jwtCfg, p.now(), account.ID, account.Email)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "token minting failed")
	}
	return token, nil
}

func (p *LocalProvider) UpdateAccountProfile(ctx context.Context, accountID, displayName, phone string) error {
	result := p.client.DB().WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"display_name": displayName,
			"phone":        phone,
			"updated_at":   p.now().UTC(),
		})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, result.Error, "account update failed")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return nil
}

func (p *LocalProvider) DeleteAccount(ctx context.Context, accountID string) error {
	result := p.client.DB().WithContext(ctx).Where("id = ?", accountID).Delete(&Account{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, result.Error, "account deletion failed")
	}
	return nil
}

// VerifyToken resolves a bearer token minted by this provider back to its
// account id, satisfying TokenVerifier.
func (p *LocalProvider) VerifyToken(ctx context.Context, token string) (string, error) {
	claims, err := auth.ParseAccessToken(p.jwtCfg, token)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid bearer token")
	}
	return claims.Subject, nil
}

func (p *LocalProvider) findByID(ctx context.Context, accountID string) (Account, error) {
	var account Account
	err := p.client.DB().WithContext(ctx).Where("id = ?", accountID).First(&account).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return Account{}, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return Account{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "account lookup failed")
	}
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
