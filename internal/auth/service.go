package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/swiftride/users-backend/internal/identity"
	"github.com/swiftride/users-backend/internal/users"
	"github.com/swiftride/users-backend/pkg/enums"
	"github.com/swiftride/users-backend/pkg/logger"
)

// Service sequences identity-provider calls with aggregate reads and writes.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
}

type aggregateWriter interface {
	Create(ctx context.Context, profile users.UserProfile) (*users.UserProfile, error)
}

type aggregateAssembler interface {
	Assemble(ctx context.Context, userID string) (*users.UserProfile, error)
}

type service struct {
	provider  identity.Provider
	writer    aggregateWriter
	assembler aggregateAssembler
	logger    *logger.Logger
	now       func() time.Time
}

// ServiceParams bundles the dependencies required to build the orchestrator.
type ServiceParams struct {
	Provider  identity.Provider
	Writer    aggregateWriter
	Assembler aggregateAssembler
	Logger    *logger.Logger
}

// NewService validates the dependency set and builds the orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Provider == nil {
		return nil, fmt.Errorf("identity provider required")
	}
	if params.Writer == nil {
		return nil, fmt.Errorf("aggregate writer required")
	}
	if params.Assembler == nil {
		return nil, fmt.Errorf("aggregate assembler required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		provider:  params.Provider,
		writer:    params.Writer,
		assembler: params.Assembler,
		logger:    params.Logger,
		now:       time.Now,
	}, nil
}

// Signup walks account creation, token issuance, and the profile write in
// strict sequence. When the profile write fails after the account exists,
// the account is deleted best-effort; a failed cleanup is logged and the
// caller still sees the original store error.
func (s *service) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	displayName := strings.TrimSpace(req.FirstName + " " + req.LastName)
	accountID, err := s.provider.CreateAccount(ctx, req.Email, req.Password, displayName, req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	token, err := s.provider.IssueTokenForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	profile := users.UserProfile{
		ID:          accountID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserType:    enums.UserTypeRider,
	}

	created, err := s.writer.Create(ctx, profile)
	if err != nil {
		cleanupCtx := s.logger.WithUserID(ctx, accountID)
		if cleanupErr := s.provider.DeleteAccount(ctx, accountID); cleanupErr != nil {
			s.logger.Error(cleanupCtx, "signup compensation failed, account is orphaned", cleanupErr)
		} else {
			s.logger.Warn(cleanupCtx, "signup rolled back, account deleted after store failure")
		}
		return nil, err
	}

	s.logger.Info(s.logger.WithUserID(ctx, accountID), "user signed up")
	return &AuthResponse{Token: token, User: created}, nil
}

// Login verifies credentials and reads the aggregate back. A missing
// aggregate surfaces as NotFound; the stores are left inconsistent rather
// than repaired here.
func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	session, err := s.provider.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	profile, err := s.assembler.Assemble(ctx, session.AccountID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.logger.WithUserID(ctx, session.AccountID), "user logged in")
	return &AuthResponse{Token: session.Token, User: profile}, nil
}
