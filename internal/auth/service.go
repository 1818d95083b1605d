package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

const invalidCredentialsMessage = "Invalid credentials"

type userStore interface {
	Create(ctx context.Context, user users.User) error
	FindByUsername(ctx context.Context, username string) (*users.User, error)
	UpdatePassword(ctx context.Context, id, password string) error
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Username string
	Password string
	Email    string
}

// LoginInput is the sign-in payload.
type LoginInput struct {
	Username string
	Password string
}

// Service registers and authenticates shoppers.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*users.Public, error)
	Login(ctx context.Context, input LoginInput) (*users.Public, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users          userStore
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type service struct {
	users  userStore
	hasher *security.Hasher
	logg   *logger.Logger
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{users: params.Users, hasher: security.NewHasher(params.PasswordConfig), logg: logg}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*users.Public, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" || input.Password == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "All fields are required")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := users.User{
		ID:       uuid.NewString(),
		Username: username,
		Password: hash,
		Email:    email,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Failed to save user")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID), "user.registered")
	public := user.Public()
	return &public, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*users.Public, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Username and password are required")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Failed to read users")
	}

	match, err := s.hasher.Verify(input.Password, user.Password)
	if err != nil || !match.OK {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if match.NeedsRehash {
		s.rehashPassword(ctx, user.ID, input.Password)
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID), "user.login")
	public := user.Public()
	return &public, nil
}

// rehashPassword rewrites a plaintext or outdated record after a successful
// login. Failures only log; the login itself already succeeded.
func (s *service) rehashPassword(ctx context.Context, userID, password string) {
	ctx = s.logg.WithUserID(ctx, userID)
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.users.UpdatePassword(ctx, userID, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "user.password_upgrade_failed")
		return
	}
	s.logg.Info(ctx, "user.password_upgraded")
}
