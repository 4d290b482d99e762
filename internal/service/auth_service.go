package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/config"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// Session is an issued access token and the account it belongs to.
type Session struct {
	User      *domain.User
	Principal domain.Principal
	Token     string
	ExpiresAt time.Time
}

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	name := strings.TrimSpace(input.Name)
	email, err := normalizeEmail(input.Email)
	details := map[string]any{}
	if name == "" {
		details["name"] = "required"
	}
	if err != nil {
		details["email"] = err.Error()
	}
	if len(input.Password) < auth.MinPasswordLength {
		details["password"] = "must be at least 8 characters"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid registration", details)
	}

	if err := ensureEmailFree(ctx, s.users, email, ""); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Groups:       domain.GroupsForRole(domain.RoleCustomer),
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return s.issue(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("account is inactive")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	principal, ok := user.Principal()
	if !ok {
		return nil, apperrors.NewForbidden("no portal access")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Principal: principal, Token: token, ExpiresAt: exp}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("required")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", errors.New("invalid email address")
	}
	return strings.ToLower(addr.Address), nil
}

// ensureEmailFree rejects email when it belongs to an account other than selfID.
func ensureEmailFree(ctx context.Context, users repository.UserRepository, email, selfID string) error {
	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	default:
		return apperrors.MapError(err)
	}
}
