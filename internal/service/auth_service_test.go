package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/config"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository/mocks"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

func newAuthService(users *mocks.UserRepository) *AuthService {
	return NewAuthService(config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 5, BcryptCost: testCost}, users)
}

func TestRegisterCreatesCustomer(t *testing.T) {
	users := &mocks.UserRepository{}
	users.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, pgx.ErrNoRows)
	users.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.User).ID = "u-1"
	}).Return(nil)
	svc := newAuthService(users)

	session, err := svc.Register(context.Background(), RegisterInput{Name: "New", Email: "new@example.com", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, session.Principal.Role)

	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(&mocks.UserRepository{})
	_, err := svc.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "short"})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	details := apperrors.ToDomainError(err).Details
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-pass", testCost)
	require.NoError(t, err)

	users := &mocks.UserRepository{}
	users.On("GetByEmail", mock.Anything, "agent@example.com").Return(&domain.User{
		ID: "u-1", PasswordHash: hash, Groups: []string{domain.GroupUser}, Active: true,
	}, nil)
	users.On("GetByEmail", mock.Anything, "idle@example.com").Return(&domain.User{
		ID: "u-2", PasswordHash: hash, Groups: []string{domain.GroupUser},
	}, nil)
	users.On("GetByEmail", mock.Anything, "nogroup@example.com").Return(&domain.User{
		ID: "u-3", PasswordHash: hash, Active: true,
	}, nil)
	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, pgx.ErrNoRows)
	svc := newAuthService(users)
	ctx := context.Background()

	session, err := svc.Login(ctx, "agent@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, session.Principal.Role)
	assert.NotEmpty(t, session.Token)

	_, err = svc.Login(ctx, "agent@example.com", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = svc.Login(ctx, "idle@example.com", "s3cret-pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = svc.Login(ctx, "nogroup@example.com", "s3cret-pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}
