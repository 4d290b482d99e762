package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository/mocks"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

func newTestApp(t *testing.T, users *mocks.UserRepository, tm *TokenManager, guards ...fiber.Handler) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tm, users).Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		p, ok := PrincipalFromContext(c)
		require.True(t, ok)
		return c.SendString(string(p.Role))
	})
	app.Get("/", handlers...)
	return app
}

func request(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestMiddlewareResolvesRoleFromStoredGroups(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	users := &mocks.UserRepository{}
	users.On("GetByID", mock.Anything, "u-1").Return(&domain.User{
		ID: "u-1", Active: true, Groups: []string{domain.GroupPortal, domain.GroupSystem},
	}, nil)
	token, _, err := tm.GenerateToken("u-1")
	require.NoError(t, err)

	resp := request(t, newTestApp(t, users, tm), token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejections(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	token, _, err := tm.GenerateToken("u-1")
	require.NoError(t, err)

	cases := []struct {
		name   string
		token  string
		user   *domain.User
		err    error
		status int
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "garbage token", token: "abc", status: http.StatusUnauthorized},
		{name: "unknown user", token: token, err: pgx.ErrNoRows, status: http.StatusUnauthorized},
		{name: "inactive user", token: token, user: &domain.User{ID: "u-1", Groups: []string{domain.GroupUser}}, status: http.StatusUnauthorized},
		{name: "no portal group", token: token, user: &domain.User{ID: "u-1", Active: true}, status: http.StatusForbidden},
		{name: "repository failure", token: token, err: errors.New("db down"), status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := &mocks.UserRepository{}
			users.On("GetByID", mock.Anything, "u-1").Return(tc.user, tc.err).Maybe()

			resp := request(t, newTestApp(t, users, tm), tc.token)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	token, _, err := tm.GenerateToken("u-1")
	require.NoError(t, err)

	users := &mocks.UserRepository{}
	users.On("GetByID", mock.Anything, "u-1").Return(&domain.User{
		ID: "u-1", Active: true, Groups: []string{domain.GroupUser},
	}, nil)

	resp := request(t, newTestApp(t, users, tm, RequireRole(domain.RoleAdmin)), token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = request(t, newTestApp(t, users, tm, RequireRole(domain.RoleAdmin, domain.RoleAgent)), token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, newTestApp(t, users, tm, RequireAuthenticated()), token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
