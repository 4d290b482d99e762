package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/service"
)

// UsersHandler exposes authentication and self-service account endpoints.
type UsersHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// Me handles GET /auth/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PrincipalResponse{
		ID:    p.ID,
		Name:  p.Name,
		Email: p.Email,
		Role:  p.Role,
	}})
}

// UpdateProfile handles PUT /profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.UserContext(), p, service.ProfileInput{
		Name:            req.Name,
		Phone:           req.Phone,
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func sessionResponse(session *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		User: userResponse(session.User),
		Auth: dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	role, _ := user.Role()
	return dto.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      role,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	}
}
