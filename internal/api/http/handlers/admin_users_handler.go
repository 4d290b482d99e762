package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/service"
)

// AdminUsersHandler serves account management for administrators.
type AdminUsersHandler struct {
	users *service.UserService
}

// NewAdminUsersHandler constructs handler.
func NewAdminUsersHandler(userService *service.UserService) *AdminUsersHandler {
	return &AdminUsersHandler{users: userService}
}

// List GET /admin/users?role=&active=&q=.
func (h *AdminUsersHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter := service.UserListFilter{SearchTerm: optionalString(c.Query("q"))}
	if role := domain.Role(strings.TrimSpace(c.Query("role"))); role != "" {
		filter.Role = &role
	}
	switch c.Query("active") {
	case "true":
		active := true
		filter.Active = &active
	case "false":
		active := false
		filter.Active = &active
	}
	filter.Limit, filter.Offset = paging(c)

	users, err := h.users.List(c.UserContext(), p, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(users)})
}

// Agents GET /admin/agents.
func (h *AdminUsersHandler) Agents(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	users, err := h.users.Agents(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(users)})
}

// Get GET /admin/users/:id.
func (h *AdminUsersHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Create POST /admin/users.
func (h *AdminUsersHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AdminUserCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, password, err := h.users.Create(c.UserContext(), p, service.UserCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreatedUserResponse{
		User:     userResponse(user),
		Password: password,
	}})
}

// Update PUT /admin/users/:id.
func (h *AdminUsersHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	var req dto.AdminUserUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), p, id, service.UserUpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Toggle POST /admin/users/:id/toggle.
func (h *AdminUsersHandler) Toggle(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	user, err := h.users.ToggleActive(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Archive POST /admin/users/:id/archive.
func (h *AdminUsersHandler) Archive(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	user, err := h.users.Archive(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func userResponses(users []domain.User) []dto.UserResponse {
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i]))
	}
	return out
}
