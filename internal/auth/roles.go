package auth

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/domain"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// RequireRole ensures the principal resolved to one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) > 0 && !slices.Contains(allowed, principal.Role) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a principal is present.
func RequireAuthenticated() fiber.Handler {
	return RequireRole()
}
