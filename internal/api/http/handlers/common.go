package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/domain"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func principal(c *fiber.Ctx) (domain.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Principal{}, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

// pathID returns the named route parameter; malformed ids are reported as missing resources.
func pathID(c *fiber.Ctx, resource string) (string, error) {
	raw := c.Params("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperrors.NewNotFound(resource, map[string]any{"id": raw})
	}
	return id.String(), nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parseList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t
	}
	if t, err := time.Parse(time.DateOnly, val); err == nil {
		return &t
	}
	return nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func optionalString(val string) *string {
	if val = strings.TrimSpace(val); val == "" {
		return nil
	}
	return &val
}

func paging(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	limit = parseInt(c.Query("page_size"), defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, (page - 1) * limit
}
