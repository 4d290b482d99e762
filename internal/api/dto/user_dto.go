package dto

import (
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse contains the issued access token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionResponse pairs the account with its token.
type SessionResponse struct {
	User UserResponse `json:"user"`
	Auth AuthResponse `json:"auth"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

// PrincipalResponse describes the caller.
type PrincipalResponse struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// ProfileRequest payload for PUT /profile.
type ProfileRequest struct {
	Name            *string `json:"name"`
	Phone           *string `json:"phone"`
	OldPassword     string  `json:"old_password"`
	NewPassword     string  `json:"new_password"`
	ConfirmPassword string  `json:"confirm_password"`
}

// AdminUserCreateRequest payload. An empty password is generated.
type AdminUserCreateRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Phone    string      `json:"phone"`
	Role     domain.Role `json:"role"`
	Password string      `json:"password"`
}

// AdminUserUpdateRequest payload; nil fields are left unchanged.
type AdminUserUpdateRequest struct {
	Name     *string      `json:"name"`
	Email    *string      `json:"email"`
	Phone    *string      `json:"phone"`
	Role     *domain.Role `json:"role"`
	Password *string      `json:"password"`
}

// CreatedUserResponse returns the initial password once.
type CreatedUserResponse struct {
	User     UserResponse `json:"user"`
	Password string       `json:"password"`
}
