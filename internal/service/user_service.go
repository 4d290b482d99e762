package service

import (
	"context"
	"strings"

	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/repository"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

const agentListLimit = 500

// UserService manages portal accounts on behalf of admins and the account holders themselves.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// UserListFilter defines admin listing parameters.
type UserListFilter struct {
	Role       *domain.Role
	Active     *bool
	SearchTerm *string
	Limit      int
	Offset     int
}

// UserCreateInput is the admin create payload. An empty password is generated.
type UserCreateInput struct {
	Name     string
	Email    string
	Phone    string
	Role     domain.Role
	Password string
}

// UserUpdateInput carries optional admin edits.
type UserUpdateInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Role     *domain.Role
	Password *string
}

// ProfileInput is the self-service profile payload. Password fields are
// only considered when NewPassword is set.
type ProfileInput struct {
	Name            *string
	Phone           *string
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, bcryptCost int) *UserService {
	return &UserService{users: users, dispatcher: dispatcher, bcryptCost: bcryptCost}
}

// List returns accounts for admins.
func (s *UserService) List(ctx context.Context, p domain.Principal, filter UserListFilter) ([]domain.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, repository.UserFilter{
		Role:       filter.Role,
		Active:     filter.Active,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get returns one account for admins.
func (s *UserService) Get(ctx context.Context, p domain.Principal, id string) (*domain.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.fetch(ctx, id)
}

// Agents lists active accounts that resolve to the agent role.
func (s *UserService) Agents(ctx context.Context, p domain.Principal) ([]domain.User, error) {
	role := domain.RoleAgent
	active := true
	return s.List(ctx, p, UserListFilter{Role: &role, Active: &active, Limit: agentListLimit})
}

// Create adds an account and returns it with the initial password.
func (s *UserService) Create(ctx context.Context, p domain.Principal, input UserCreateInput) (*domain.User, string, error) {
	if err := requireAdmin(p); err != nil {
		return nil, "", err
	}
	name := strings.TrimSpace(input.Name)
	email, emailErr := normalizeEmail(input.Email)
	details := map[string]any{}
	if name == "" {
		details["name"] = "required"
	}
	if emailErr != nil {
		details["email"] = emailErr.Error()
	}
	if !input.Role.Valid() {
		details["role"] = "must be one of admin, agent, customer"
	}
	password := input.Password
	if password == "" {
		password = auth.GeneratePassword()
	} else if len(password) < auth.MinPasswordLength {
		details["password"] = "must be at least 8 characters"
	}
	if len(details) > 0 {
		return nil, "", apperrors.NewValidationError("invalid user", details)
	}

	if err := ensureEmailFree(ctx, s.users, email, ""); err != nil {
		return nil, "", err
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Groups:       domain.GroupsForRole(input.Role),
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, "", apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, "", apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventUserCreated,
		Actor:   events.ActorFrom(p),
		Payload: events.UserCreatedPayload{UserID: user.ID, Role: input.Role},
	})
	return user, password, nil
}

// Update applies admin edits to an account.
func (s *UserService) Update(ctx context.Context, p domain.Principal, id string, input UserUpdateInput) (*domain.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	user, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	details := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name == "" {
			details["name"] = "required"
		} else {
			user.Name = name
		}
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			details["email"] = err.Error()
		} else if email != user.Email {
			if err := ensureEmailFree(ctx, s.users, email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			details["role"] = "must be one of admin, agent, customer"
		} else if user.ID == p.ID && *input.Role != domain.RoleAdmin {
			details["role"] = "you cannot remove your own admin role"
		} else {
			user.Groups = domain.GroupsForRole(*input.Role)
		}
	}
	if input.Password != nil && *input.Password != "" {
		if len(*input.Password) < auth.MinPasswordLength {
			details["password"] = "must be at least 8 characters"
		} else {
			hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
			if err != nil {
				return nil, apperrors.NewInternalError(err)
			}
			user.PasswordHash = hash
		}
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid user", details)
	}
	return user, s.save(ctx, user)
}

// ToggleActive flips the active flag. Admins cannot deactivate themselves.
func (s *UserService) ToggleActive(ctx context.Context, p domain.Principal, id string) (*domain.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if id == p.ID {
		return nil, apperrors.NewValidationError("you cannot deactivate your own account", nil)
	}
	user, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Active = !user.Active
	return user, s.save(ctx, user)
}

// Archive deactivates an account. Admins cannot archive themselves.
func (s *UserService) Archive(ctx context.Context, p domain.Principal, id string) (*domain.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if id == p.ID {
		return nil, apperrors.NewValidationError("you cannot archive your own account", nil)
	}
	user, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return user, nil
	}
	user.Active = false
	return user, s.save(ctx, user)
}

// Profile returns the caller's own account.
func (s *UserService) Profile(ctx context.Context, p domain.Principal) (*domain.User, error) {
	return s.fetch(ctx, p.ID)
}

// UpdateProfile edits the caller's own name and phone and optionally
// changes the password after verifying the old one.
func (s *UserService) UpdateProfile(ctx context.Context, p domain.Principal, input ProfileInput) (*domain.User, error) {
	user, err := s.fetch(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	details := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name == "" {
			details["name"] = "required"
		} else {
			user.Name = name
		}
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.NewPassword != "" {
		switch {
		case auth.ComparePassword(user.PasswordHash, input.OldPassword) != nil:
			details["old_password"] = "is incorrect"
		case len(input.NewPassword) < auth.MinPasswordLength:
			details["new_password"] = "must be at least 8 characters"
		case input.NewPassword != input.ConfirmPassword:
			details["confirm_password"] = "does not match"
		default:
			hash, err := auth.HashPassword(input.NewPassword, s.bcryptCost)
			if err != nil {
				return nil, apperrors.NewInternalError(err)
			}
			user.PasswordHash = hash
		}
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid profile", details)
	}
	return user, s.save(ctx, user)
}

func (s *UserService) fetch(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": id})
	}
	return user, nil
}

func (s *UserService) save(ctx context.Context, user *domain.User) error {
	if err := s.users.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return apperrors.NotFoundOr(err, "user", map[string]any{"user_id": user.ID})
	}
	return nil
}
