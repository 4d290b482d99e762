package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// ProjectService manages projects and their configuration.
type ProjectService struct {
	projects repository.ProjectRepository
	tickets  repository.TicketRepository
}

// ProjectInput carries the editable fields of a project and its config.
type ProjectInput struct {
	Name                 string
	Code                 string
	Description          string
	Active               *bool
	ProjectType          domain.ProjectType
	StartDate            *time.Time
	EndDate              *time.Time
	ProgrammingLanguages string
	Frameworks           string
	Databases            string
	ProjectGoals         string
	Compliance           domain.Compliance
}

// NewProjectService constructs the service.
func NewProjectService(projects repository.ProjectRepository, tickets repository.TicketRepository) *ProjectService {
	return &ProjectService{projects: projects, tickets: tickets}
}

func requireAdmin(p domain.Principal) error {
	if !p.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// List returns projects; non-admins only see active ones.
func (s *ProjectService) List(ctx context.Context, p domain.Principal) ([]domain.Project, error) {
	projects, err := s.projects.List(ctx, !p.IsAdmin())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return projects, nil
}

// Get returns a single project.
func (s *ProjectService) Get(ctx context.Context, p domain.Principal, id string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "project", map[string]any{"project_id": id})
	}
	if !project.Active && !p.IsAdmin() {
		return nil, apperrors.NewNotFound("project", map[string]any{"project_id": id})
	}
	return project, nil
}

// Create adds a project with its configuration.
func (s *ProjectService) Create(ctx context.Context, p domain.Principal, input ProjectInput) (*domain.Project, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	project := &domain.Project{Active: true, Config: &domain.ProjectConfig{}}
	if err := applyProjectInput(project, input); err != nil {
		return nil, err
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, projectWriteError(err, project.Code)
	}
	return project, nil
}

// Update rewrites a project and upserts its configuration.
func (s *ProjectService) Update(ctx context.Context, p domain.Principal, id string, input ProjectInput) (*domain.Project, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "project", map[string]any{"project_id": id})
	}
	if project.Config == nil {
		project.Config = &domain.ProjectConfig{ProjectID: project.ID}
	}
	if err := applyProjectInput(project, input); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, projectWriteError(err, project.Code)
	}
	return project, nil
}

// Delete removes a project that no ticket references.
func (s *ProjectService) Delete(ctx context.Context, p domain.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	count, err := s.tickets.CountByProject(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if count > 0 {
		return apperrors.NewConflict("project has tickets", map[string]any{"project_id": id, "tickets": count})
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return apperrors.NotFoundOr(err, "project", map[string]any{"project_id": id})
	}
	return nil
}

func applyProjectInput(project *domain.Project, input ProjectInput) error {
	details := map[string]any{}
	name := strings.TrimSpace(input.Name)
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if name == "" {
		details["name"] = "required"
	}
	if code == "" {
		details["code"] = "required"
	}
	if !input.ProjectType.Valid() {
		details["project_type"] = "must be one of web_app, mobile, machine_learning, iot, api, other"
	}
	if input.StartDate == nil {
		details["start_date"] = "required"
	} else if input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		details["end_date"] = "must not be before start_date"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid project", details)
	}

	project.Name = name
	project.Code = code
	project.Description = strings.TrimSpace(input.Description)
	if input.Active != nil {
		project.Active = *input.Active
	}
	cfg := project.Config
	cfg.ProjectType = input.ProjectType
	cfg.StartDate = *input.StartDate
	cfg.EndDate = input.EndDate
	cfg.ProgrammingLanguages = strings.TrimSpace(input.ProgrammingLanguages)
	cfg.Frameworks = strings.TrimSpace(input.Frameworks)
	cfg.Databases = strings.TrimSpace(input.Databases)
	cfg.ProjectGoals = strings.TrimSpace(input.ProjectGoals)
	cfg.Compliance = input.Compliance
	return nil
}

func projectWriteError(err error, code string) error {
	if repository.IsUniqueViolation(err) {
		return apperrors.NewConflict("project code already exists", map[string]any{"code": code})
	}
	return apperrors.NotFoundOr(err, "project", nil)
}
