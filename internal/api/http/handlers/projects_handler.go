package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/service"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// ProjectsHandler serves project and configuration CRUD.
type ProjectsHandler struct {
	projects *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projectService *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projectService}
}

// List GET /projects.
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	projects, err := h.projects.List(c.UserContext(), p)
	if err != nil {
		return err
	}
	out := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, projectResponse(&projects[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get GET /projects/:id.
func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "project")
	if err != nil {
		return err
	}
	project, err := h.projects.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// Create POST /projects.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	input, err := parseProjectRequest(c)
	if err != nil {
		return err
	}
	project, err := h.projects.Create(c.UserContext(), p, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": projectResponse(project)})
}

// Update PUT /projects/:id.
func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "project")
	if err != nil {
		return err
	}
	input, err := parseProjectRequest(c)
	if err != nil {
		return err
	}
	project, err := h.projects.Update(c.UserContext(), p, id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// Delete DELETE /projects/:id.
func (h *ProjectsHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "project")
	if err != nil {
		return err
	}
	if err := h.projects.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseProjectRequest(c *fiber.Ctx) (service.ProjectInput, error) {
	var req dto.ProjectRequest
	if err := parseBody(c, &req); err != nil {
		return service.ProjectInput{}, err
	}
	input := service.ProjectInput{
		Name:                 req.Name,
		Code:                 req.Code,
		Description:          req.Description,
		Active:               req.Active,
		ProjectType:          req.ProjectType,
		ProgrammingLanguages: req.ProgrammingLanguages,
		Frameworks:           req.Frameworks,
		Databases:            req.Databases,
		ProjectGoals:         req.ProjectGoals,
		Compliance: domain.Compliance{
			GDPR:     req.Compliance.GDPR,
			HIPAA:    req.Compliance.HIPAA,
			PCIDSS:   req.Compliance.PCIDSS,
			ISO27001: req.Compliance.ISO27001,
		},
	}
	details := map[string]any{}
	if s := strings.TrimSpace(req.StartDate); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			input.StartDate = &t
		} else {
			details["start_date"] = "must be YYYY-MM-DD"
		}
	}
	if s := strings.TrimSpace(req.EndDate); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			input.EndDate = &t
		} else {
			details["end_date"] = "must be YYYY-MM-DD"
		}
	}
	if len(details) > 0 {
		return service.ProjectInput{}, apperrors.NewValidationError("invalid project", details)
	}
	return input, nil
}

func projectResponse(project *domain.Project) dto.ProjectResponse {
	resp := dto.ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Code:        project.Code,
		Description: project.Description,
		Active:      project.Active,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
	if cfg := project.Config; cfg != nil {
		out := &dto.ProjectConfigResponse{
			ProjectType:          cfg.ProjectType,
			StartDate:            cfg.StartDate.Format(time.DateOnly),
			ProgrammingLanguages: cfg.ProgrammingLanguages,
			Frameworks:           cfg.Frameworks,
			Databases:            cfg.Databases,
			ProjectGoals:         cfg.ProjectGoals,
			Compliance: dto.ComplianceFlags{
				GDPR:     cfg.Compliance.GDPR,
				HIPAA:    cfg.Compliance.HIPAA,
				PCIDSS:   cfg.Compliance.PCIDSS,
				ISO27001: cfg.Compliance.ISO27001,
			},
		}
		if cfg.EndDate != nil {
			end := cfg.EndDate.Format(time.DateOnly)
			out.EndDate = &end
		}
		resp.Config = out
	}
	return resp
}
