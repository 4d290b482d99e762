package dto

import (
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
)

// ComplianceFlags payload.
type ComplianceFlags struct {
	GDPR     bool `json:"gdpr"`
	HIPAA    bool `json:"hipaa"`
	PCIDSS   bool `json:"pci_dss"`
	ISO27001 bool `json:"iso27001"`
}

// ProjectRequest payload for create and update.
type ProjectRequest struct {
	Name                 string             `json:"name"`
	Code                 string             `json:"code"`
	Description          string             `json:"description"`
	Active               *bool              `json:"active"`
	ProjectType          domain.ProjectType `json:"project_type"`
	StartDate            string             `json:"start_date"`
	EndDate              string             `json:"end_date"`
	ProgrammingLanguages string             `json:"programming_languages"`
	Frameworks           string             `json:"frameworks"`
	Databases            string             `json:"databases"`
	ProjectGoals         string             `json:"project_goals"`
	Compliance           ComplianceFlags    `json:"compliance"`
}

// ProjectResponse describes a project and its configuration.
type ProjectResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Code        string                 `json:"code"`
	Description string                 `json:"description"`
	Active      bool                   `json:"active"`
	Config      *ProjectConfigResponse `json:"config,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ProjectConfigResponse is the 1:1 project configuration.
type ProjectConfigResponse struct {
	ProjectType          domain.ProjectType `json:"project_type"`
	StartDate            string             `json:"start_date"`
	EndDate              *string            `json:"end_date"`
	ProgrammingLanguages string             `json:"programming_languages"`
	Frameworks           string             `json:"frameworks"`
	Databases            string             `json:"databases"`
	ProjectGoals         string             `json:"project_goals"`
	Compliance           ComplianceFlags    `json:"compliance"`
}
