package domain

import "time"

// ProjectType classifies a configured project.
type ProjectType string

const (
	ProjectTypeWebApp          ProjectType = "web_app"
	ProjectTypeMobile          ProjectType = "mobile"
	ProjectTypeMachineLearning ProjectType = "machine_learning"
	ProjectTypeIoT             ProjectType = "iot"
	ProjectTypeAPI             ProjectType = "api"
	ProjectTypeOther           ProjectType = "other"
)

func (t ProjectType) Valid() bool {
	switch t {
	case ProjectTypeWebApp, ProjectTypeMobile, ProjectTypeMachineLearning,
		ProjectTypeIoT, ProjectTypeAPI, ProjectTypeOther:
		return true
	}
	return false
}

// Project is the optional context a ticket is raised against.
type Project struct {
	ID          string
	Name        string
	Code        string
	Description string
	Active      bool
	Config      *ProjectConfig
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Compliance flags required by a project.
type Compliance struct {
	GDPR     bool
	HIPAA    bool
	PCIDSS   bool
	ISO27001 bool
}

// ProjectConfig holds the single configuration record of a project.
type ProjectConfig struct {
	ID                   string
	ProjectID            string
	ProjectType          ProjectType
	StartDate            time.Time
	EndDate              *time.Time
	ProgrammingLanguages string
	Frameworks           string
	Databases            string
	ProjectGoals         string
	Compliance           Compliance
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
