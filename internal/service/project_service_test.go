package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository/mocks"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

func validProjectInput() ProjectInput {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return ProjectInput{
		Name:        "Billing",
		Code:        " bill ",
		ProjectType: domain.ProjectTypeWebApp,
		StartDate:   &start,
		Compliance:  domain.Compliance{GDPR: true},
	}
}

func TestCreateProject(t *testing.T) {
	projects := &mocks.ProjectRepository{}
	svc := NewProjectService(projects, &mocks.TicketRepository{})
	projects.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	project, err := svc.Create(context.Background(), admin, validProjectInput())
	require.NoError(t, err)
	assert.Equal(t, "BILL", project.Code)
	assert.True(t, project.Active)
	require.NotNil(t, project.Config)
	assert.True(t, project.Config.Compliance.GDPR)

	_, err = svc.Create(context.Background(), agent, validProjectInput())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestCreateProjectValidation(t *testing.T) {
	svc := NewProjectService(&mocks.ProjectRepository{}, &mocks.TicketRepository{})
	input := validProjectInput()
	end := input.StartDate.Add(-24 * time.Hour)
	input.EndDate = &end
	input.ProjectType = "desktop"

	_, err := svc.Create(context.Background(), admin, input)
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	details := apperrors.ToDomainError(err).Details
	assert.Contains(t, details, "end_date")
	assert.Contains(t, details, "project_type")
}

func TestCreateProjectDuplicateCode(t *testing.T) {
	projects := &mocks.ProjectRepository{}
	projects.On("Create", mock.Anything, mock.Anything).Return(&pgconn.PgError{Code: "23505"})

	_, err := NewProjectService(projects, &mocks.TicketRepository{}).Create(context.Background(), admin, validProjectInput())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestDeleteProjectWithTickets(t *testing.T) {
	projects := &mocks.ProjectRepository{}
	tickets := &mocks.TicketRepository{}
	tickets.On("CountByProject", mock.Anything, "p-busy").Return(3, nil)
	tickets.On("CountByProject", mock.Anything, "p-idle").Return(0, nil)
	projects.On("Delete", mock.Anything, "p-idle").Return(nil).Once()
	svc := NewProjectService(projects, tickets)

	err := svc.Delete(context.Background(), admin, "p-busy")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	require.NoError(t, svc.Delete(context.Background(), admin, "p-idle"))
	projects.AssertExpectations(t)
}

func TestGetInactiveProjectHiddenFromCustomers(t *testing.T) {
	projects := &mocks.ProjectRepository{}
	projects.On("GetByID", mock.Anything, "p-1").Return(&domain.Project{ID: "p-1"}, nil)
	svc := NewProjectService(projects, &mocks.TicketRepository{})

	_, err := svc.Get(context.Background(), customer, "p-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	_, err = svc.Get(context.Background(), admin, "p-1")
	assert.NoError(t, err)
}
