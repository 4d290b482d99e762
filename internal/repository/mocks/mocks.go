package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
)

// TicketRepository is a mock for repository.TicketRepository.
type TicketRepository struct {
	mock.Mock
}

func (m *TicketRepository) NextNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *TicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if ticket, ok := args.Get(0).(*domain.Ticket); ok {
		return ticket, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	args := m.Called(ctx, number)
	if ticket, ok := args.Get(0).(*domain.Ticket); ok {
		return ticket, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketRepository) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	args := m.Called(ctx, filter)
	if list, ok := args.Get(0).([]domain.Ticket); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketRepository) CountByProject(ctx context.Context, projectID string) (int, error) {
	args := m.Called(ctx, projectID)
	return args.Int(0), args.Error(1)
}

// TicketMessageRepository is a mock for repository.TicketMessageRepository.
type TicketMessageRepository struct {
	mock.Mock
}

func (m *TicketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *TicketMessageRepository) UpdateBody(ctx context.Context, msg *domain.TicketMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *TicketMessageRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TicketMessageRepository) GetByID(ctx context.Context, id string) (*domain.TicketMessage, error) {
	args := m.Called(ctx, id)
	if msg, ok := args.Get(0).(*domain.TicketMessage); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	args := m.Called(ctx, ticketID)
	if list, ok := args.Get(0).([]domain.TicketMessage); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// TicketHistoryRepository is a mock for repository.TicketHistoryRepository.
type TicketHistoryRepository struct {
	mock.Mock
}

func (m *TicketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *TicketHistoryRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	args := m.Called(ctx, ticketID, limit, offset)
	if list, ok := args.Get(0).([]domain.TicketHistory); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// UserRepository is a mock for repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	args := m.Called(ctx, filter)
	if list, ok := args.Get(0).([]domain.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ProjectRepository is a mock for repository.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if project, ok := args.Get(0).(*domain.Project); ok {
		return project, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, activeOnly bool) ([]domain.Project, error) {
	args := m.Called(ctx, activeOnly)
	if list, ok := args.Get(0).([]domain.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// TicketTransactor runs callbacks against Store and records the outcome a
// real transaction would have had.
type TicketTransactor struct {
	Store     repository.TicketStore
	Commits   int
	Rollbacks int
}

func (t *TicketTransactor) InTx(_ context.Context, fn func(store repository.TicketStore) error) error {
	if err := fn(t.Store); err != nil {
		t.Rollbacks++
		return err
	}
	t.Commits++
	return nil
}
