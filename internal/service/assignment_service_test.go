package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/notify"
	"github.com/spec-kit/support-portal/internal/repository"
	"github.com/spec-kit/support-portal/internal/repository/mocks"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

type captureMailer struct {
	sent []notify.Mail
	fail map[string]error
}

func (m *captureMailer) Send(_ context.Context, msg notify.Mail) error {
	if err := m.fail[msg.To.Address]; err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type assignmentFixture struct {
	tickets  *mocks.TicketRepository
	users    *mocks.UserRepository
	history  *mocks.TicketHistoryRepository
	messages *mocks.TicketMessageRepository
	tx       *mocks.TicketTransactor
	mailer   *captureMailer
	svc      *AssignmentService
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	f := &assignmentFixture{
		tickets:  &mocks.TicketRepository{},
		users:    &mocks.UserRepository{},
		history:  &mocks.TicketHistoryRepository{},
		messages: &mocks.TicketMessageRepository{},
		mailer:   &captureMailer{fail: map[string]error{}},
	}
	f.tx = &mocks.TicketTransactor{Store: repository.TicketStore{Tickets: f.tickets, History: f.history}}
	logger := zaptest.NewLogger(t)
	dispatcher := events.NewInMemoryDispatcher(logger)
	notify.NewNotifier(f.users, notify.NewRenderer("http://portal.test"), f.mailer, nil, logger).Register(dispatcher)

	f.svc = NewAssignmentService(AssignmentDependencies{
		TicketRepo:  f.tickets,
		UserRepo:    f.users,
		HistoryRepo: f.history,
		Tx:          f.tx,
		Messages:    NewMessageService(f.tickets, f.messages, dispatcher),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	f.svc.now = func() time.Time { return fixedNow }

	f.users.On("GetByID", mock.Anything, agent.ID).Return(&domain.User{
		ID: agent.ID, Name: agent.Name, Email: "alex@example.com", Groups: []string{domain.GroupUser}, Active: true,
	}, nil).Maybe()
	f.users.On("GetByID", mock.Anything, customer.ID).Return(&domain.User{
		ID: customer.ID, Name: customer.Name, Email: "casey@example.com", Groups: []string{domain.GroupPortal}, Active: true,
	}, nil).Maybe()
	return f
}

func TestAssignSendsTwoMails(t *testing.T) {
	f := newAssignmentFixture(t)
	ticket := newTicket(domain.TicketStateNew, nil)
	f.tickets.On("GetByID", mock.Anything, "t-1").Return(ticket, nil)
	f.tickets.On("Update", mock.Anything, ticket).Return(nil).Once()
	f.history.On("Create", mock.Anything, mock.MatchedBy(func(h *domain.TicketHistory) bool {
		return h.ChangeType == domain.ChangeTypeAssignee && h.NewValue["assigned_to"] == agent.ID
	})).Return(nil).Once()
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	updated, err := f.svc.Assign(context.Background(), admin, "t-1", agent.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStateAssigned, updated.State)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, agent.ID, *updated.AssignedTo)
	require.NotNil(t, updated.AssignedBy)
	assert.Equal(t, admin.ID, *updated.AssignedBy)
	require.NotNil(t, updated.AssignedDate)
	assert.Equal(t, fixedNow, *updated.AssignedDate)

	require.Len(t, f.mailer.sent, 2)
	subjects := []string{f.mailer.sent[0].Subject, f.mailer.sent[1].Subject}
	assert.Contains(t, subjects, "New Ticket Assigned: TCK-000001 - Cannot log in")
	assert.Contains(t, subjects, "Your Ticket Has Been Assigned: TCK-000001")
	f.tickets.AssertExpectations(t)
	f.history.AssertExpectations(t)
}

func TestAssignSucceedsWhenMailFails(t *testing.T) {
	f := newAssignmentFixture(t)
	f.mailer.fail["alex@example.com"] = assert.AnError
	ticket := newTicket(domain.TicketStateNew, nil)
	f.tickets.On("GetByID", mock.Anything, "t-1").Return(ticket, nil)
	f.tickets.On("Update", mock.Anything, ticket).Return(nil)
	f.history.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Assign(context.Background(), admin, "t-1", agent.ID)
	require.NoError(t, err)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "casey@example.com", f.mailer.sent[0].To.Address)
}

func TestAssignByNonAdminIsRejected(t *testing.T) {
	for _, p := range []domain.Principal{agent, customer} {
		f := newAssignmentFixture(t)
		_, err := f.svc.Assign(context.Background(), p, "t-1", agent.ID)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
		f.tickets.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		f.tickets.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		assert.Empty(t, f.mailer.sent)
	}
}

func TestAssignRejectsIneligibleTargetsAndStates(t *testing.T) {
	f := newAssignmentFixture(t)
	f.tickets.On("GetByID", mock.Anything, "t-new").Return(newTicket(domain.TicketStateNew, nil), nil)
	closed := newTicket(domain.TicketStateClosed, strPtr(agent.ID))
	f.tickets.On("GetByID", mock.Anything, "t-closed").Return(closed, nil)
	resolved := newTicket(domain.TicketStateResolved, strPtr(agent.ID))
	f.tickets.On("GetByID", mock.Anything, "t-resolved").Return(resolved, nil)
	f.tickets.On("GetByID", mock.Anything, "t-missing").Return(nil, pgx.ErrNoRows)

	f.users.On("GetByID", mock.Anything, "inactive").Return(&domain.User{ID: "inactive", Groups: []string{domain.GroupUser}}, nil)
	f.users.On("GetByID", mock.Anything, "portal").Return(&domain.User{ID: "portal", Groups: []string{domain.GroupPortal}, Active: true}, nil)
	f.users.On("GetByID", mock.Anything, "ghost").Return(nil, pgx.ErrNoRows)

	ctx := context.Background()
	_, err := f.svc.Assign(ctx, admin, "t-missing", agent.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	for _, target := range []string{"inactive", "portal", "ghost"} {
		_, err = f.svc.Assign(ctx, admin, "t-new", target)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), target)
	}

	_, err = f.svc.Assign(ctx, admin, "t-closed", agent.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Equal(t, domain.TicketStateClosed, closed.State)

	_, err = f.svc.Assign(ctx, admin, "t-resolved", agent.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Equal(t, domain.TicketStateResolved, resolved.State)

	f.tickets.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Empty(t, f.mailer.sent)
}

func TestAssignRollsBackWhenHistoryFails(t *testing.T) {
	f := newAssignmentFixture(t)
	f.tickets.On("GetByID", mock.Anything, "t-1").Return(newTicket(domain.TicketStateNew, nil), nil)
	f.tickets.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
	f.history.On("Create", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	_, err := f.svc.Assign(context.Background(), admin, "t-1", agent.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
	assert.Equal(t, 1, f.tx.Rollbacks)
	assert.Zero(t, f.tx.Commits)
	assert.Empty(t, f.mailer.sent)
	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
