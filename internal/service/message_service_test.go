package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/repository/mocks"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

func newMessageFixture() (*mocks.TicketRepository, *mocks.TicketMessageRepository, *recorder, *MessageService) {
	tickets := &mocks.TicketRepository{}
	messages := &mocks.TicketMessageRepository{}
	rec := &recorder{}
	return tickets, messages, rec, NewMessageService(tickets, messages, rec)
}

func TestPostMessage(t *testing.T) {
	tickets, messages, rec, svc := newMessageFixture()
	tickets.On("GetByID", mock.Anything, "t-1").Return(newTicket(domain.TicketStateAssigned, strPtr(agent.ID)), nil)
	messages.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.TicketMessage) bool {
		return m.Type == domain.MessageTypeComment && *m.AuthorID == customer.ID && m.Body == "<p>Still broken</p>"
	})).Return(nil).Once()

	msg, err := svc.Post(context.Background(), customer, "t-1", `<p onclick="x()">Still broken</p><script>bad()</script>`)
	require.NoError(t, err)
	assert.Equal(t, "<p>Still broken</p>", msg.Body)
	assert.Equal(t, []events.EventType{events.EventTicketMessageAdded}, rec.types())
	messages.AssertExpectations(t)
}

func TestPostMessageRejections(t *testing.T) {
	tickets, messages, _, svc := newMessageFixture()
	tickets.On("GetByID", mock.Anything, "t-1").Return(newTicket(domain.TicketStateAssigned, strPtr(agent.ID)), nil)
	tickets.On("GetByID", mock.Anything, "t-404").Return(nil, pgx.ErrNoRows)
	ctx := context.Background()

	for _, body := range []string{"", "   ", "<p><br></p>", "<br>", "&nbsp;"} {
		_, err := svc.Post(ctx, customer, "t-1", body)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), body)
	}

	_, err := svc.Post(ctx, stranger, "t-1", "hi")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = svc.Post(ctx, other, "t-1", "hi")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = svc.Post(ctx, admin, "t-404", "hi")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEditMessage(t *testing.T) {
	_, messages, _, svc := newMessageFixture()
	messages.On("GetByID", mock.Anything, "m-1").Return(&domain.TicketMessage{
		ID: "m-1", TicketID: "t-1", AuthorID: strPtr(customer.ID), Body: "<p>old</p>",
	}, nil)
	messages.On("UpdateBody", mock.Anything, mock.Anything).Return(nil).Once()
	ctx := context.Background()

	_, err := svc.Edit(ctx, admin, "m-1", "admin rewrite")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.Edit(ctx, customer, "m-1", "<p><br></p>")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	msg, err := svc.Edit(ctx, customer, "m-1", "<p>new</p>")
	require.NoError(t, err)
	assert.Equal(t, "<p>new</p>", msg.Body)
	messages.AssertExpectations(t)
}

func TestDeleteMessage(t *testing.T) {
	_, messages, _, svc := newMessageFixture()
	messages.On("GetByID", mock.Anything, "m-1").Return(&domain.TicketMessage{
		ID: "m-1", TicketID: "t-1", AuthorID: strPtr(customer.ID),
	}, nil)
	messages.On("Delete", mock.Anything, "m-1").Return(nil).Twice()
	ctx := context.Background()

	err := svc.Delete(ctx, agent, "m-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	err = svc.Delete(ctx, stranger, "m-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	require.NoError(t, svc.Delete(ctx, customer, "m-1"))
	require.NoError(t, svc.Delete(ctx, admin, "m-1"))
	messages.AssertExpectations(t)
}

func TestListMessagesFiltersEmptyBodies(t *testing.T) {
	tickets, messages, _, svc := newMessageFixture()
	tickets.On("GetByID", mock.Anything, "t-1").Return(newTicket(domain.TicketStateAssigned, strPtr(agent.ID)), nil)
	messages.On("ListByTicket", mock.Anything, "t-1").Return([]domain.TicketMessage{
		{ID: "m-1", Body: "<p>First</p>"},
		{ID: "m-2", Body: "<p><br></p>"},
		{ID: "m-3", Body: "&nbsp;"},
		{ID: "m-4", Body: `<p><img src="https://example.com/a.png"></p>`},
	}, nil)

	list, err := svc.List(context.Background(), agent, "t-1")
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m-1", "m-4"}, ids)
}
