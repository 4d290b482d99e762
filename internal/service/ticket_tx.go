package service

import (
	"context"
	"errors"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// unscopedTx runs writes directly against the given repositories. It backs
// services built without a transactor.
type unscopedTx struct {
	store repository.TicketStore
}

func (u unscopedTx) InTx(_ context.Context, fn func(store repository.TicketStore) error) error {
	return fn(u.store)
}

func ticketTransactor(tx repository.TicketTransactor, tickets repository.TicketRepository, history repository.TicketHistoryRepository) repository.TicketTransactor {
	if tx != nil {
		return tx
	}
	return unscopedTx{store: repository.TicketStore{Tickets: tickets, History: history}}
}

// saveTicketChange persists ticket and its audit entry as one unit.
func saveTicketChange(ctx context.Context, tx repository.TicketTransactor, ticket *domain.Ticket, entry *domain.TicketHistory) error {
	err := tx.InTx(ctx, func(store repository.TicketStore) error {
		if err := store.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		if store.History == nil {
			return nil
		}
		return store.History.Create(ctx, entry)
	})
	if errors.Is(err, repository.ErrStaleTicket) {
		return apperrors.NewConflict("ticket was changed by another request, reload and retry", map[string]any{"ticket_id": ticket.ID})
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func historyEntry(actorID, ticketID string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) *domain.TicketHistory {
	return &domain.TicketHistory{
		TicketID:    ticketID,
		ChangedByID: &actorID,
		ChangeType:  changeType,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
}
