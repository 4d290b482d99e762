package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

const defaultHistoryLimit = 100

// TicketHistoryRepository stores the append-only audit trail.
type TicketHistoryRepository interface {
	Create(ctx context.Context, entry *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	db DBTX
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{db: pool}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, entry *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, changed_by_id, change_type, old_value, new_value)
        VALUES (@ticket_id, @changed_by_id, @change_type, @old_value, @new_value)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, pgx.NamedArgs{
		"ticket_id":     entry.TicketID,
		"changed_by_id": entry.ChangedByID,
		"change_type":   entry.ChangeType,
		"old_value":     entry.OldValue,
		"new_value":     entry.NewValue,
	}).Scan(&entry.ID, &entry.CreatedAt)
}

// ListByTicket returns entries oldest first.
func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, ticket_id, changed_by_id, change_type, old_value, new_value, created_at
        FROM ticket_history
        WHERE ticket_id = $1
        ORDER BY created_at ASC, id ASC
        LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TicketHistory, error) {
		var entry domain.TicketHistory
		err := row.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ChangedByID,
			&entry.ChangeType,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		)
		return entry, err
	})
}
