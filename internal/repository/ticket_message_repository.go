package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

// TicketMessageRepository manages ticket thread messages.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	UpdateBody(ctx context.Context, msg *domain.TicketMessage) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.TicketMessage, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
}

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

const messageSelect = `
        SELECT m.id, m.ticket_id, m.author_id, COALESCE(u.name, ''), m.message_type, m.body, m.created_at, m.updated_at
        FROM ticket_messages m LEFT JOIN users u ON u.id = m.author_id`

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `
        INSERT INTO ticket_messages (ticket_id, author_id, message_type, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		msg.TicketID,
		msg.AuthorID,
		msg.Type,
		msg.Body,
	).Scan(&msg.ID, &msg.CreatedAt, &msg.UpdatedAt)
}

func (r *ticketMessageRepository) UpdateBody(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `UPDATE ticket_messages SET body=$1, updated_at=NOW() WHERE id=$2 RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, msg.Body, msg.ID).Scan(&msg.UpdatedAt)
}

func (r *ticketMessageRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_messages WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketMessageRepository) GetByID(ctx context.Context, id string) (*domain.TicketMessage, error) {
	return scanMessage(r.pool.QueryRow(ctx, messageSelect+` WHERE m.id=$1`, id))
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	rows, err := r.pool.Query(ctx, messageSelect+` WHERE m.ticket_id=$1 ORDER BY m.created_at ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketMessage{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *msg)
	}
	return result, rows.Err()
}

func scanMessage(row pgx.Row) (*domain.TicketMessage, error) {
	var msg domain.TicketMessage
	if err := row.Scan(
		&msg.ID,
		&msg.TicketID,
		&msg.AuthorID,
		&msg.AuthorName,
		&msg.Type,
		&msg.Body,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &msg, nil
}
