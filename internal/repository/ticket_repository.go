package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

// TicketFilter captures ticket search parameters.
type TicketFilter struct {
	CustomerID   *string
	AssignedTo   *string
	AssignedOnly bool
	ProjectID    *string
	States       []domain.TicketState
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
	// Unbounded disables paging; used by aggregates and sweeps.
	Unbounded bool
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	NextNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByProject(ctx context.Context, projectID string) (int, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{db: pool}
}

const ticketColumns = `id, number, subject, description, priority, state, project_id, customer_id,
        assigned_to, assigned_by, internal_notes, resolution_notes, created_at, updated_at,
        assigned_date, resolved_date, closed_date`

// NextNumber allocates the next ticket number. Sequence values are never
// handed out twice, even when the surrounding insert fails.
func (r *ticketRepository) NextNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('ticket_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("allocate ticket number: %w", err)
	}
	return domain.FormatTicketNumber(seq), nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (number, subject, description, priority, state, project_id, customer_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Number,
		ticket.Subject,
		ticket.Description,
		ticket.Priority,
		ticket.State,
		ticket.ProjectID,
		ticket.CustomerID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

// Update writes the mutable columns. Number, customer and creation time are
// never touched. The row must still carry the updated_at the caller read,
// otherwise ErrStaleTicket is returned and nothing is written.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET subject=$1, description=$2, priority=$3, state=$4, project_id=$5,
            assigned_to=$6, assigned_by=$7, internal_notes=$8, resolution_notes=$9,
            assigned_date=$10, resolved_date=$11, closed_date=$12, updated_at=NOW()
        WHERE id=$13 AND updated_at=$14
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.Priority,
		ticket.State,
		ticket.ProjectID,
		ticket.AssignedTo,
		ticket.AssignedBy,
		ticket.InternalNotes,
		ticket.ResolutionNotes,
		ticket.AssignedDate,
		ticket.ResolvedDate,
		ticket.ClosedDate,
		ticket.ID,
		ticket.UpdatedAt,
	).Scan(&ticket.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStaleTicket
	}
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE number=$1`, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.AssignedOnly {
		clauses = append(clauses, "assigned_to IS NOT NULL")
	}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		clauses = append(clauses, fmt.Sprintf("project_id=$%d", len(args)))
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("state IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(subject) LIKE %s OR LOWER(description) LIKE %s OR LOWER(number) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if !filter.Unbounded {
		limit := filter.Limit
		if limit <= 0 {
			limit = 20
		}
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountByProject(ctx context.Context, projectID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE project_id=$1`, projectID).Scan(&count)
	return count, err
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Priority,
		&ticket.State,
		&ticket.ProjectID,
		&ticket.CustomerID,
		&ticket.AssignedTo,
		&ticket.AssignedBy,
		&ticket.InternalNotes,
		&ticket.ResolutionNotes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.AssignedDate,
		&ticket.ResolvedDate,
		&ticket.ClosedDate,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
