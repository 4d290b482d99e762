package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxFunc opens a transaction, runs fn inside it and commits when fn succeeds.
type TxFunc func(ctx context.Context, fn func(tx pgx.Tx) error) error

// TicketStore holds the repositories a ticket mutation writes to.
type TicketStore struct {
	Tickets TicketRepository
	History TicketHistoryRepository
}

// TicketTransactor runs fn against a TicketStore bound to one transaction.
// An error from fn rolls back every write made through the store.
type TicketTransactor interface {
	InTx(ctx context.Context, fn func(store TicketStore) error) error
}

type pgTicketTransactor struct {
	begin TxFunc
}

// NewTicketTransactor builds a transactor on top of begin, typically
// persistence.Postgres.WithTx.
func NewTicketTransactor(begin TxFunc) TicketTransactor {
	return &pgTicketTransactor{begin: begin}
}

func (t *pgTicketTransactor) InTx(ctx context.Context, fn func(store TicketStore) error) error {
	return t.begin(ctx, func(tx pgx.Tx) error {
		return fn(TicketStore{
			Tickets: &ticketRepository{db: tx},
			History: &ticketHistoryRepository{db: tx},
		})
	})
}
