package repository

import (
	"context"
	"errors"

	"github.com/Raja-karthikeya-137/ticketing-system/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.Ticket, error)
}

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

// Create appends one ticket. The applicants foreign key backs the
// service-level existence check, so a racing applicant delete still cannot
// produce an orphan ticket.
func (r *PGTicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	t.ID = uuid.New()
	err := r.db.QueryRow(ctx, `INSERT INTO tickets (id, applicant_id, source, destination, payment_type, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING booked_at`,
		t.ID, t.ApplicantID, t.Source, t.Destination, t.PaymentType, t.Amount).
		Scan(&t.BookedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrUnresolvableApplicant
		}
		return err
	}
	return nil
}

func (r *PGTicketRepository) ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT id, applicant_id, source, destination, payment_type, amount, booked_at FROM tickets WHERE applicant_id=$1 ORDER BY booked_at`, applicantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.ApplicantID, &t.Source, &t.Destination, &t.PaymentType, &t.Amount, &t.BookedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

var _ TicketRepository = (*PGTicketRepository)(nil)
