package repository

import (
	"context"
	"errors"

	"github.com/Raja-karthikeya-137/ticketing-system/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPassIDTaken is returned by Create when the pass_id unique constraint
// rejects the insert. The issuance service retries generation on it.
var ErrPassIDTaken = errors.New("pass id already exists")

type ApplicantRepository interface {
	Create(ctx context.Context, applicant *domain.Applicant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Applicant, error)
	GetByPassID(ctx context.Context, passID string) (*domain.Applicant, error)
	FindByAnyPhone(ctx context.Context, phone string) (*domain.Applicant, error)
}

type PGApplicantRepository struct {
	db *pgxpool.Pool
}

func NewApplicantRepository(db *pgxpool.Pool) ApplicantRepository {
	return &PGApplicantRepository{db: db}
}

const applicantColumns = `id, pass_id, qr_png, phone, whatsapp, alt_number, name, father_name, date_of_birth, gender, age_years, age_months, age_days, address, district, pincode, photo_path, id_proof_path, pass_type, payment_mode, delivery_mode, counter, created_at`

// Create inserts the fully assembled applicant as a single atomic write and
// assigns the store reference.
func (r *PGApplicantRepository) Create(ctx context.Context, a *domain.Applicant) error {
	a.ID = uuid.New()
	err := r.db.QueryRow(ctx, `INSERT INTO applicants (id, pass_id, qr_png, phone, whatsapp, alt_number, name, father_name, date_of_birth, gender, age_years, age_months, age_days, address, district, pincode, photo_path, id_proof_path, pass_type, payment_mode, delivery_mode, counter)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING created_at`,
		a.ID, a.PassID, a.QRPNG, a.Phone, a.WhatsApp, a.AltNumber, a.Name, a.FatherName, a.DateOfBirth, a.Gender, a.AgeYears, a.AgeMonths, a.AgeDays, a.Address, a.District, a.Pincode, a.PhotoPath, a.IDProofPath, a.PassType, a.PaymentMode, a.DeliveryMode, a.Counter).
		Scan(&a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "applicants_pass_id_key" {
			return ErrPassIDTaken
		}
		return err
	}
	return nil
}

func (r *PGApplicantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Applicant, error) {
	row := r.db.QueryRow(ctx, `SELECT `+applicantColumns+` FROM applicants WHERE id=$1`, id)
	return scanApplicant(row)
}

func (r *PGApplicantRepository) GetByPassID(ctx context.Context, passID string) (*domain.Applicant, error) {
	row := r.db.QueryRow(ctx, `SELECT `+applicantColumns+` FROM applicants WHERE pass_id=$1`, passID)
	return scanApplicant(row)
}

// FindByAnyPhone matches the supplied value against all three phone fields.
// Exact match, no normalization; the first row wins.
func (r *PGApplicantRepository) FindByAnyPhone(ctx context.Context, phone string) (*domain.Applicant, error) {
	row := r.db.QueryRow(ctx, `SELECT `+applicantColumns+` FROM applicants WHERE phone=$1 OR whatsapp=$1 OR alt_number=$1 LIMIT 1`, phone)
	return scanApplicant(row)
}

func scanApplicant(row pgx.Row) (*domain.Applicant, error) {
	var a domain.Applicant
	err := row.Scan(&a.ID, &a.PassID, &a.QRPNG, &a.Phone, &a.WhatsApp, &a.AltNumber, &a.Name, &a.FatherName, &a.DateOfBirth, &a.Gender, &a.AgeYears, &a.AgeMonths, &a.AgeDays, &a.Address, &a.District, &a.Pincode, &a.PhotoPath, &a.IDProofPath, &a.PassType, &a.PaymentMode, &a.DeliveryMode, &a.Counter, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

var _ ApplicantRepository = (*PGApplicantRepository)(nil)
