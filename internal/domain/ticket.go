package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentType string

const (
	PaymentTypeFree PaymentType = "FREE"
	PaymentTypePaid PaymentType = "PAID"
)

// Ticket is one journey booked against an applicant. Tickets are immutable
// after creation and never embedded in the applicant record.
type Ticket struct {
	ID          uuid.UUID   `json:"id"`
	ApplicantID uuid.UUID   `json:"applicant_ref"`
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	PaymentType PaymentType `json:"payment_type"`
	Amount      float64     `json:"amount"`
	BookedAt    time.Time   `json:"booked_at"`
}
