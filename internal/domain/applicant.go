package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentModeNoCostScheme is the payment mode stamped on every pass issued
// through the subsidized counter workflow.
const PaymentModeNoCostScheme = "NO_COST_SCHEME"

// Applicant is one enrolled pass holder. The record is immutable after
// issuance; ID is assigned by the store and PassID is unique across all
// applicants.
type Applicant struct {
	ID     uuid.UUID `json:"record_ref"`
	PassID string    `json:"pass_id"`

	// QRPNG is the pre-rendered scannable artifact for PassID, encoded once
	// at issuance and stored with the record.
	QRPNG []byte `json:"qr_png"`

	// Phone is the canonical contact number. WhatsApp and AltNumber are
	// back-filled from Phone when not supplied, so any of the three resolves
	// the applicant.
	Phone     string `json:"phone"`
	WhatsApp  string `json:"whatsapp"`
	AltNumber string `json:"number"`

	Name        string `json:"name"`
	FatherName  string `json:"father_name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	AgeYears    int    `json:"age_years"`
	AgeMonths   int    `json:"age_months"`
	AgeDays     int    `json:"age_days"`
	Address     string `json:"address"`
	District    string `json:"district"`
	Pincode     string `json:"pincode"`

	// Attachment paths point at externally stored files.
	PhotoPath   string `json:"photo_path"`
	IDProofPath string `json:"id_proof_path"`

	PassType     string `json:"pass_type"`
	PaymentMode  string `json:"payment_mode"`
	DeliveryMode string `json:"delivery_mode"`
	Counter      string `json:"counter"`

	CreatedAt time.Time `json:"created_at"`
}
