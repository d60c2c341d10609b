package issuance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Raja-karthikeya-137/ticketing-system/internal/domain"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/kafka"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/repository"
)

const (
	defaultPassPrefix  = "TSRTC"
	defaultMaxAttempts = 5
)

type IssuanceUseCase interface {
	Issue(ctx context.Context, input IssueInput) (*domain.Applicant, error)
}

type Encoder interface {
	Encode(content string) ([]byte, error)
}

type Cache interface {
	SetApplicant(ctx context.Context, applicant *domain.Applicant) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type IssuanceService struct {
	applicants         repository.ApplicantRepository
	encoder            Encoder
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	passPrefix         string
	maxAttempts        int
	opTimeout          time.Duration
}

// IssueInput carries the raw applicant fields as submitted at the counter.
// Attachment paths reference files already persisted by the upload handler.
type IssueInput struct {
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

	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp"`
	Number   string `json:"number"`

	PhotoPath   string `json:"photo_path"`
	IDProofPath string `json:"id_proof_path"`

	PassType     string `json:"pass_type"`
	DeliveryMode string `json:"delivery_mode"`
	Counter      string `json:"counter"`
}

type IssuanceOption func(*IssuanceService)

func WithPassPrefix(prefix string) IssuanceOption {
	return func(s *IssuanceService) {
		if prefix != "" {
			s.passPrefix = prefix
		}
	}
}

func WithMaxIDAttempts(n int) IssuanceOption {
	return func(s *IssuanceService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithOpTimeout(d time.Duration) IssuanceOption {
	return func(s *IssuanceService) {
		s.opTimeout = d
	}
}

func WithNotificationsTopic(topic string) IssuanceOption {
	return func(s *IssuanceService) {
		s.notificationsTopic = topic
	}
}

func NewIssuanceService(
	applicants repository.ApplicantRepository,
	encoder Encoder,
	cache Cache,
	producer Producer,
	eventsTopic string,
	opts ...IssuanceOption,
) *IssuanceService {
	service := &IssuanceService{
		applicants:  applicants,
		encoder:     encoder,
		cache:       cache,
		producer:    producer,
		eventsTopic: eventsTopic,
		passPrefix:  defaultPassPrefix,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Issue enrolls one applicant: reconciles the phone triple, draws a unique
// pass id, renders its QR artifact and persists the assembled record in a
// single write. The store's unique constraint on pass_id is the collision
// authority; generation retries on violation up to maxAttempts.
func (s *IssuanceService) Issue(ctx context.Context, input IssueInput) (*domain.Applicant, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, domain.NewValidationError("name", "is required")
	}

	phone, whatsapp, number := reconcilePhones(input.Phone, input.WhatsApp, input.Number)
	if phone == "" {
		return nil, domain.NewValidationError("phone", "at least one contact number is required")
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		passID := s.newPassID()

		png, err := s.encoder.Encode(passID)
		if err != nil {
			return nil, fmt.Errorf("render pass artifact: %w", err)
		}

		applicant := &domain.Applicant{
			PassID:       passID,
			QRPNG:        png,
			Phone:        phone,
			WhatsApp:     whatsapp,
			AltNumber:    number,
			Name:         input.Name,
			FatherName:   input.FatherName,
			DateOfBirth:  input.DateOfBirth,
			Gender:       input.Gender,
			AgeYears:     input.AgeYears,
			AgeMonths:    input.AgeMonths,
			AgeDays:      input.AgeDays,
			Address:      input.Address,
			District:     input.District,
			Pincode:      input.Pincode,
			PhotoPath:    input.PhotoPath,
			IDProofPath:  input.IDProofPath,
			PassType:     input.PassType,
			PaymentMode:  domain.PaymentModeNoCostScheme,
			DeliveryMode: input.DeliveryMode,
			Counter:      input.Counter,
		}

		storeCtx, cancel := s.storeContext(ctx)
		err = retryStore(storeCtx, func(c context.Context) error {
			return s.applicants.Create(c, applicant)
		})
		cancel()
		if err != nil {
			if errors.Is(err, repository.ErrPassIDTaken) {
				continue
			}
			return nil, err
		}

		if s.cache != nil {
			if err := s.cache.SetApplicant(ctx, applicant); err != nil {
				log.Printf("WARNING: failed to cache applicant %s: %v", applicant.PassID, err)
			}
		}
		s.publishIssued(ctx, applicant)
		return applicant, nil
	}

	return nil, domain.ErrDuplicatePassID
}

// reconcilePhones resolves the canonical phone as the first non-empty value
// in priority order and back-fills the other two, so lookup by any of the
// three names succeeds whenever at least one was supplied.
func reconcilePhones(phone, whatsapp, number string) (string, string, string) {
	phone = strings.TrimSpace(phone)
	whatsapp = strings.TrimSpace(whatsapp)
	number = strings.TrimSpace(number)

	resolved := phone
	if resolved == "" {
		resolved = whatsapp
	}
	if resolved == "" {
		resolved = number
	}
	if whatsapp == "" {
		whatsapp = resolved
	}
	if number == "" {
		number = resolved
	}
	return resolved, whatsapp, number
}

// newPassID draws uniformly over the full 8-digit range. Uniqueness against
// existing records is the store's job, not the generator's.
func (s *IssuanceService) newPassID() string {
	digits := 10000000 + rand.Int64N(90000000)
	return fmt.Sprintf("%s-%08d", s.passPrefix, digits)
}

const storeAttempts = 3

// retryStore runs fn up to storeAttempts times, backing off between tries.
// Uniqueness collisions and context errors surface immediately; only
// transient store failures are retried.
func retryStore(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < storeAttempts; attempt++ {
		if err = fn(ctx); err == nil || !isTransient(err) {
			return err
		}
		if attempt == storeAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt+1) * 100 * time.Millisecond):
		}
	}
	return err
}

func isTransient(err error) bool {
	return !errors.Is(err, repository.ErrPassIDTaken) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func (s *IssuanceService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *IssuanceService) publishIssued(ctx context.Context, applicant *domain.Applicant) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.CounterEvent{
		Type:      kafka.EventPassIssued,
		PassID:    applicant.PassID,
		RecordRef: applicant.ID.String(),
		Phone:     applicant.Phone,
		Counter:   applicant.Counter,
		At:        applicant.CreatedAt,
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, applicant.PassID, event); err != nil {
		log.Printf("WARNING: failed to publish pass_issued event for %s: %v", applicant.PassID, err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, applicant.PassID, event); err != nil {
			log.Printf("WARNING: failed to publish pass_issued notification for %s: %v", applicant.PassID, err)
		}
	}
}

var _ IssuanceUseCase = (*IssuanceService)(nil)
