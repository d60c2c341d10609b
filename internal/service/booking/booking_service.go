package booking

import (
	"context"
	"errors"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Raja-karthikeya-137/ticketing-system/internal/domain"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/kafka"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/repository"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	ResolveByPhone(ctx context.Context, phone string) (*domain.Applicant, error)
	ResolveByRecordRef(ctx context.Context, ref string) (*domain.Applicant, error)
	ResolveByPassID(ctx context.Context, passID string) (*domain.Applicant, error)
	BookTicket(ctx context.Context, input BookTicketInput) (*domain.Ticket, error)
	ListTickets(ctx context.Context, ref string) ([]domain.Ticket, error)
}

type Cache interface {
	GetApplicant(ctx context.Context, passID string) (*domain.Applicant, error)
	SetApplicant(ctx context.Context, applicant *domain.Applicant) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	applicants         repository.ApplicantRepository
	tickets            repository.TicketRepository
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	opTimeout          time.Duration
}

// BookTicketInput carries the raw booking fields. Amount arrives as the
// string the counter UI submitted; fare parsing is the service's job.
type BookTicketInput struct {
	ApplicantRef string `json:"applicant_ref"`
	Source       string `json:"source"`
	Destination  string `json:"destination"`
	PaymentType  string `json:"payment_type"`
	Amount       string `json:"amount"`
}

type BookingOption func(*BookingService)

func WithOpTimeout(d time.Duration) BookingOption {
	return func(s *BookingService) {
		s.opTimeout = d
	}
}

func WithNotificationsTopic(topic string) BookingOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	applicants repository.ApplicantRepository,
	tickets repository.TicketRepository,
	cache Cache,
	producer Producer,
	eventsTopic string,
	opts ...BookingOption,
) *BookingService {
	service := &BookingService{
		applicants:  applicants,
		tickets:     tickets,
		cache:       cache,
		producer:    producer,
		eventsTopic: eventsTopic,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ResolveByPhone matches any of the three phone fields, exact match. The
// first match wins; phone values are assumed unique in practice.
func (s *BookingService) ResolveByPhone(ctx context.Context, phone string) (*domain.Applicant, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, domain.NewValidationError("phone", "is required")
	}
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	var applicant *domain.Applicant
	err := retryStore(storeCtx, func(c context.Context) error {
		var err error
		applicant, err = s.applicants.FindByAnyPhone(c, phone)
		return err
	})
	return applicant, err
}

func (s *BookingService) ResolveByRecordRef(ctx context.Context, ref string) (*domain.Applicant, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, domain.ErrInvalidReference
	}
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	var applicant *domain.Applicant
	err = retryStore(storeCtx, func(c context.Context) error {
		var err error
		applicant, err = s.applicants.GetByID(c, id)
		return err
	})
	return applicant, err
}

// ResolveByPassID is the scan path: the scanner decodes the printed artifact
// back into the pass id string and submits it verbatim. Reads through the
// cache first; records are immutable so a hit is always current.
func (s *BookingService) ResolveByPassID(ctx context.Context, passID string) (*domain.Applicant, error) {
	if strings.TrimSpace(passID) == "" {
		return nil, domain.NewValidationError("pass_id", "is required")
	}

	if s.cache != nil {
		if cached, err := s.cache.GetApplicant(ctx, passID); err == nil && cached != nil {
			return cached, nil
		}
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	var applicant *domain.Applicant
	err := retryStore(storeCtx, func(c context.Context) error {
		var err error
		applicant, err = s.applicants.GetByPassID(c, passID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetApplicant(ctx, applicant)
	}
	return applicant, nil
}

// BookTicket creates one journey record against a resolved applicant. There
// is no idempotency key: a counter may legitimately issue the same journey
// twice, and each submit appends a fresh ticket.
func (s *BookingService) BookTicket(ctx context.Context, input BookTicketInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.ApplicantRef) == "" {
		return nil, domain.NewValidationError("applicant_ref", "is required")
	}
	if strings.TrimSpace(input.Source) == "" {
		return nil, domain.NewValidationError("source", "is required")
	}
	if strings.TrimSpace(input.Destination) == "" {
		return nil, domain.NewValidationError("destination", "is required")
	}

	paymentType, err := parsePaymentType(input.PaymentType)
	if err != nil {
		return nil, err
	}
	amount, err := computeFare(paymentType, input.Amount)
	if err != nil {
		return nil, err
	}

	// Malformed and missing references surface the same way: the booking
	// cannot name an applicant that exists.
	applicantID, err := uuid.Parse(input.ApplicantRef)
	if err != nil {
		return nil, domain.ErrUnresolvableApplicant
	}
	storeCtx, cancel := s.storeContext(ctx)
	var applicant *domain.Applicant
	err = retryStore(storeCtx, func(c context.Context) error {
		var err error
		applicant, err = s.applicants.GetByID(c, applicantID)
		return err
	})
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnresolvableApplicant
		}
		return nil, err
	}

	ticket := &domain.Ticket{
		ApplicantID: applicant.ID,
		Source:      input.Source,
		Destination: input.Destination,
		PaymentType: paymentType,
		Amount:      amount,
	}
	storeCtx, cancel = s.storeContext(ctx)
	err = retryStore(storeCtx, func(c context.Context) error {
		return s.tickets.Create(c, ticket)
	})
	cancel()
	if err != nil {
		return nil, err
	}

	s.publishBooked(ctx, applicant, ticket)
	return ticket, nil
}

func (s *BookingService) ListTickets(ctx context.Context, ref string) ([]domain.Ticket, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, domain.ErrInvalidReference
	}
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	var tickets []domain.Ticket
	err = retryStore(storeCtx, func(c context.Context) error {
		var err error
		tickets, err = s.tickets.ListByApplicant(c, id)
		return err
	})
	return tickets, err
}

// parsePaymentType accepts FREE and PAID case-insensitively, plus CASH as
// the counter UI's spelling of PAID. Anything else is rejected rather than
// silently riding free.
func parsePaymentType(raw string) (domain.PaymentType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "FREE":
		return domain.PaymentTypeFree, nil
	case "PAID", "CASH":
		return domain.PaymentTypePaid, nil
	case "":
		return "", domain.NewValidationError("payment_type", "is required")
	default:
		return "", domain.NewValidationError("payment_type", "must be FREE or PAID")
	}
}

// computeFare enforces the fare policy: free journeys cost zero regardless
// of the submitted amount; paid journeys take the submitted amount clamped
// at zero. ParseFloat accepts NaN and the infinities, neither of which is a
// fare, so non-finite values are rejected alongside non-numeric ones.
func computeFare(paymentType domain.PaymentType, raw string) (float64, error) {
	if paymentType == domain.PaymentTypeFree {
		return 0, nil
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, domain.ErrInvalidAmount
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, domain.ErrInvalidAmount
	}
	if amount < 0 {
		return 0, nil
	}
	return amount, nil
}

const storeAttempts = 3

// retryStore runs fn up to storeAttempts times, backing off between tries.
// Typed domain outcomes and context errors surface immediately; only
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
	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrUnresolvableApplicant) ||
		errors.Is(err, domain.ErrInvalidReference) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var validation *domain.ValidationError
	return !errors.As(err, &validation)
}

func (s *BookingService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *BookingService) publishBooked(ctx context.Context, applicant *domain.Applicant, ticket *domain.Ticket) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.CounterEvent{
		Type:        kafka.EventTicketBooked,
		PassID:      applicant.PassID,
		RecordRef:   applicant.ID.String(),
		Phone:       applicant.Phone,
		Counter:     applicant.Counter,
		Source:      ticket.Source,
		Destination: ticket.Destination,
		PaymentType: string(ticket.PaymentType),
		Amount:      ticket.Amount,
		At:          ticket.BookedAt,
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, applicant.PassID, event); err != nil {
		log.Printf("WARNING: failed to publish ticket_booked event for %s: %v", applicant.PassID, err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, applicant.PassID, event); err != nil {
			log.Printf("WARNING: failed to publish ticket_booked notification for %s: %v", applicant.PassID, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
