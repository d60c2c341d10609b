package issuance

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/Raja-karthikeya-137/ticketing-system/internal/domain"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockApplicantRepository struct {
	mock.Mock
}

func (m *MockApplicantRepository) Create(ctx context.Context, applicant *domain.Applicant) error {
	args := m.Called(ctx, applicant)
	return args.Error(0)
}

func (m *MockApplicantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Applicant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Applicant), args.Error(1)
}

func (m *MockApplicantRepository) GetByPassID(ctx context.Context, passID string) (*domain.Applicant, error) {
	args := m.Called(ctx, passID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Applicant), args.Error(1)
}

func (m *MockApplicantRepository) FindByAnyPhone(ctx context.Context, phone string) (*domain.Applicant, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Applicant), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) SetApplicant(ctx context.Context, applicant *domain.Applicant) error {
	args := m.Called(ctx, applicant)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// capturingEncoder records every content string it was asked to encode and
// returns the content bytes themselves, so tests can check that the stored
// artifact encodes exactly the returned pass id.
type capturingEncoder struct {
	contents []string
}

func (e *capturingEncoder) Encode(content string) ([]byte, error) {
	e.contents = append(e.contents, content)
	return []byte(content), nil
}

var passIDPattern = regexp.MustCompile(`^TSRTC-\d{8}$`)

func TestIssuanceService_Issue_Success(t *testing.T) {
	mockRepo := &MockApplicantRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}
	encoder := &capturingEncoder{}

	service := &IssuanceService{
		applicants:  mockRepo,
		encoder:     encoder,
		cache:       mockCache,
		producer:    mockProducer,
		eventsTopic: "counter-events",
		passPrefix:  "TSRTC",
		maxAttempts: 5,
	}

	ctx := context.Background()
	input := IssueInput{
		Name:     "Ramesh Kumar",
		Gender:   "M",
		AgeYears: 63,
		District: "Hyderabad",
		Phone:    "9000000001",
		PassType: "SENIOR_CITIZEN",
		Counter:  "MGBS-3",
	}

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Applicant")).Run(func(args mock.Arguments) {
		a := args.Get(1).(*domain.Applicant)
		a.ID = uuid.New()
		a.CreatedAt = time.Now()
	}).Return(nil).Once()
	mockCache.On("SetApplicant", ctx, mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", ctx, "counter-events", mock.Anything, mock.Anything).Return(nil).Once()

	applicant, err := service.Issue(ctx, input)

	assert.NoError(t, err)
	assert.NotNil(t, applicant)
	assert.Regexp(t, passIDPattern, applicant.PassID)
	assert.NotEqual(t, uuid.Nil, applicant.ID)
	assert.Equal(t, domain.PaymentModeNoCostScheme, applicant.PaymentMode)

	// The stored artifact encodes exactly the issued pass id.
	assert.Equal(t, []string{applicant.PassID}, encoder.contents)
	assert.Equal(t, []byte(applicant.PassID), applicant.QRPNG)

	// Unset phone aliases back-fill from the resolved phone.
	assert.Equal(t, "9000000001", applicant.Phone)
	assert.Equal(t, "9000000001", applicant.WhatsApp)
	assert.Equal(t, "9000000001", applicant.AltNumber)

	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestIssuanceService_Issue_ValidationErrors(t *testing.T) {
	service := &IssuanceService{passPrefix: "TSRTC", maxAttempts: 5}
	ctx := context.Background()

	testCases := []struct {
		name  string
		input IssueInput
	}{
		{
			name:  "Missing name",
			input: IssueInput{Phone: "9000000001"},
		},
		{
			name:  "Whitespace name",
			input: IssueInput{Name: "   ", Phone: "9000000001"},
		},
		{
			name:  "No contact number at all",
			input: IssueInput{Name: "Ramesh Kumar"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			applicant, err := service.Issue(ctx, tc.input)
			assert.Nil(t, applicant)
			var validation *domain.ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestReconcilePhones(t *testing.T) {
	testCases := []struct {
		name                          string
		phone, whatsapp, number       string
		wantPhone, wantWA, wantNumber string
	}{
		{
			name:  "Only phone set",
			phone: "9000000001",
			wantPhone: "9000000001", wantWA: "9000000001", wantNumber: "9000000001",
		},
		{
			name:     "Only whatsapp set",
			whatsapp: "9000000002",
			wantPhone: "9000000002", wantWA: "9000000002", wantNumber: "9000000002",
		},
		{
			name:   "Only number set",
			number: "9000000003",
			wantPhone: "9000000003", wantWA: "9000000003", wantNumber: "9000000003",
		},
		{
			name:  "Phone wins over whatsapp",
			phone: "9000000001", whatsapp: "9000000002",
			wantPhone: "9000000001", wantWA: "9000000002", wantNumber: "9000000001",
		},
		{
			name: "All distinct stay distinct",
			phone: "1", whatsapp: "2", number: "3",
			wantPhone: "1", wantWA: "2", wantNumber: "3",
		},
		{
			name: "All empty",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			phone, whatsapp, number := reconcilePhones(tc.phone, tc.whatsapp, tc.number)
			assert.Equal(t, tc.wantPhone, phone)
			assert.Equal(t, tc.wantWA, whatsapp)
			assert.Equal(t, tc.wantNumber, number)
		})
	}
}

func TestIssuanceService_Issue_RetriesOnDuplicatePassID(t *testing.T) {
	mockRepo := &MockApplicantRepository{}
	encoder := &capturingEncoder{}

	service := &IssuanceService{
		applicants:  mockRepo,
		encoder:     encoder,
		passPrefix:  "TSRTC",
		maxAttempts: 5,
	}

	ctx := context.Background()
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrPassIDTaken).Twice()
	mockRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Applicant).ID = uuid.New()
	}).Return(nil).Once()

	applicant, err := service.Issue(ctx, IssueInput{Name: "Ramesh Kumar", Phone: "9000000001"})

	assert.NoError(t, err)
	assert.NotNil(t, applicant)
	// Each attempt draws a fresh id and re-renders its artifact.
	assert.Len(t, encoder.contents, 3)
	assert.Equal(t, applicant.PassID, encoder.contents[2])
	mockRepo.AssertExpectations(t)
}

func TestIssuanceService_Issue_DuplicateRetriesExhausted(t *testing.T) {
	mockRepo := &MockApplicantRepository{}
	encoder := &capturingEncoder{}

	service := &IssuanceService{
		applicants:  mockRepo,
		encoder:     encoder,
		passPrefix:  "TSRTC",
		maxAttempts: 3,
	}

	ctx := context.Background()
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrPassIDTaken).Times(3)

	applicant, err := service.Issue(ctx, IssueInput{Name: "Ramesh Kumar", Phone: "9000000001"})

	assert.Nil(t, applicant)
	assert.ErrorIs(t, err, domain.ErrDuplicatePassID)
	assert.Len(t, encoder.contents, 3)
	mockRepo.AssertExpectations(t)
}

func TestIssuanceService_Issue_TransientStoreErrorRetried(t *testing.T) {
	mockRepo := &MockApplicantRepository{}
	encoder := &capturingEncoder{}

	service := &IssuanceService{
		applicants:  mockRepo,
		encoder:     encoder,
		passPrefix:  "TSRTC",
		maxAttempts: 5,
	}

	ctx := context.Background()
	storeErr := fmt.Errorf("connection reset")
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(storeErr).Once()
	mockRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Applicant).ID = uuid.New()
	}).Return(nil).Once()

	applicant, err := service.Issue(ctx, IssueInput{Name: "Ramesh Kumar", Phone: "9000000001"})

	assert.NoError(t, err)
	assert.NotNil(t, applicant)
	// A blip still consumes only one pass id; the retried write keeps it.
	assert.Len(t, encoder.contents, 1)
	mockRepo.AssertExpectations(t)
}

func TestIssuanceService_Issue_TransientStoreErrorExhausted(t *testing.T) {
	mockRepo := &MockApplicantRepository{}

	service := &IssuanceService{
		applicants:  mockRepo,
		encoder:     &capturingEncoder{},
		passPrefix:  "TSRTC",
		maxAttempts: 5,
	}

	ctx := context.Background()
	storeErr := fmt.Errorf("connection reset")
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(storeErr).Times(storeAttempts)

	applicant, err := service.Issue(ctx, IssueInput{Name: "Ramesh Kumar", Phone: "9000000001"})

	assert.Nil(t, applicant)
	assert.ErrorIs(t, err, storeErr)
	mockRepo.AssertExpectations(t)
}

func TestIssuanceService_Issue_PublishesNotifications(t *testing.T) {
	mockRepo := &MockApplicantRepository{}
	mockProducer := &MockProducer{}

	service := &IssuanceService{
		applicants:         mockRepo,
		encoder:            &capturingEncoder{},
		producer:           mockProducer,
		eventsTopic:        "counter-events",
		notificationsTopic: "counter-notifications",
		passPrefix:         "TSRTC",
		maxAttempts:        5,
	}

	ctx := context.Background()
	mockRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Applicant).ID = uuid.New()
	}).Return(nil).Once()
	mockProducer.On("Publish", ctx, "counter-events", mock.Anything, mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", ctx, "counter-notifications", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := service.Issue(ctx, IssueInput{Name: "Ramesh Kumar", Phone: "9000000001"})

	assert.NoError(t, err)
	mockProducer.AssertExpectations(t)
}

// uniqueApplicantStore enforces the pass_id unique constraint in memory, the
// way the database does in production.
type uniqueApplicantStore struct {
	seen map[string]bool
}

func (s *uniqueApplicantStore) Create(ctx context.Context, applicant *domain.Applicant) error {
	if s.seen[applicant.PassID] {
		return repository.ErrPassIDTaken
	}
	s.seen[applicant.PassID] = true
	applicant.ID = uuid.New()
	return nil
}

func (s *uniqueApplicantStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Applicant, error) {
	return nil, domain.ErrNotFound
}

func (s *uniqueApplicantStore) GetByPassID(ctx context.Context, passID string) (*domain.Applicant, error) {
	return nil, domain.ErrNotFound
}

func (s *uniqueApplicantStore) FindByAnyPhone(ctx context.Context, phone string) (*domain.Applicant, error) {
	return nil, domain.ErrNotFound
}

func TestIssuanceService_Issue_TenThousandDistinctPassIDs(t *testing.T) {
	store := &uniqueApplicantStore{seen: make(map[string]bool)}
	service := &IssuanceService{
		applicants:  store,
		encoder:     &capturingEncoder{},
		passPrefix:  "TSRTC",
		maxAttempts: 5,
	}

	ctx := context.Background()
	issued := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		applicant, err := service.Issue(ctx, IssueInput{Name: "Applicant", Phone: fmt.Sprintf("9%09d", i)})
		assert.NoError(t, err)
		assert.Regexp(t, passIDPattern, applicant.PassID)
		assert.False(t, issued[applicant.PassID], "duplicate pass id %s", applicant.PassID)
		issued[applicant.PassID] = true
	}
	assert.Len(t, issued, 10000)
}
