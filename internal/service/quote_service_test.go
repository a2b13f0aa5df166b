package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/pkg/apperror"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/repository"
)

type mockQuoteRepo struct {
	mock.Mock
}

func (m *mockQuoteRepo) Create(ctx context.Context, q *models.QuoteRequest) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *mockQuoteRepo) GetByID(ctx context.Context, id int64) (*models.QuoteRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuoteRequest), args.Error(1)
}

func (m *mockQuoteRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QuoteRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuoteRequest), args.Error(1)
}

func (m *mockQuoteRepo) List(ctx context.Context, status string, limit, offset int) ([]models.QuoteRequest, int, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.QuoteRequest), args.Int(1), args.Error(2)
}

func (m *mockQuoteRepo) ListRevisions(ctx context.Context, quoteID int64) ([]models.QuoteRevision, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuoteRevision), args.Error(1)
}

func (m *mockQuoteRepo) ListEvents(ctx context.Context, quoteID int64) ([]models.QuoteEvent, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuoteEvent), args.Error(1)
}

func (m *mockQuoteRepo) RecordView(ctx context.Context, id int64, ip, userAgent string) (bool, error) {
	args := m.Called(ctx, id, ip, userAgent)
	return args.Bool(0), args.Error(1)
}

func (m *mockQuoteRepo) Accept(ctx context.Context, id int64, actor uuid.UUID) (*models.QuoteRequest, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuoteRequest), args.Error(1)
}

func (m *mockQuoteRepo) Decline(ctx context.Context, id int64, actor *uuid.UUID, reason string) error {
	args := m.Called(ctx, id, actor, reason)
	return args.Error(0)
}

func (m *mockQuoteRepo) IssueQuote(ctx context.Context, p repository.IssueQuoteParams) (*models.QuoteRequest, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuoteRequest), args.Error(1)
}

func (m *mockQuoteRepo) UpdateStatus(ctx context.Context, id int64, newStatus string, changedBy uuid.UUID, notes string) error {
	args := m.Called(ctx, id, newStatus, changedBy, notes)
	return args.Error(0)
}

type stubVerifier struct {
	ok bool
}

func (s stubVerifier) VerifyQuoteToken(token string, quoteID int64) bool {
	return s.ok
}

type countingNotifier struct {
	wakes int
}

func (n *countingNotifier) Wake() {
	n.wakes++
}

func quotedRequest(owner uuid.UUID) *models.QuoteRequest {
	amount := int64(45000)
	expires := time.Now().Add(72 * time.Hour)
	return &models.QuoteRequest{
		ID:                  7,
		UserID:              &owner,
		ContactName:         "Иван",
		ContactEmail:        "ivan@example.com",
		EventType:           "wedding",
		Status:              models.StatusQuoted,
		QuotedAmountCents:   &amount,
		CurrentQuoteVersion: 1,
		QuoteExpiresAt:      &expires,
	}
}

func TestAcceptQuote_Success(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)
	accepted := *q
	accepted.Status = models.StatusQuoteAccepted
	accepted.TotalAmountCents = q.QuotedAmountCents

	repo := new(mockQuoteRepo)
	notifier := &countingNotifier{}
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)
	repo.On("Accept", mock.Anything, int64(7), owner).Return(&accepted, nil)

	svc := NewQuoteService(repo, stubVerifier{}, notifier)
	result, err := svc.AcceptQuote(context.Background(), 7, Viewer{ID: owner, Role: models.RoleCustomer})

	assert.NoError(t, err)
	assert.Equal(t, models.StatusQuoteAccepted, result.Status)
	assert.Equal(t, q.QuotedAmountCents, result.TotalAmountCents)
	assert.Equal(t, 1, notifier.wakes)
	repo.AssertExpectations(t)
}

func TestAcceptQuote_AlreadyAccepted(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)
	q.Status = models.StatusQuoteAccepted

	repo := new(mockQuoteRepo)
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)

	svc := NewQuoteService(repo, stubVerifier{}, nil)
	_, err := svc.AcceptQuote(context.Background(), 7, Viewer{ID: owner})

	assert.ErrorIs(t, err, apperror.ErrAlreadyAccepted)
	assert.True(t, apperror.IsBadRequest(err))
	repo.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptQuote_PaidIsAlsoLate(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)
	q.Status = models.StatusPaid

	repo := new(mockQuoteRepo)
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)

	svc := NewQuoteService(repo, stubVerifier{}, nil)
	_, err := svc.AcceptQuote(context.Background(), 7, Viewer{ID: owner})

	assert.ErrorIs(t, err, apperror.ErrAlreadyAccepted)
}

func TestAcceptQuote_Expired(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)
	past := time.Now().Add(-time.Hour)
	q.QuoteExpiresAt = &past

	repo := new(mockQuoteRepo)
	notifier := &countingNotifier{}
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)

	svc := NewQuoteService(repo, stubVerifier{}, notifier)
	_, err := svc.AcceptQuote(context.Background(), 7, Viewer{ID: owner})

	assert.ErrorIs(t, err, apperror.ErrQuoteExpired)
	assert.Zero(t, notifier.wakes)
	repo.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptQuote_NotOwner(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	q := quotedRequest(owner)

	repo := new(mockQuoteRepo)
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)

	svc := NewQuoteService(repo, stubVerifier{}, nil)
	_, err := svc.AcceptQuote(context.Background(), 7, Viewer{ID: stranger})

	// Чужая заявка видна как запрет доступа, а не как отсутствие.
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.False(t, apperror.IsNotFound(err))
}

func TestAcceptQuote_NoAmountIssued(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)
	q.QuotedAmountCents = nil
	q.Status = models.StatusSubmitted

	repo := new(mockQuoteRepo)
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)

	svc := NewQuoteService(repo, stubVerifier{}, nil)
	_, err := svc.AcceptQuote(context.Background(), 7, Viewer{ID: owner})

	assert.ErrorIs(t, err, apperror.ErrQuoteNotIssued)
}

func TestGetQuote_NotIssuedRegardlessOfViewer(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)
	q.QuotedAmountCents = nil
	q.Status = models.StatusSubmitted

	viewers := []*Viewer{
		nil,
		{ID: uuid.New(), Role: models.RoleCustomer},
		{ID: owner, Role: models.RoleCustomer},
		{ID: uuid.New(), Role: models.RoleAdmin},
	}

	for i, viewer := range viewers {
		repo := new(mockQuoteRepo)
		repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)

		svc := NewQuoteService(repo, stubVerifier{}, nil)
		_, err := svc.GetQuote(context.Background(), 7, viewer, "")

		assert.ErrorIs(t, err, apperror.ErrQuoteNotIssued, "viewer #%d", i)
		assert.True(t, apperror.IsBadRequest(err), "viewer #%d", i)
	}
}

func TestGetQuote_OwnerAndAdmin(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)

	repo := new(mockQuoteRepo)
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)
	svc := NewQuoteService(repo, stubVerifier{}, nil)

	view, err := svc.GetQuote(context.Background(), 7, &Viewer{ID: owner, Role: models.RoleCustomer}, "")
	assert.NoError(t, err)
	assert.False(t, view.IsExpired)

	_, err = svc.GetQuote(context.Background(), 7, &Viewer{ID: uuid.New(), Role: models.RoleAdmin}, "")
	assert.NoError(t, err)

	_, err = svc.GetQuote(context.Background(), 7, &Viewer{ID: uuid.New(), Role: models.RoleCustomer}, "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestGetQuote_AnonymousToken(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)

	repo := new(mockQuoteRepo)
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)

	svc := NewQuoteService(repo, stubVerifier{ok: true}, nil)
	view, err := svc.GetQuote(context.Background(), 7, nil, "signed-token")
	assert.NoError(t, err)
	assert.Equal(t, int64(7), view.Quote.ID)

	svc = NewQuoteService(repo, stubVerifier{ok: false}, nil)
	_, err = svc.GetQuote(context.Background(), 7, nil, "tampered-token")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.GetQuote(context.Background(), 7, nil, "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestGetQuote_ExpiredFlag(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)
	past := time.Now().Add(-time.Minute)
	q.QuoteExpiresAt = &past

	repo := new(mockQuoteRepo)
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)

	svc := NewQuoteService(repo, stubVerifier{}, nil)
	view, err := svc.GetQuote(context.Background(), 7, &Viewer{ID: owner}, "")

	// Просроченное предложение остаётся читаемым, меняется только флаг.
	assert.NoError(t, err)
	assert.True(t, view.IsExpired)
}

func TestDeclineQuote(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)

	repo := new(mockQuoteRepo)
	notifier := &countingNotifier{}
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)
	repo.On("Decline", mock.Anything, int64(7), &owner, "too expensive").Return(nil)

	svc := NewQuoteService(repo, stubVerifier{}, notifier)
	err := svc.DeclineQuote(context.Background(), 7, Viewer{ID: owner}, "too expensive")

	assert.NoError(t, err)
	assert.Equal(t, 1, notifier.wakes)
	repo.AssertExpectations(t)
}

func TestDeclineQuote_NotOwner(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)

	repo := new(mockQuoteRepo)
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)

	svc := NewQuoteService(repo, stubVerifier{}, nil)
	err := svc.DeclineQuote(context.Background(), 7, Viewer{ID: uuid.New()}, "")

	assert.ErrorIs(t, err, apperror.ErrForbidden)
	repo.AssertNotCalled(t, "Decline", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordView_SwallowsStorageErrors(t *testing.T) {
	repo := new(mockQuoteRepo)
	repo.On("RecordView", mock.Anything, int64(7), "10.0.0.1", "Mozilla/5.0").
		Return(false, errors.New("connection refused"))

	svc := NewQuoteService(repo, stubVerifier{}, nil)
	assert.False(t, svc.RecordView(context.Background(), 7, "10.0.0.1", "Mozilla/5.0"))

	repo = new(mockQuoteRepo)
	repo.On("RecordView", mock.Anything, int64(7), "10.0.0.1", "Mozilla/5.0").Return(true, nil)
	svc = NewQuoteService(repo, stubVerifier{}, nil)
	assert.True(t, svc.RecordView(context.Background(), 7, "10.0.0.1", "Mozilla/5.0"))
}

func TestIssueQuote_Validation(t *testing.T) {
	repo := new(mockQuoteRepo)
	svc := NewQuoteService(repo, stubVerifier{}, nil)

	_, err := svc.IssueQuote(context.Background(), IssueQuoteInput{QuoteID: 7, AmountCents: 0})
	assert.True(t, apperror.IsBadRequest(err))

	_, err = svc.IssueQuote(context.Background(), IssueQuoteInput{QuoteID: 7, AmountCents: -100})
	assert.True(t, apperror.IsBadRequest(err))

	past := time.Now().Add(-time.Hour)
	_, err = svc.IssueQuote(context.Background(), IssueQuoteInput{QuoteID: 7, AmountCents: 45000, ExpiresAt: &past})
	assert.True(t, apperror.IsBadRequest(err))

	repo.AssertNotCalled(t, "IssueQuote", mock.Anything, mock.Anything)
}

func TestIssueQuote_Success(t *testing.T) {
	admin := uuid.New()
	owner := uuid.New()
	q := quotedRequest(owner)
	expires := time.Now().Add(72 * time.Hour)

	repo := new(mockQuoteRepo)
	notifier := &countingNotifier{}
	repo.On("IssueQuote", mock.Anything, mock.MatchedBy(func(p repository.IssueQuoteParams) bool {
		return p.QuoteID == 7 && p.AmountCents == 50000 && p.CreatedBy == admin
	})).Return(q, nil)

	svc := NewQuoteService(repo, stubVerifier{}, notifier)
	_, err := svc.IssueQuote(context.Background(), IssueQuoteInput{
		QuoteID:     7,
		AmountCents: 50000,
		ExpiresAt:   &expires,
		Notes:       "включая свет и звук",
		IssuedBy:    admin,
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, notifier.wakes)
	repo.AssertExpectations(t)
}

func TestListQuotes_RejectsUnknownStatus(t *testing.T) {
	repo := new(mockQuoteRepo)
	svc := NewQuoteService(repo, stubVerifier{}, nil)

	_, _, err := svc.ListQuotes(context.Background(), "bogus", 20, 0)
	assert.True(t, apperror.IsBadRequest(err))
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListQuotes_ClampsLimit(t *testing.T) {
	repo := new(mockQuoteRepo)
	repo.On("List", mock.Anything, "", 20, 0).Return([]models.QuoteRequest{}, 0, nil)

	svc := NewQuoteService(repo, stubVerifier{}, nil)
	_, _, err := svc.ListQuotes(context.Background(), "", 500, -3)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGetEvents_AdminOnly(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)

	repo := new(mockQuoteRepo)
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)
	repo.On("ListEvents", mock.Anything, int64(7)).Return([]models.QuoteEvent{}, nil)

	svc := NewQuoteService(repo, stubVerifier{}, nil)

	_, err := svc.GetEvents(context.Background(), 7, Viewer{ID: owner, Role: models.RoleCustomer})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.GetEvents(context.Background(), 7, Viewer{ID: uuid.New(), Role: models.RoleAdmin})
	assert.NoError(t, err)
}

func TestCreateBooking_Validation(t *testing.T) {
	repo := new(mockQuoteRepo)
	svc := NewQuoteService(repo, stubVerifier{}, nil)

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{ContactEmail: "a@b.c"})
	assert.True(t, apperror.IsBadRequest(err))

	_, err = svc.CreateBooking(context.Background(), CreateBookingInput{ContactName: "Иван", ContactEmail: "not-an-email"})
	assert.True(t, apperror.IsBadRequest(err))
}

func TestCreateBooking_Success(t *testing.T) {
	repo := new(mockQuoteRepo)
	notifier := &countingNotifier{}
	repo.On("Create", mock.Anything, mock.MatchedBy(func(q *models.QuoteRequest) bool {
		return q.ContactName == "Иван" && q.ContactEmail == "ivan@example.com"
	})).Return(nil)

	svc := NewQuoteService(repo, stubVerifier{}, notifier)
	q, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		ContactName:  "  Иван ",
		ContactEmail: " ivan@example.com ",
		EventType:    "wedding",
	})

	assert.NoError(t, err)
	assert.NotNil(t, q)
	assert.Equal(t, 1, notifier.wakes)
	repo.AssertExpectations(t)
}

func TestGetQuoteForOwner(t *testing.T) {
	owner := uuid.New()
	q := quotedRequest(owner)

	repo := new(mockQuoteRepo)
	repo.On("GetByID", mock.Anything, int64(7)).Return(q, nil)
	svc := NewQuoteService(repo, stubVerifier{}, nil)

	got, err := svc.GetQuoteForOwner(context.Background(), 7, owner)
	assert.NoError(t, err)
	assert.Equal(t, q.ID, got.ID)

	_, err = svc.GetQuoteForOwner(context.Background(), 7, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestGetQuote_NotFoundPassthrough(t *testing.T) {
	repo := new(mockQuoteRepo)
	repo.On("GetByID", mock.Anything, int64(404)).Return(nil, apperror.ErrQuoteNotFound)

	svc := NewQuoteService(repo, stubVerifier{}, nil)
	_, err := svc.GetQuote(context.Background(), 404, nil, "")

	assert.True(t, apperror.IsNotFound(err))
	assert.ErrorIs(t, err, apperror.ErrQuoteNotFound)
}
