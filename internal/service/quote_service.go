package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/logger"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/pkg/apperror"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/repository"
)

// QuoteRepository описывает взаимодействие сервиса с хранилищем заявок.
type QuoteRepository interface {
	Create(ctx context.Context, q *models.QuoteRequest) error
	GetByID(ctx context.Context, id int64) (*models.QuoteRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QuoteRequest, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.QuoteRequest, int, error)
	ListRevisions(ctx context.Context, quoteID int64) ([]models.QuoteRevision, error)
	ListEvents(ctx context.Context, quoteID int64) ([]models.QuoteEvent, error)
	RecordView(ctx context.Context, id int64, ip, userAgent string) (bool, error)
	Accept(ctx context.Context, id int64, actor uuid.UUID) (*models.QuoteRequest, error)
	Decline(ctx context.Context, id int64, actor *uuid.UUID, reason string) error
	IssueQuote(ctx context.Context, p repository.IssueQuoteParams) (*models.QuoteRequest, error)
	UpdateStatus(ctx context.Context, id int64, newStatus string, changedBy uuid.UUID, notes string) error
}

// QuoteTokenVerifier проверяет подписанный токен доступа к предложению.
type QuoteTokenVerifier interface {
	VerifyQuoteToken(token string, quoteID int64) bool
}

// OutboxNotifier будит воркер рассылки после зафиксированной транзакции.
type OutboxNotifier interface {
	Wake()
}

// QuoteService содержит бизнес-логику жизненного цикла заявок.
type QuoteService struct {
	repo     QuoteRepository
	tokens   QuoteTokenVerifier
	notifier OutboxNotifier
}

// NewQuoteService создаёт новый сервис заявок.
func NewQuoteService(repo QuoteRepository, tokens QuoteTokenVerifier, notifier OutboxNotifier) *QuoteService {
	return &QuoteService{repo: repo, tokens: tokens, notifier: notifier}
}

// Viewer аутентифицированный пользователь, от имени которого выполняется операция.
type Viewer struct {
	ID   uuid.UUID
	Role string
}

// CreateBookingInput входные данные заявки на бронирование.
type CreateBookingInput struct {
	UserID       *uuid.UUID
	ContactName  string
	ContactEmail string
	EventType    string
	EventDate    *time.Time
	EventDetails string
}

// QuoteView заявка вместе с вычисленным признаком истечения срока.
type QuoteView struct {
	Quote     *models.QuoteRequest
	IsExpired bool
}

// CreateBooking регистрирует новую заявку на бронирование.
func (s *QuoteService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.QuoteRequest, error) {
	if strings.TrimSpace(in.ContactName) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "имя контакта не может быть пустым")
	}
	if !strings.Contains(in.ContactEmail, "@") {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный email")
	}

	q := &models.QuoteRequest{
		UserID:       in.UserID,
		ContactName:  strings.TrimSpace(in.ContactName),
		ContactEmail: strings.TrimSpace(in.ContactEmail),
		EventType:    in.EventType,
		EventDate:    in.EventDate,
		EventDetails: in.EventDetails,
	}

	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}

	s.wake()
	return q, nil
}

// GetQuote возвращает предложение. Доступ: владелец, администратор или
// анонимный посетитель с валидным подписанным токеном из письма.
func (s *QuoteService) GetQuote(ctx context.Context, id int64, viewer *Viewer, accessToken string) (*QuoteView, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !q.HasQuote() {
		return nil, apperror.ErrQuoteNotIssued
	}

	if !s.canRead(q, viewer, accessToken) {
		return nil, apperror.ErrForbidden
	}

	return &QuoteView{Quote: q, IsExpired: q.IsExpired(time.Now())}, nil
}

// RecordView фиксирует просмотр предложения клиентом. Ошибки хранилища
// не фатальны: событие теряется, но клиенту всегда отвечаем без ошибки.
func (s *QuoteService) RecordView(ctx context.Context, id int64, ip, userAgent string) bool {
	_, err := s.repo.RecordView(ctx, id, ip, userAgent)
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithField("quote_id", id).WithError(err).Warn("record view failed")
		}
		return false
	}
	return true
}

// AcceptQuote принимает предложение от имени владельца заявки.
// Порядок предусловий: существование, владение, наличие суммы,
// повторное принятие, срок действия. Первая неудача выигрывает.
func (s *QuoteService) AcceptQuote(ctx context.Context, id int64, viewer Viewer) (*models.QuoteRequest, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !q.IsOwnedBy(viewer.ID) {
		return nil, apperror.ErrForbidden
	}
	if !q.HasQuote() {
		return nil, apperror.ErrQuoteNotIssued
	}
	if models.IsAcceptedOrLater(q.Status) {
		return nil, apperror.ErrAlreadyAccepted
	}
	if q.IsExpired(time.Now()) {
		return nil, apperror.ErrQuoteExpired
	}

	// Предусловия перепроверяются в транзакции под блокировкой строки.
	accepted, err := s.repo.Accept(ctx, id, viewer.ID)
	if err != nil {
		return nil, err
	}

	s.wake()
	return accepted, nil
}

// DeclineQuote отклоняет предложение от имени владельца заявки.
func (s *QuoteService) DeclineQuote(ctx context.Context, id int64, viewer Viewer, reason string) error {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !q.IsOwnedBy(viewer.ID) {
		return apperror.ErrForbidden
	}

	actor := viewer.ID
	if err := s.repo.Decline(ctx, id, &actor, reason); err != nil {
		return err
	}

	s.wake()
	return nil
}

// GetRevisionHistory возвращает историю ревизий суммы: владелец или администратор.
func (s *QuoteService) GetRevisionHistory(ctx context.Context, id int64, viewer Viewer) ([]models.QuoteRevision, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !q.IsOwnedBy(viewer.ID) && viewer.Role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	return s.repo.ListRevisions(ctx, id)
}

// GetQuoteForOwner возвращает заявку, если она принадлежит пользователю.
func (s *QuoteService) GetQuoteForOwner(ctx context.Context, id int64, userID uuid.UUID) (*models.QuoteRequest, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.IsOwnedBy(userID) {
		return nil, apperror.ErrForbidden
	}
	return q, nil
}

// ListMyQuotes возвращает заявки текущего пользователя.
func (s *QuoteService) ListMyQuotes(ctx context.Context, userID uuid.UUID) ([]models.QuoteRequest, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListQuotes возвращает страницу заявок для админки.
func (s *QuoteService) ListQuotes(ctx context.Context, status string, limit, offset int) ([]models.QuoteRequest, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if status != "" && !models.IsValidStatus(status) {
		return nil, 0, apperror.New(apperror.ErrCodeValidation, "неизвестный статус")
	}
	return s.repo.List(ctx, status, limit, offset)
}

// GetEvents возвращает журнал событий заявки (только администратор).
func (s *QuoteService) GetEvents(ctx context.Context, id int64, viewer Viewer) ([]models.QuoteEvent, error) {
	if viewer.Role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, id)
}

// IssueQuoteInput входные данные выставления предложения.
type IssueQuoteInput struct {
	QuoteID     int64
	AmountCents int64
	ExpiresAt   *time.Time
	Notes       string
	IssuedBy    uuid.UUID
}

// IssueQuote выставляет предложение клиенту (только администратор).
func (s *QuoteService) IssueQuote(ctx context.Context, in IssueQuoteInput) (*models.QuoteRequest, error) {
	if in.AmountCents <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма должна быть положительной")
	}
	if in.ExpiresAt != nil && in.ExpiresAt.Before(time.Now()) {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок действия не может быть в прошлом")
	}

	issued, err := s.repo.IssueQuote(ctx, repository.IssueQuoteParams{
		QuoteID:     in.QuoteID,
		AmountCents: in.AmountCents,
		ExpiresAt:   in.ExpiresAt,
		Notes:       in.Notes,
		CreatedBy:   in.IssuedBy,
	})
	if err != nil {
		return nil, err
	}

	s.wake()
	return issued, nil
}

// UpdateStatus выполняет административный переход статуса.
func (s *QuoteService) UpdateStatus(ctx context.Context, id int64, newStatus string, changedBy uuid.UUID, notes string) error {
	return s.repo.UpdateStatus(ctx, id, newStatus, changedBy, notes)
}

// canRead проверяет право чтения предложения.
func (s *QuoteService) canRead(q *models.QuoteRequest, viewer *Viewer, accessToken string) bool {
	if viewer != nil {
		return q.IsOwnedBy(viewer.ID) || viewer.Role == models.RoleAdmin
	}
	if accessToken == "" || s.tokens == nil {
		return false
	}
	return s.tokens.VerifyQuoteToken(accessToken, q.ID)
}

func (s *QuoteService) wake() {
	if s.notifier != nil {
		s.notifier.Wake()
	}
}
