package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/dto"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/http/handlers/common"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/pkg/apperror"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/repository"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/service"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/storage"
)

type BookingHandler struct {
	quotes      *service.QuoteService
	attachments *repository.AttachmentRepository
	files       *storage.AttachmentStorage
}

// NewBookingHandler создаёт новый хэндлер.
func NewBookingHandler(quotes *service.QuoteService, attachments *repository.AttachmentRepository, files *storage.AttachmentStorage) *BookingHandler {
	return &BookingHandler{quotes: quotes, attachments: attachments, files: files}
}

// CreateBooking обрабатывает POST /bookings. Доступен анонимно:
// авторизованный пользователь привязывается к заявке как владелец.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	eventDate, err := req.ParseEventDate()
	if err != nil {
		common.RespondBadRequest(c, "event_date должен быть в формате RFC3339")
		return
	}

	var userID *uuid.UUID
	if id, err := common.CurrentUserID(c); err == nil {
		userID = &id
	}

	quote, err := h.quotes.CreateBooking(c.Request.Context(), service.CreateBookingInput{
		UserID:       userID,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		EventType:    req.EventType,
		EventDate:    eventDate,
		EventDetails: req.EventDetails,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"booking": quote})
}

// ListMyBookings обрабатывает GET /bookings/my.
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	quotes, err := h.quotes.ListMyQuotes(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": quotes})
}

// UploadAttachment обрабатывает POST /bookings/:id/attachments.
// Файл принимается только от владельца заявки, тип проверяется по сигнатуре.
func (h *BookingHandler) UploadAttachment(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	quoteID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	quote, err := h.quotes.GetQuoteForOwner(c.Request.Context(), quoteID, userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "файл не передан")
		return
	}

	saved, err := h.files.Save(header)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	attachment := &models.BookingAttachment{
		QuoteID:   quote.ID,
		FileName:  header.Filename,
		FilePath:  saved.Path,
		MimeType:  saved.MimeType,
		SizeBytes: saved.SizeBytes,
	}
	if err := h.attachments.Create(c.Request.Context(), attachment); err != nil {
		// Файл без строки в базе никому не нужен.
		_ = h.files.Remove(saved.Path)
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"attachment": attachment})
}

// ListAttachments обрабатывает GET /bookings/:id/attachments.
func (h *BookingHandler) ListAttachments(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	quoteID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	role, _ := common.CurrentUserRole(c)
	if role != models.RoleAdmin {
		if _, err := h.quotes.GetQuoteForOwner(c.Request.Context(), quoteID, userID); err != nil {
			common.RespondError(c, err)
			return
		}
	}

	attachments, err := h.attachments.ListByQuote(c.Request.Context(), quoteID)
	if err != nil {
		common.RespondError(c, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить файлы"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"attachments": attachments})
}
