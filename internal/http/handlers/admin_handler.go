package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/dto"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/http/handlers/common"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/service"
)

// AdminHandler операции бэк-офиса: выставление предложений,
// переходы статусов, просмотр журнала событий.
type AdminHandler struct {
	quotes *service.QuoteService
	tokens *service.TokenManager
}

// NewAdminHandler создаёт новый хэндлер.
func NewAdminHandler(quotes *service.QuoteService, tokens *service.TokenManager) *AdminHandler {
	return &AdminHandler{quotes: quotes, tokens: tokens}
}

// ListQuotes обрабатывает GET /admin/quotes.
func (h *AdminHandler) ListQuotes(c *gin.Context) {
	status := c.Query("status")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	quotes, total, err := h.quotes.ListQuotes(c.Request.Context(), status, limit, offset)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{Items: quotes, Total: total})
}

// IssueQuote обрабатывает POST /admin/quotes/:id/issue.
// В ответе подписанный токен доступа — он вкладывается в письмо клиенту.
func (h *AdminHandler) IssueQuote(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	quoteID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.IssueQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	expiresAt, err := req.ParseExpiresAt()
	if err != nil {
		common.RespondBadRequest(c, "expires_at должен быть в формате RFC3339")
		return
	}

	issued, err := h.quotes.IssueQuote(c.Request.Context(), service.IssueQuoteInput{
		QuoteID:     quoteID,
		AmountCents: req.AmountCents,
		ExpiresAt:   expiresAt,
		Notes:       req.Notes,
		IssuedBy:    adminID,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	accessToken, err := h.tokens.GenerateQuoteToken(issued.ID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quote":        issued,
		"access_token": accessToken,
	})
}

// UpdateStatus обрабатывает PATCH /admin/quotes/:id/status.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	quoteID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	if err := h.quotes.UpdateStatus(c.Request.Context(), quoteID, req.Status, adminID, req.Notes); err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetEvents обрабатывает GET /admin/quotes/:id/events.
func (h *AdminHandler) GetEvents(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	quoteID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	events, err := h.quotes.GetEvents(c.Request.Context(), quoteID, service.Viewer{ID: adminID, Role: models.RoleAdmin})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
