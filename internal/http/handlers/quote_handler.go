package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/dto"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/http/handlers/common"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/service"
)

type QuoteHandler struct {
	quotes *service.QuoteService
}

// NewQuoteHandler создаёт новый хэндлер.
func NewQuoteHandler(quotes *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// GetQuote обрабатывает GET /quotes/:id. Авторизация: владелец,
// администратор или анонимный доступ по токену из письма (?token=).
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	quoteID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	viewer := common.CurrentViewer(c)
	token := c.Query("token")

	view, err := h.quotes.GetQuote(c.Request.Context(), quoteID, viewer, token)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": dto.NewQuoteResponse(view.Quote, view.IsExpired)})
}

// RecordView обрабатывает POST /quotes/:id/view. Ошибки хранилища не
// фатальны: клиенту всегда отвечаем 200, в худшем случае viewed=false.
func (h *QuoteHandler) RecordView(c *gin.Context) {
	quoteID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	ok := h.quotes.RecordView(c.Request.Context(), quoteID, c.ClientIP(), c.Request.UserAgent())
	c.JSON(http.StatusOK, gin.H{"viewed": ok})
}

// AcceptQuote обрабатывает POST /quotes/:id/accept.
func (h *QuoteHandler) AcceptQuote(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	quoteID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	accepted, err := h.quotes.AcceptQuote(c.Request.Context(), quoteID, service.Viewer{ID: userID, Role: role})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "предложение принято",
		"quote":   dto.NewQuoteResponse(accepted, false),
	})
}

// DeclineQuote обрабатывает POST /quotes/:id/decline.
func (h *QuoteHandler) DeclineQuote(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	quoteID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.DeclineQuoteRequest
	// Тело опционально: отказ без причины тоже валиден.
	_ = c.ShouldBindJSON(&req)

	if err := h.quotes.DeclineQuote(c.Request.Context(), quoteID, service.Viewer{ID: userID, Role: role}, req.Reason); err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "предложение отклонено",
	})
}

// GetRevisionHistory обрабатывает GET /quotes/:id/revisions.
func (h *QuoteHandler) GetRevisionHistory(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	quoteID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	revisions, err := h.quotes.GetRevisionHistory(c.Request.Context(), quoteID, service.Viewer{ID: userID, Role: role})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revisions": dto.NewRevisionResponses(revisions)})
}
