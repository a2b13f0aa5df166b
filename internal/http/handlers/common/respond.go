package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/pkg/apperror"
)

// RespondError отвечает клиенту по типу ошибки: типизированные ошибки
// приложения уходят со своим статусом и кодом, остальные маскируются.
func RespondError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == apperror.ErrCodeTooManyRequests {
			c.Header("Retry-After", fmt.Sprintf("%d", appErr.RetryAfter))
		}
		c.JSON(appErr.HTTPStatus, gin.H{
			"code":  appErr.Code,
			"error": appErr.Message,
		})
		return
	}

	// Неизвестная ошибка уходит в централизованный обработчик и лог.
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":  apperror.ErrCodeInternal,
		"error": "внутренняя ошибка сервера",
	})
}

// RespondBadRequest отвечает 400 с сообщением.
func RespondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":  apperror.ErrCodeBadRequest,
		"error": message,
	})
}

// RespondUnauthorized отвечает 401 с сообщением.
func RespondUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":  apperror.ErrCodeUnauthorized,
		"error": message,
	})
}
