package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/logger"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Типизированные ошибки приложения отдаются клиенту со своим кодом,
// всё остальное маскируется как внутренняя ошибка.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Проверяем, не был ли уже отправлен ответ
		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

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

		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  apperror.ErrCodeInternal,
			"error": "внутренняя ошибка сервера",
		})
	}
}
