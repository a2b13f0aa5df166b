package common

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/http/middleware"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/service"
)

var (
	// ErrUserNotFound пользователь отсутствует в контексте запроса.
	ErrUserNotFound = errors.New("пользователь не найден в контексте")

	// ErrInvalidID параметр пути не является числовым идентификатором.
	ErrInvalidID = errors.New("неверный формат идентификатора")
)

// CurrentUserID извлекает userID из контекста.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}

	return userID, nil
}

// CurrentUserRole извлекает роль пользователя из контекста.
func CurrentUserRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", ErrUserNotFound
	}

	role, ok := raw.(string)
	if !ok {
		return "", ErrUserNotFound
	}

	return role, nil
}

// CurrentViewer собирает аутентифицированного пользователя из контекста,
// nil если запрос анонимный.
func CurrentViewer(c *gin.Context) *service.Viewer {
	userID, err := CurrentUserID(c)
	if err != nil {
		return nil
	}
	role, _ := CurrentUserRole(c)
	return &service.Viewer{ID: userID, Role: role}
}

// ParseIDParam парсит числовой идентификатор из URL параметра.
func ParseIDParam(c *gin.Context, paramName string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
