package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
)

// TokenPair хранит пару access/refresh токенов.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"expires_in"`
}

// TokenManager отвечает за выпуск и проверку JWT: пары access/refresh
// для пользователей и подписанные токены доступа к предложению,
// которые вкладываются в письмо клиенту без учётной записи.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	quoteSecret   []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	quoteTTL      time.Duration
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(accessSecret, refreshSecret, quoteSecret string, accessTTL, refreshTTL, quoteTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		quoteSecret:   []byte(quoteSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		quoteTTL:      quoteTTL,
	}
}

// GeneratePair выпускает новую пару токенов.
func (m *TokenManager) GeneratePair(user *models.User) (*TokenPair, error) {
	now := time.Now()

	accessToken, err := m.createToken(user, now.Add(m.accessTTL), m.accessSecret)
	if err != nil {
		return nil, err
	}

	refreshToken, err := m.createToken(user, now.Add(m.refreshTTL), m.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    m.accessTTL,
	}, nil
}

func (m *TokenManager) createToken(user *models.User, expiresAt time.Time, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  expiresAt.Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseAccess извлекает userID и роль из access токена.
func (m *TokenManager) ParseAccess(token string) (uuid.UUID, string, error) {
	return m.parseUserToken(token, m.accessSecret)
}

// ParseRefresh проверяет refresh токен.
func (m *TokenManager) ParseRefresh(token string) (uuid.UUID, string, error) {
	return m.parseUserToken(token, m.refreshSecret)
}

func (m *TokenManager) parseUserToken(token string, secret []byte) (uuid.UUID, string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("token: неожиданный метод подписи %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	role, _ := claims["role"].(string)
	return userID, role, nil
}

// GenerateQuoteToken выпускает токен анонимного доступа к конкретной заявке.
func (m *TokenManager) GenerateQuoteToken(quoteID int64) (string, error) {
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(quoteID, 10),
		"scope": "quote",
		"exp":   time.Now().Add(m.quoteTTL).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.quoteSecret)
}

// VerifyQuoteToken проверяет токен и сверяет его с идентификатором заявки.
func (m *TokenManager) VerifyQuoteToken(token string, quoteID int64) bool {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("token: неожиданный метод подписи %v", t.Header["alg"])
		}
		return m.quoteSecret, nil
	})
	if err != nil || !parsed.Valid {
		return false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	if scope, _ := claims["scope"].(string); scope != "quote" {
		return false
	}

	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return false
	}
	return id == quoteID
}
