package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", "quote-secret",
		15*time.Minute, 24*time.Hour, 30*24*time.Hour)
}

func TestTokenManager_GeneratePairAndParse(t *testing.T) {
	m := newTestTokenManager()
	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer}

	pair, err := m.GeneratePair(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	userID, role, err := m.ParseAccess(pair.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, models.RoleCustomer, role)

	userID, _, err = m.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestTokenManager_CrossSecretRejected(t *testing.T) {
	m := newTestTokenManager()
	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	pair, err := m.GeneratePair(user)
	assert.NoError(t, err)

	// Refresh токен не проходит как access и наоборот.
	_, _, err = m.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)

	_, _, err = m.ParseRefresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestTokenManager_QuoteToken(t *testing.T) {
	m := newTestTokenManager()

	token, err := m.GenerateQuoteToken(42)
	assert.NoError(t, err)

	assert.True(t, m.VerifyQuoteToken(token, 42))
	assert.False(t, m.VerifyQuoteToken(token, 43))
	assert.False(t, m.VerifyQuoteToken("garbage", 42))
	assert.False(t, m.VerifyQuoteToken("", 42))
}

func TestTokenManager_QuoteTokenNotValidAsAccess(t *testing.T) {
	m := newTestTokenManager()

	token, err := m.GenerateQuoteToken(42)
	assert.NoError(t, err)

	_, _, err = m.ParseAccess(token)
	assert.Error(t, err)
}

func TestTokenManager_ExpiredQuoteToken(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret", "quote-secret",
		15*time.Minute, 24*time.Hour, -time.Minute)

	token, err := m.GenerateQuoteToken(42)
	assert.NoError(t, err)
	assert.False(t, m.VerifyQuoteToken(token, 42))
}
