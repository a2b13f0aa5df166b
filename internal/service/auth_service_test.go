package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/pkg/apperror"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestAuthService_Register(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "ivan@example.com").Return(nil, apperror.ErrUserNotFound)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "ivan@example.com" && u.Role == models.RoleCustomer && u.PasswordHash != "secret-pass"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = uuid.New()
	}).Return(nil)

	svc := NewAuthService(users, newTestTokenManager())
	user, pair, err := svc.Register(context.Background(), " Ivan@Example.com ", "secret-pass", "Иван")

	assert.NoError(t, err)
	assert.Equal(t, "ivan@example.com", user.Email)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-pass")))
	users.AssertExpectations(t)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := NewAuthService(new(mockUserRepo), newTestTokenManager())

	_, _, err := svc.Register(context.Background(), "no-at-sign", "secret-pass", "")
	assert.True(t, apperror.IsBadRequest(err))

	_, _, err = svc.Register(context.Background(), "ivan@example.com", "short", "")
	assert.True(t, apperror.IsBadRequest(err))
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "ivan@example.com").
		Return(&models.User{ID: uuid.New(), Email: "ivan@example.com"}, nil)

	svc := NewAuthService(users, newTestTokenManager())
	_, _, err := svc.Register(context.Background(), "ivan@example.com", "secret-pass", "")

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.DefaultCost)
	assert.NoError(t, err)

	stored := &models.User{ID: uuid.New(), Email: "ivan@example.com", PasswordHash: string(hash), Role: models.RoleCustomer}
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "ivan@example.com").Return(stored, nil)

	svc := NewAuthService(users, newTestTokenManager())

	user, pair, err := svc.Login(context.Background(), "ivan@example.com", "secret-pass")
	assert.NoError(t, err)
	assert.Equal(t, stored.ID, user.ID)
	assert.NotEmpty(t, pair.RefreshToken)

	_, _, err = svc.Login(context.Background(), "ivan@example.com", "wrong-pass")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_LoginUnknownEmail(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperror.ErrUserNotFound)

	svc := NewAuthService(users, newTestTokenManager())
	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever-pass")

	// Для несуществующего email отдаём ту же ошибку, что и для неверного пароля.
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Refresh(t *testing.T) {
	tokens := newTestTokenManager()
	svc := NewAuthService(new(mockUserRepo), tokens)

	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer}
	pair, err := tokens.GeneratePair(user)
	assert.NoError(t, err)

	fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)
	assert.NoError(t, err)

	userID, role, err := tokens.ParseAccess(fresh.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, models.RoleCustomer, role)

	_, err = svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
