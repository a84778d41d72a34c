package services_test

import (
	"context"
	"errors"
	"testing"

	"portfolio/internal/auth"
	"portfolio/internal/models"
	"portfolio/internal/repositories"
	"portfolio/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

const testJWTSecret = "test_jwt_secret"

func TestAuthService_Register(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, auth.NewTokenManager(testJWTSecret))
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "u@x.com" && u.Name == "Ursula" && auth.CheckPassword("secret1", u.Password)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = "user-1"
	}).Return(nil).Once()

	user, err := authService.Register(ctx, services.RegisterInput{Name: "Ursula", Email: "u@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.NotEqual(t, "secret1", user.Password)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, auth.NewTokenManager(testJWTSecret))

	conflict := &repositories.StoreError{Code: repositories.CodeUniqueViolation, Meta: map[string]any{"target": []string{"email"}}}
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(conflict).Once()

	user, err := authService.Register(context.Background(), services.RegisterInput{Name: "Ursula", Email: "u@x.com", Password: "secret1"})
	assert.Nil(t, user)
	assert.Same(t, conflict, err)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokens := auth.NewTokenManager(testJWTSecret)
	authService := services.NewAuthService(mockRepo, tokens)

	hashed, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	user := &models.User{ID: "user-123", Name: "Ursula", Email: "u@x.com", Password: hashed}

	// Test successful login
	mockRepo.On("GetByEmail", mock.Anything, "u@x.com").Return(user, nil).Once()
	token, err := authService.Login(context.Background(), "u@x.com", "secret1")
	require.NoError(t, err)

	id, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{Subject: "user-123", Email: "u@x.com"}, id)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByEmail", mock.Anything, "u@x.com").Return(user, nil).Once()
	token, err = authService.Login(context.Background(), "u@x.com", "wrong-password")
	assert.Empty(t, token)
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Test invalid credentials (unknown email)
	mockRepo.On("GetByEmail", mock.Anything, "ghost@x.com").Return(nil, &repositories.StoreError{
		Code: repositories.CodeRecordNotFound,
		Err:  repositories.ErrNotFound,
	}).Once()
	token, err = authService.Login(context.Background(), "ghost@x.com", "secret1")
	assert.Empty(t, token)
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, auth.NewTokenManager(testJWTSecret))

	dbErr := errors.New("failed to get user by email: connection refused")
	mockRepo.On("GetByEmail", mock.Anything, "u@x.com").Return(nil, dbErr).Once()

	_, err := authService.Login(context.Background(), "u@x.com", "secret1")
	assert.Same(t, dbErr, err)
	assert.NotErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}
