package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"portfolio/internal/auth"
	"portfolio/internal/models"
	"portfolio/internal/repositories"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
// password; the two cases are indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo repositories.UserRepository
	tokens   TokenIssuer

	decoyOnce sync.Once
	decoyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register hashes the password and stores a new user. A taken email
// surfaces as the repository's UniqueViolation error.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hashed,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		// Burn the same bcrypt work as a real comparison.
		auth.CheckPassword(password, s.decoy())
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if !auth.CheckPassword(password, user.Password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.Identity{Subject: user.ID, Email: user.Email})
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		s.decoyHash, _ = auth.HashPassword("decoy-password-for-unknown-users")
	})
	return s.decoyHash
}
