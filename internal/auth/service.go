package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/trackhub/trackhub/internal/shared"
)

// Service wraps authentication business rules: credential checks, principal
// resolution for verified tokens, and the logout denylist.
type Service struct {
	repo   Repository
	tokens *TokenManager
	redis  *redis.Client
}

// NewService constructs a new Service. The Redis client is optional; without
// it logout revocation degrades to token expiry.
func NewService(repo Repository, tokens *TokenManager, redisClient *redis.Client) *Service {
	return &Service{repo: repo, tokens: tokens, redis: redisClient}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != shared.StatusActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// IssueToken signs a bearer token for the user.
func (s *Service) IssueToken(user *User) (string, error) {
	return s.tokens.Generate(user)
}

// ResolvePrincipal verifies a raw token and resolves the live account behind
// it. Secret fields are stripped before the principal leaves this layer.
func (s *Service) ResolvePrincipal(ctx context.Context, rawToken string) (*shared.Principal, error) {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return nil, err
	}
	if claims.ID != "" && s.isRevoked(ctx, claims.ID) {
		return nil, ErrInvalidToken
	}
	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user.Status != shared.StatusActive {
		return nil, ErrAccountDisabled
	}
	return &shared.Principal{
		ID:          user.ID,
		Name:        user.Name,
		Role:        user.Role,
		Permissions: user.Permissions,
		Status:      user.Status,
	}, nil
}

// RevokeToken denylists the token id for the remainder of its lifetime.
func (s *Service) RevokeToken(ctx context.Context, rawToken string) error {
	if s.redis == nil {
		return nil
	}
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		// Nothing to revoke for tokens that no longer verify.
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, denylistKey(claims.ID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("auth: denylist token: %w", err)
	}
	return nil
}

func (s *Service) isRevoked(ctx context.Context, jti string) bool {
	if s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, denylistKey(jti)).Result()
	return err == nil && n > 0
}

func denylistKey(jti string) string {
	return "auth:denylist:" + jti
}
