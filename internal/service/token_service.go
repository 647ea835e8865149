package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/personnelapi/internal/apperror"
	"github.com/yourorg/personnelapi/internal/domain"
)

// TokenService issues and validates opaque bearer tokens. Keys carry 256
// bits of entropy, so uniqueness comes from generation, not a stored
// constraint check; only the SHA-256 digest is persisted.
type TokenService struct {
	tokens domain.TokenRepository
	users  domain.UserRepository
	ttl    time.Duration // 0 = tokens never expire
	logger *slog.Logger
}

// NewTokenService creates a new token service.
func NewTokenService(tokens domain.TokenRepository, users domain.UserRepository, ttl time.Duration, logger *slog.Logger) *TokenService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenService{tokens: tokens, users: users, ttl: ttl, logger: logger}
}

// Issue mints a new token for the user and returns the record along with
// the raw key. The raw key is not recoverable afterwards.
func (s *TokenService) Issue(ctx context.Context, user *domain.User, device string) (*domain.Token, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, "", apperror.Wrap(apperror.Internal, err, "failed to issue token")
	}
	rawKey := hex.EncodeToString(buf)

	token := &domain.Token{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		KeyDigest: digest(rawKey),
		Device:    device,
		IssuedAt:  time.Now(),
	}
	if s.ttl > 0 {
		expires := token.IssuedAt.Add(s.ttl)
		token.ExpiresAt = &expires
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, "", err
	}

	s.logger.Info("token issued",
		slog.String("token_id", token.ID),
		slog.String("user_id", user.ID),
		slog.String("device", device),
	)
	return token, rawKey, nil
}

// Validate resolves a raw key to its owning user. Absent, expired and
// orphaned tokens all fail the same way so the caller cannot distinguish
// them. Read-only: expiry is not refreshed.
func (s *TokenService) Validate(ctx context.Context, rawKey string) (*domain.User, error) {
	if rawKey == "" {
		return nil, apperror.New(apperror.Unauthenticated, "invalid token")
	}

	token, err := s.tokens.GetByDigest(ctx, digest(rawKey))
	if err != nil {
		return nil, apperror.New(apperror.Unauthenticated, "invalid token")
	}
	if token.Expired(time.Now()) {
		return nil, apperror.New(apperror.Unauthenticated, "invalid token")
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil || !user.IsActive {
		return nil, apperror.New(apperror.Unauthenticated, "invalid token")
	}
	return user, nil
}

// Revoke deletes a token by id. Only the owner or an admin may revoke.
func (s *TokenService) Revoke(ctx context.Context, id string, actor *domain.User) error {
	token, err := s.tokens.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if token.UserID != actor.ID && actor.Role != domain.RoleAdmin {
		return apperror.New(apperror.Forbidden, "cannot revoke another user's token")
	}
	if err := s.tokens.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("token revoked",
		slog.String("token_id", id),
		slog.String("actor_id", actor.ID),
	)
	return nil
}

// RevokeByKey deletes the token identified by its raw key. Used by logout,
// where the caller proves ownership by presenting the key itself.
func (s *TokenService) RevokeByKey(ctx context.Context, rawKey string) error {
	token, err := s.tokens.GetByDigest(ctx, digest(rawKey))
	if err != nil {
		return err
	}
	return s.tokens.Delete(ctx, token.ID)
}

// ListForUser returns the user's active tokens.
func (s *TokenService) ListForUser(ctx context.Context, userID string) ([]*domain.Token, error) {
	return s.tokens.ListByUser(ctx, userID)
}

func digest(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}
