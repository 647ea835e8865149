package domain

import (
	"context"
	"time"
)

// Token is one issued bearer credential. The raw key is handed to the client
// exactly once; only its SHA-256 digest is persisted, so validation is a
// point read by digest. A user may hold several tokens at once, one per
// device or integration.
type Token struct {
	ID        string     `json:"id"` // UUID
	UserID    string     `json:"userId"`
	KeyDigest string     `json:"-"`
	Device    string     `json:"device,omitempty"`
	IssuedAt  time.Time  `json:"issuedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"` // nil = no expiry
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// TokenRepository defines data access for bearer tokens.
type TokenRepository interface {
	Create(ctx context.Context, t *Token) error
	GetByID(ctx context.Context, id string) (*Token, error)
	GetByDigest(ctx context.Context, digest string) (*Token, error)
	ListByUser(ctx context.Context, userID string) ([]*Token, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired purges tokens whose expiry has passed, returning the
	// number removed. Used by the cleanup worker.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
