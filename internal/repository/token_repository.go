package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/yourorg/personnelapi/internal/apperror"
	"github.com/yourorg/personnelapi/internal/domain"
)

// PostgresTokenRepository implements domain.TokenRepository using PostgreSQL.
type PostgresTokenRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTokenRepository creates a new token repository.
func NewPostgresTokenRepository(db *sql.DB, logger *slog.Logger) *PostgresTokenRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTokenRepository{db: db, logger: logger}
}

const tokenColumns = "id, user_id, key_digest, device, issued_at, expires_at"

// Create inserts a new token record.
func (r *PostgresTokenRepository) Create(ctx context.Context, t *domain.Token) error {
	query := `
		INSERT INTO tokens (id, user_id, key_digest, device, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.UserID,
		t.KeyDigest,
		t.Device,
		t.IssuedAt,
		t.ExpiresAt,
	)
	if err != nil {
		r.logger.Error("failed to create token",
			slog.String("user_id", t.UserID),
			slog.String("error", err.Error()),
		)
		return classifyWrite(err, "token")
	}
	return nil
}

// GetByID retrieves a token by ID.
func (r *PostgresTokenRepository) GetByID(ctx context.Context, id string) (*domain.Token, error) {
	return r.getOne(ctx, "WHERE id = $1", id)
}

// GetByDigest retrieves a token by its key digest. This is the validation
// point read.
func (r *PostgresTokenRepository) GetByDigest(ctx context.Context, digest string) (*domain.Token, error) {
	return r.getOne(ctx, "WHERE key_digest = $1", digest)
}

func (r *PostgresTokenRepository) getOne(ctx context.Context, where string, arg any) (*domain.Token, error) {
	t := &domain.Token{}
	err := r.db.QueryRowContext(ctx, "SELECT "+tokenColumns+" FROM tokens "+where, arg).Scan(
		&t.ID,
		&t.UserID,
		&t.KeyDigest,
		&t.Device,
		&t.IssuedAt,
		&t.ExpiresAt,
	)
	if err != nil {
		return nil, classifyRead(err, "token")
	}
	return t, nil
}

// ListByUser lists all tokens owned by a user, newest first.
func (r *PostgresTokenRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Token, error) {
	query := "SELECT " + tokenColumns + " FROM tokens WHERE user_id = $1 ORDER BY issued_at DESC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to list tokens")
	}
	defer rows.Close()

	var tokens []*domain.Token
	for rows.Next() {
		t := &domain.Token{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.KeyDigest, &t.Device, &t.IssuedAt, &t.ExpiresAt); err != nil {
			return nil, apperror.Wrap(apperror.Internal, err, "failed to scan token")
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to list tokens")
	}
	return tokens, nil
}

// Delete removes a token record.
func (r *PostgresTokenRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tokens WHERE id = $1", id)
	if err != nil {
		return classifyDelete(err, "token")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Wrap(apperror.Internal, err, "failed to delete token")
	}
	if rows == 0 {
		return notFound("token")
	}
	return nil
}

// DeleteExpired purges tokens whose expiry has passed.
func (r *PostgresTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tokens WHERE expires_at IS NOT NULL AND expires_at < $1", now)
	if err != nil {
		return 0, apperror.Wrap(apperror.Internal, err, "failed to purge expired tokens")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperror.Wrap(apperror.Internal, err, "failed to purge expired tokens")
	}
	return int(rows), nil
}
