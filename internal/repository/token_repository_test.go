package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/yourorg/personnelapi/internal/apperror"
	"github.com/yourorg/personnelapi/internal/domain"
)

func newTokenRepo(t *testing.T) (*PostgresTokenRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresTokenRepository(db, nil), mock
}

func TestTokenCreateAndGetByDigest(t *testing.T) {
	repo, mock := newTokenRepo(t)
	issued := time.Now()

	mock.ExpectExec("INSERT INTO tokens").
		WithArgs("tok-1", "user-1", "digest-1", "laptop", issued, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.Token{
		ID:        "tok-1",
		UserID:    "user-1",
		KeyDigest: "digest-1",
		Device:    "laptop",
		IssuedAt:  issued,
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	mock.ExpectQuery("SELECT id, user_id, key_digest, device, issued_at, expires_at FROM tokens WHERE key_digest = \\$1").
		WithArgs("digest-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "key_digest", "device", "issued_at", "expires_at"}).
			AddRow("tok-1", "user-1", "digest-1", "laptop", issued, nil))

	tok, err := repo.GetByDigest(context.Background(), "digest-1")
	if err != nil {
		t.Fatalf("GetByDigest() error: %v", err)
	}
	if tok.ID != "tok-1" || tok.ExpiresAt != nil {
		t.Fatalf("unexpected token %+v", tok)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestTokenGetByDigestMissingIsNotFound(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectQuery("SELECT id, user_id, key_digest, device, issued_at, expires_at FROM tokens WHERE key_digest = \\$1").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByDigest(context.Background(), "nope")
	if apperror.KindOf(err) != apperror.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestTokenListByUser(t *testing.T) {
	repo, mock := newTokenRepo(t)
	issued := time.Now()

	mock.ExpectQuery("SELECT id, user_id, key_digest, device, issued_at, expires_at FROM tokens WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "key_digest", "device", "issued_at", "expires_at"}).
			AddRow("tok-2", "user-1", "d2", "phone", issued, nil).
			AddRow("tok-1", "user-1", "d1", "laptop", issued.Add(-time.Hour), nil))

	tokens, err := repo.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(tokens) != 2 || tokens[0].ID != "tok-2" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
}

func TestTokenDelete(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectExec("DELETE FROM tokens WHERE id = \\$1").
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "tok-1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	mock.ExpectExec("DELETE FROM tokens WHERE id = \\$1").
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "tok-1"); apperror.KindOf(err) != apperror.NotFound {
		t.Fatalf("expected NotFound on second delete, got %v", err)
	}
}

func TestTokenDeleteExpired(t *testing.T) {
	repo, mock := newTokenRepo(t)
	now := time.Now()

	mock.ExpectExec("DELETE FROM tokens WHERE expires_at IS NOT NULL AND expires_at < \\$1").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	purged, err := repo.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("DeleteExpired() error: %v", err)
	}
	if purged != 4 {
		t.Errorf("expected 4 purged, got %d", purged)
	}
}
