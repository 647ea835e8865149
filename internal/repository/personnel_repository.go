package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/yourorg/personnelapi/internal/apperror"
	"github.com/yourorg/personnelapi/internal/domain"
	"github.com/yourorg/personnelapi/internal/query"
)

// PostgresPersonnelRepository implements domain.PersonnelRepository using
// PostgreSQL.
type PostgresPersonnelRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPersonnelRepository creates a new personnel repository.
func NewPostgresPersonnelRepository(db *sql.DB, logger *slog.Logger) *PostgresPersonnelRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPersonnelRepository{db: db, logger: logger}
}

var personnelColumns = []string{
	"id", "first_name", "last_name", "gender", "title", "salary",
	"department_id", "is_active", "started_at", "created_at", "updated_at",
}

func scanPersonnel(row interface{ Scan(...any) error }) (*domain.Personnel, error) {
	p := &domain.Personnel{}
	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Gender,
		&p.Title,
		&p.Salary,
		&p.DepartmentID,
		&p.IsActive,
		&p.StartedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new personnel record.
func (r *PostgresPersonnelRepository) Create(ctx context.Context, p *domain.Personnel) error {
	stmt := `
		INSERT INTO personnels (id, first_name, last_name, gender, title, salary, department_id, is_active, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, stmt,
		p.ID,
		p.FirstName,
		p.LastName,
		p.Gender,
		p.Title,
		p.Salary,
		p.DepartmentID,
		p.IsActive,
		p.StartedAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create personnel",
			slog.String("last_name", p.LastName),
			slog.String("error", err.Error()),
		)
		return classifyWrite(err, "personnel")
	}
	return nil
}

// GetByID retrieves a personnel record by ID.
func (r *PostgresPersonnelRepository) GetByID(ctx context.Context, id string) (*domain.Personnel, error) {
	stmt := "SELECT " + strings.Join(personnelColumns, ", ") + " FROM personnels WHERE id = $1"
	p, err := scanPersonnel(r.db.QueryRowContext(ctx, stmt, id))
	if err != nil {
		return nil, classifyRead(err, "personnel")
	}
	return p, nil
}

// List returns one page of personnel records matching the descriptor plus
// the unpaginated total.
func (r *PostgresPersonnelRepository) List(ctx context.Context, desc *query.Descriptor) ([]*domain.Personnel, int, error) {
	stmt, args := query.BuildSelect("personnels", personnelColumns, desc)
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, 0, apperror.Wrap(apperror.Internal, err, "failed to list personnels")
	}
	defer rows.Close()

	var personnels []*domain.Personnel
	for rows.Next() {
		p, err := scanPersonnel(rows)
		if err != nil {
			return nil, 0, apperror.Wrap(apperror.Internal, err, "failed to scan personnel")
		}
		personnels = append(personnels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Wrap(apperror.Internal, err, "failed to list personnels")
	}

	countStmt, countArgs := query.BuildCount("personnels", desc)
	var total int
	if err := r.db.QueryRowContext(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperror.Wrap(apperror.Internal, err, "failed to count personnels")
	}

	return personnels, total, nil
}

// Update updates an existing personnel record.
func (r *PostgresPersonnelRepository) Update(ctx context.Context, p *domain.Personnel) error {
	stmt := `
		UPDATE personnels
		SET first_name = $1, last_name = $2, gender = $3, title = $4, salary = $5,
		    department_id = $6, is_active = $7, started_at = $8, updated_at = now()
		WHERE id = $9
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, stmt,
		p.FirstName,
		p.LastName,
		p.Gender,
		p.Title,
		p.Salary,
		p.DepartmentID,
		p.IsActive,
		p.StartedAt,
		p.ID,
	).Scan(&p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("personnel")
		}
		return classifyWrite(err, "personnel")
	}
	return nil
}

// Delete removes a personnel record. A department managed by this person
// keeps existing with its manager reference cleared by the schema.
func (r *PostgresPersonnelRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM personnels WHERE id = $1", id)
	if err != nil {
		return classifyDelete(err, "personnel")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Wrap(apperror.Internal, err, "failed to delete personnel")
	}
	if rows == 0 {
		return notFound("personnel")
	}
	return nil
}
