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

// PostgresDepartmentRepository implements domain.DepartmentRepository using
// PostgreSQL.
type PostgresDepartmentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresDepartmentRepository creates a new department repository.
func NewPostgresDepartmentRepository(db *sql.DB, logger *slog.Logger) *PostgresDepartmentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDepartmentRepository{db: db, logger: logger}
}

var departmentColumns = []string{"id", "name", "manager_id", "created_at", "updated_at"}

// Create inserts a new department.
func (r *PostgresDepartmentRepository) Create(ctx context.Context, d *domain.Department) error {
	stmt := `
		INSERT INTO departments (id, name, manager_id)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, stmt, d.ID, d.Name, d.ManagerID).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create department",
			slog.String("name", d.Name),
			slog.String("error", err.Error()),
		)
		return classifyWrite(err, "department")
	}
	return nil
}

// GetByID retrieves a department by ID.
func (r *PostgresDepartmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	d := &domain.Department{}
	stmt := "SELECT " + strings.Join(departmentColumns, ", ") + " FROM departments WHERE id = $1"
	err := r.db.QueryRowContext(ctx, stmt, id).Scan(&d.ID, &d.Name, &d.ManagerID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, classifyRead(err, "department")
	}
	return d, nil
}

// List returns one page of departments matching the descriptor plus the
// unpaginated total.
func (r *PostgresDepartmentRepository) List(ctx context.Context, desc *query.Descriptor) ([]*domain.Department, int, error) {
	stmt, args := query.BuildSelect("departments", departmentColumns, desc)
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, 0, apperror.Wrap(apperror.Internal, err, "failed to list departments")
	}
	defer rows.Close()

	var departments []*domain.Department
	for rows.Next() {
		d := &domain.Department{}
		if err := rows.Scan(&d.ID, &d.Name, &d.ManagerID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, apperror.Wrap(apperror.Internal, err, "failed to scan department")
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Wrap(apperror.Internal, err, "failed to list departments")
	}

	countStmt, countArgs := query.BuildCount("departments", desc)
	var total int
	if err := r.db.QueryRowContext(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperror.Wrap(apperror.Internal, err, "failed to count departments")
	}

	return departments, total, nil
}

// Update updates an existing department.
func (r *PostgresDepartmentRepository) Update(ctx context.Context, d *domain.Department) error {
	stmt := `
		UPDATE departments
		SET name = $1, manager_id = $2, updated_at = now()
		WHERE id = $3
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, stmt, d.Name, d.ManagerID, d.ID).Scan(&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("department")
		}
		return classifyWrite(err, "department")
	}
	return nil
}

// Delete removes a department. The RESTRICT foreign key turns a concurrent
// personnel insert into a Conflict here instead of an orphaned reference.
func (r *PostgresDepartmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM departments WHERE id = $1", id)
	if err != nil {
		return classifyDelete(err, "department")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Wrap(apperror.Internal, err, "failed to delete department")
	}
	if rows == 0 {
		return notFound("department")
	}
	return nil
}

// CountPersonnel reports how many personnel records reference the
// department.
func (r *PostgresDepartmentRepository) CountPersonnel(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM personnels WHERE department_id = $1", id).Scan(&count)
	if err != nil {
		return 0, apperror.Wrap(apperror.Internal, err, "failed to count personnel")
	}
	return count, nil
}
