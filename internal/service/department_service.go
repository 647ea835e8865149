package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yourorg/personnelapi/internal/apperror"
	"github.com/yourorg/personnelapi/internal/domain"
	"github.com/yourorg/personnelapi/internal/query"
)

// DepartmentService implements department CRUD with referential rules: a
// manager reference must resolve to an existing personnel record, and a
// department with personnel cannot be deleted (blocked, not cascaded).
type DepartmentService struct {
	departments domain.DepartmentRepository
	personnels  domain.PersonnelRepository
	logger      *slog.Logger
}

// NewDepartmentService creates a new department service.
func NewDepartmentService(departments domain.DepartmentRepository, personnels domain.PersonnelRepository, logger *slog.Logger) *DepartmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DepartmentService{departments: departments, personnels: personnels, logger: logger}
}

// DepartmentPatch carries a partial update; nil fields are left untouched.
// A non-nil empty ManagerID clears the manager.
type DepartmentPatch struct {
	Name      *string
	ManagerID *string
}

// Create inserts a new department.
func (s *DepartmentService) Create(ctx context.Context, name string, managerID *string) (*domain.Department, error) {
	managerID, err := s.resolveManager(ctx, managerID)
	if err != nil {
		return nil, err
	}

	d := &domain.Department{
		ID:        uuid.NewString(),
		Name:      name,
		ManagerID: managerID,
	}
	if err := s.departments.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("department created",
		slog.String("department_id", d.ID),
		slog.String("name", d.Name),
	)
	return d, nil
}

// Get retrieves a department by id.
func (s *DepartmentService) Get(ctx context.Context, id string) (*domain.Department, error) {
	return s.departments.GetByID(ctx, id)
}

// List returns one page of departments for the descriptor.
func (s *DepartmentService) List(ctx context.Context, desc *query.Descriptor) ([]*domain.Department, int, error) {
	return s.departments.List(ctx, desc)
}

// Update applies a partial update.
func (s *DepartmentService) Update(ctx context.Context, id string, patch DepartmentPatch) (*domain.Department, error) {
	d, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		d.Name = *patch.Name
	}
	if patch.ManagerID != nil {
		managerID, err := s.resolveManager(ctx, patch.ManagerID)
		if err != nil {
			return nil, err
		}
		d.ManagerID = managerID
	}

	if err := s.departments.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes a department. Deletion is blocked while personnel still
// reference it; the check and the delete are not atomic, so the RESTRICT
// constraint catches the race and reports the same Conflict.
func (s *DepartmentService) Delete(ctx context.Context, id string) error {
	count, err := s.departments.CountPersonnel(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.New(apperror.Conflict, "department has %d personnel and cannot be deleted", count)
	}

	if err := s.departments.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("department deleted", slog.String("department_id", id))
	return nil
}

// resolveManager validates a manager reference. Empty string clears the
// reference.
func (s *DepartmentService) resolveManager(ctx context.Context, managerID *string) (*string, error) {
	if managerID == nil || *managerID == "" {
		return nil, nil
	}
	if _, err := s.personnels.GetByID(ctx, *managerID); err != nil {
		if apperror.Is(err, apperror.NotFound) {
			return nil, apperror.New(apperror.BadRequest, "manager %q does not exist", *managerID)
		}
		return nil, err
	}
	return managerID, nil
}
