package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/personnelapi/internal/apperror"
	"github.com/yourorg/personnelapi/internal/domain"
	"github.com/yourorg/personnelapi/internal/query"
)

// PersonnelService implements personnel CRUD. Every write that sets a
// department reference verifies the department exists first; the existence
// check and the insert are not atomic against a concurrent department
// delete, which is why the schema backs the check with a RESTRICT foreign
// key.
type PersonnelService struct {
	personnels  domain.PersonnelRepository
	departments domain.DepartmentRepository
	logger      *slog.Logger
}

// NewPersonnelService creates a new personnel service.
func NewPersonnelService(personnels domain.PersonnelRepository, departments domain.DepartmentRepository, logger *slog.Logger) *PersonnelService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersonnelService{personnels: personnels, departments: departments, logger: logger}
}

// PersonnelInput carries the fields for a create.
type PersonnelInput struct {
	FirstName    string
	LastName     string
	Gender       string
	Title        string
	Salary       float64
	DepartmentID string
	StartedAt    time.Time
}

// PersonnelPatch carries a partial update; nil fields are left untouched.
type PersonnelPatch struct {
	FirstName    *string
	LastName     *string
	Gender       *string
	Title        *string
	Salary       *float64
	DepartmentID *string
	IsActive     *bool
	StartedAt    *time.Time
}

// Create inserts a new personnel record.
func (s *PersonnelService) Create(ctx context.Context, input PersonnelInput) (*domain.Personnel, error) {
	if err := s.checkDepartment(ctx, input.DepartmentID); err != nil {
		return nil, err
	}

	p := &domain.Personnel{
		ID:           uuid.NewString(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Gender:       input.Gender,
		Title:        input.Title,
		Salary:       input.Salary,
		DepartmentID: input.DepartmentID,
		IsActive:     true,
		StartedAt:    input.StartedAt,
	}
	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now()
	}

	if err := s.personnels.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("personnel created",
		slog.String("personnel_id", p.ID),
		slog.String("department_id", p.DepartmentID),
	)
	return p, nil
}

// Get retrieves a personnel record by id.
func (s *PersonnelService) Get(ctx context.Context, id string) (*domain.Personnel, error) {
	return s.personnels.GetByID(ctx, id)
}

// List returns one page of personnel records for the descriptor.
func (s *PersonnelService) List(ctx context.Context, desc *query.Descriptor) ([]*domain.Personnel, int, error) {
	return s.personnels.List(ctx, desc)
}

// Update applies a partial update.
func (s *PersonnelService) Update(ctx context.Context, id string, patch PersonnelPatch) (*domain.Personnel, error) {
	p, err := s.personnels.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.DepartmentID != nil && *patch.DepartmentID != p.DepartmentID {
		if err := s.checkDepartment(ctx, *patch.DepartmentID); err != nil {
			return nil, err
		}
		p.DepartmentID = *patch.DepartmentID
	}
	if patch.FirstName != nil {
		p.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		p.LastName = *patch.LastName
	}
	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Salary != nil {
		p.Salary = *patch.Salary
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.StartedAt != nil {
		p.StartedAt = *patch.StartedAt
	}

	if err := s.personnels.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a personnel record. Departments managed by this person
// keep existing; the schema clears their manager reference.
func (s *PersonnelService) Delete(ctx context.Context, id string) error {
	if err := s.personnels.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("personnel deleted", slog.String("personnel_id", id))
	return nil
}

func (s *PersonnelService) checkDepartment(ctx context.Context, departmentID string) error {
	if departmentID == "" {
		return apperror.New(apperror.BadRequest, "department id is required")
	}
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		if apperror.Is(err, apperror.NotFound) {
			return apperror.New(apperror.BadRequest, "department %q does not exist", departmentID)
		}
		return err
	}
	return nil
}
