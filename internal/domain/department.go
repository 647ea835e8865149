package domain

import (
	"context"
	"time"

	"github.com/yourorg/personnelapi/internal/query"
)

// Department is an organizational unit. Name is unique. ManagerID optionally
// points at a personnel record and is cleared when that record goes away.
type Department struct {
	ID        string    `json:"id"` // UUID
	Name      string    `json:"name"`
	ManagerID *string   `json:"managerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DepartmentRepository defines data access for departments.
type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id string) (*Department, error)
	// List returns one page of departments plus the unpaginated total.
	List(ctx context.Context, desc *query.Descriptor) ([]*Department, int, error)
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, id string) error
	// CountPersonnel reports how many personnel records reference the
	// department, for the delete-is-blocked policy.
	CountPersonnel(ctx context.Context, id string) (int, error)
}
