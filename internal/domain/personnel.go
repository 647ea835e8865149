package domain

import (
	"context"
	"time"

	"github.com/yourorg/personnelapi/internal/query"
)

// Personnel is an employment record. DepartmentID is required and must
// resolve to an existing department at write time.
type Personnel struct {
	ID           string    `json:"id"` // UUID
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Gender       string    `json:"gender,omitempty"`
	Title        string    `json:"title"`
	Salary       float64   `json:"salary"`
	DepartmentID string    `json:"departmentId"`
	IsActive     bool      `json:"isActive"`
	StartedAt    time.Time `json:"startedAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PersonnelRepository defines data access for personnel records.
type PersonnelRepository interface {
	Create(ctx context.Context, p *Personnel) error
	GetByID(ctx context.Context, id string) (*Personnel, error)
	List(ctx context.Context, desc *query.Descriptor) ([]*Personnel, int, error)
	Update(ctx context.Context, p *Personnel) error
	Delete(ctx context.Context, id string) error
}
