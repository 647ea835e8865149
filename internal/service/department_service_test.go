package service

import (
	"context"
	"testing"

	"github.com/yourorg/personnelapi/internal/apperror"
	"github.com/yourorg/personnelapi/internal/domain"
	"github.com/yourorg/personnelapi/internal/repository/memory"
)

func newDepartmentFixture(t *testing.T) (*DepartmentService, *memory.DepartmentRepository, *memory.PersonnelRepository) {
	t.Helper()
	personnels := memory.NewPersonnelRepository()
	departments := memory.NewDepartmentRepository(personnels)
	return NewDepartmentService(departments, personnels, testLogger()), departments, personnels
}

func TestDepartmentCreate(t *testing.T) {
	svc, departments, _ := newDepartmentFixture(t)

	d, err := svc.Create(context.Background(), "Engineering", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if d.ID == "" {
		t.Fatal("expected a generated id")
	}

	stored, err := departments.GetByID(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if stored.Name != "Engineering" {
		t.Errorf("stored name %q, want Engineering", stored.Name)
	}
}

func TestDepartmentCreateDuplicateName(t *testing.T) {
	svc, _, _ := newDepartmentFixture(t)

	if _, err := svc.Create(context.Background(), "Sales", nil); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	_, err := svc.Create(context.Background(), "Sales", nil)
	if !apperror.Is(err, apperror.Conflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestDepartmentCreateUnknownManager(t *testing.T) {
	svc, _, _ := newDepartmentFixture(t)

	ghost := "no-such-person"
	_, err := svc.Create(context.Background(), "Ops", &ghost)
	if !apperror.Is(err, apperror.BadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestDepartmentUpdateManager(t *testing.T) {
	svc, _, personnels := newDepartmentFixture(t)

	d, err := svc.Create(context.Background(), "Support", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	manager := &domain.Personnel{ID: "p1", FirstName: "Ann", LastName: "Lee", DepartmentID: d.ID, IsActive: true}
	if err := personnels.Create(context.Background(), manager); err != nil {
		t.Fatalf("seeding personnel: %v", err)
	}

	updated, err := svc.Update(context.Background(), d.ID, DepartmentPatch{ManagerID: &manager.ID})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.ManagerID == nil || *updated.ManagerID != manager.ID {
		t.Fatalf("manager not set: %v", updated.ManagerID)
	}

	// A non-nil empty id clears the reference.
	empty := ""
	updated, err = svc.Update(context.Background(), d.ID, DepartmentPatch{ManagerID: &empty})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.ManagerID != nil {
		t.Errorf("manager not cleared: %v", *updated.ManagerID)
	}
}

func TestDepartmentUpdateUnknownID(t *testing.T) {
	svc, _, _ := newDepartmentFixture(t)

	name := "Renamed"
	_, err := svc.Update(context.Background(), "missing", DepartmentPatch{Name: &name})
	if !apperror.Is(err, apperror.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDepartmentDeleteBlockedByPersonnel(t *testing.T) {
	svc, _, personnels := newDepartmentFixture(t)

	d, err := svc.Create(context.Background(), "Finance", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	p := &domain.Personnel{ID: "p1", FirstName: "Bo", LastName: "Kim", DepartmentID: d.ID, IsActive: true}
	if err := personnels.Create(context.Background(), p); err != nil {
		t.Fatalf("seeding personnel: %v", err)
	}

	if err := svc.Delete(context.Background(), d.ID); !apperror.Is(err, apperror.Conflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}

	if err := personnels.Delete(context.Background(), p.ID); err != nil {
		t.Fatalf("removing personnel: %v", err)
	}
	if err := svc.Delete(context.Background(), d.ID); err != nil {
		t.Fatalf("Delete after clearing personnel returned error: %v", err)
	}
	if _, err := svc.Get(context.Background(), d.ID); !apperror.Is(err, apperror.NotFound) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}
