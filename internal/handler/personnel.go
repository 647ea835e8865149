package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/personnelapi/internal/domain"
	"github.com/yourorg/personnelapi/internal/query"
	"github.com/yourorg/personnelapi/internal/respond"
	"github.com/yourorg/personnelapi/internal/service"
)

// PersonnelRequest is the create payload.
type PersonnelRequest struct {
	FirstName    string     `json:"firstName" validate:"required,min=1,max=64"`
	LastName     string     `json:"lastName" validate:"required,min=1,max=64"`
	Gender       string     `json:"gender,omitempty" validate:"omitempty,oneof=female male other"`
	Title        string     `json:"title,omitempty" validate:"max=128"`
	Salary       float64    `json:"salary" validate:"gte=0"`
	DepartmentID string     `json:"departmentId" validate:"required"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
}

// PersonnelPatchRequest is the partial-update payload.
type PersonnelPatchRequest struct {
	FirstName    *string    `json:"firstName,omitempty" validate:"omitempty,min=1,max=64"`
	LastName     *string    `json:"lastName,omitempty" validate:"omitempty,min=1,max=64"`
	Gender       *string    `json:"gender,omitempty" validate:"omitempty,oneof=female male other"`
	Title        *string    `json:"title,omitempty" validate:"omitempty,max=128"`
	Salary       *float64   `json:"salary,omitempty" validate:"omitempty,gte=0"`
	DepartmentID *string    `json:"departmentId,omitempty"`
	IsActive     *bool      `json:"isActive,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
}

// PersonnelHandler serves personnel CRUD.
type PersonnelHandler struct {
	personnels *service.PersonnelService
	schema     query.Schema
	logger     *slog.Logger
}

// NewPersonnelHandler creates a new personnel handler.
func NewPersonnelHandler(personnels *service.PersonnelService, schema query.Schema, logger *slog.Logger) *PersonnelHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersonnelHandler{personnels: personnels, schema: schema, logger: logger}
}

// List handles GET /personnels.
func (h *PersonnelHandler) List(w http.ResponseWriter, r *http.Request) {
	desc, err := query.Parse(r.URL.Query(), h.schema)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	personnels, total, err := h.personnels.List(r.Context(), desc)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	data := make([]any, 0, len(personnels))
	for _, p := range personnels {
		data = append(data, projectPersonnel(p, desc))
	}
	respond.List(w, data, respond.Paging{
		Total: total,
		Pages: desc.Pages(total),
		Page:  desc.Page,
		Size:  desc.PageSize,
	})
}

// Get handles GET /personnels/{id}.
func (h *PersonnelHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.personnels.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", p)
}

// Create handles POST /personnels.
func (h *PersonnelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PersonnelRequest
	if err := decodeBody(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	input := service.PersonnelInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Gender:       req.Gender,
		Title:        req.Title,
		Salary:       req.Salary,
		DepartmentID: req.DepartmentID,
	}
	if req.StartedAt != nil {
		input.StartedAt = *req.StartedAt
	}

	p, err := h.personnels.Create(r.Context(), input)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "personnel created", p)
}

// Update handles PUT /personnels/{id}.
func (h *PersonnelHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req PersonnelPatchRequest
	if err := decodeBody(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	p, err := h.personnels.Update(r.Context(), r.PathValue("id"), service.PersonnelPatch{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Gender:       req.Gender,
		Title:        req.Title,
		Salary:       req.Salary,
		DepartmentID: req.DepartmentID,
		IsActive:     req.IsActive,
		StartedAt:    req.StartedAt,
	})
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "personnel updated", p)
}

// Delete handles DELETE /personnels/{id}.
func (h *PersonnelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.personnels.Delete(r.Context(), r.PathValue("id")); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.NoContent(w)
}

func projectPersonnel(p *domain.Personnel, desc *query.Descriptor) any {
	if len(desc.Fields) == 0 {
		return p
	}
	out := make(map[string]any, len(desc.Fields))
	if desc.Selects("id") {
		out["id"] = p.ID
	}
	if desc.Selects("firstName") {
		out["firstName"] = p.FirstName
	}
	if desc.Selects("lastName") {
		out["lastName"] = p.LastName
	}
	if desc.Selects("gender") {
		out["gender"] = p.Gender
	}
	if desc.Selects("title") {
		out["title"] = p.Title
	}
	if desc.Selects("salary") {
		out["salary"] = p.Salary
	}
	if desc.Selects("departmentId") {
		out["departmentId"] = p.DepartmentID
	}
	if desc.Selects("isActive") {
		out["isActive"] = p.IsActive
	}
	if desc.Selects("startedAt") {
		out["startedAt"] = p.StartedAt
	}
	if desc.Selects("createdAt") {
		out["createdAt"] = p.CreatedAt
	}
	if desc.Selects("updatedAt") {
		out["updatedAt"] = p.UpdatedAt
	}
	return out
}
