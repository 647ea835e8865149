package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/personnelapi/internal/domain"
	"github.com/yourorg/personnelapi/internal/query"
	"github.com/yourorg/personnelapi/internal/respond"
	"github.com/yourorg/personnelapi/internal/service"
)

// DepartmentRequest is the create payload.
type DepartmentRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=128"`
	ManagerID *string `json:"managerId,omitempty"`
}

// DepartmentPatchRequest is the partial-update payload; absent fields stay
// untouched.
type DepartmentPatchRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=2,max=128"`
	ManagerID *string `json:"managerId,omitempty"`
}

// DepartmentHandler serves department CRUD.
type DepartmentHandler struct {
	departments *service.DepartmentService
	schema      query.Schema
	logger      *slog.Logger
}

// NewDepartmentHandler creates a new department handler.
func NewDepartmentHandler(departments *service.DepartmentService, schema query.Schema, logger *slog.Logger) *DepartmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DepartmentHandler{departments: departments, schema: schema, logger: logger}
}

// List handles GET /departments.
func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	desc, err := query.Parse(r.URL.Query(), h.schema)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	departments, total, err := h.departments.List(r.Context(), desc)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	data := make([]any, 0, len(departments))
	for _, d := range departments {
		data = append(data, projectDepartment(d, desc))
	}
	respond.List(w, data, respond.Paging{
		Total: total,
		Pages: desc.Pages(total),
		Page:  desc.Page,
		Size:  desc.PageSize,
	})
}

// Get handles GET /departments/{id}.
func (h *DepartmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.departments.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", d)
}

// Create handles POST /departments.
func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if err := decodeBody(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	d, err := h.departments.Create(r.Context(), req.Name, req.ManagerID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "department created", d)
}

// Update handles PUT /departments/{id}.
func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req DepartmentPatchRequest
	if err := decodeBody(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	d, err := h.departments.Update(r.Context(), r.PathValue("id"), service.DepartmentPatch{
		Name:      req.Name,
		ManagerID: req.ManagerID,
	})
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "department updated", d)
}

// Delete handles DELETE /departments/{id}.
func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.departments.Delete(r.Context(), r.PathValue("id")); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.NoContent(w)
}

// projectDepartment applies ?fields= selection at serialization time.
func projectDepartment(d *domain.Department, desc *query.Descriptor) any {
	if len(desc.Fields) == 0 {
		return d
	}
	out := make(map[string]any, len(desc.Fields))
	if desc.Selects("id") {
		out["id"] = d.ID
	}
	if desc.Selects("name") {
		out["name"] = d.Name
	}
	if desc.Selects("managerId") {
		out["managerId"] = d.ManagerID
	}
	if desc.Selects("createdAt") {
		out["createdAt"] = d.CreatedAt
	}
	if desc.Selects("updatedAt") {
		out["updatedAt"] = d.UpdatedAt
	}
	return out
}
