package repository

import "github.com/yourorg/personnelapi/internal/query"

// Query schemas are the per-resource allow-lists for the generic query
// handler. They live next to the repositories because the column names do.

// DepartmentSchema returns the queryable surface of departments.
func DepartmentSchema(defaultSize, maxSize int) query.Schema {
	return query.Schema{
		Fields: map[string]query.Column{
			"id":        {Name: "id", Kind: query.String},
			"name":      {Name: "name", Kind: query.String},
			"managerId": {Name: "manager_id", Kind: query.String},
			"createdAt": {Name: "created_at", Kind: query.Time},
			"updatedAt": {Name: "updated_at", Kind: query.Time},
		},
		IDField:         "id",
		DefaultPageSize: defaultSize,
		MaxPageSize:     maxSize,
	}
}

// PersonnelSchema returns the queryable surface of personnel records.
func PersonnelSchema(defaultSize, maxSize int) query.Schema {
	return query.Schema{
		Fields: map[string]query.Column{
			"id":           {Name: "id", Kind: query.String},
			"firstName":    {Name: "first_name", Kind: query.String},
			"lastName":     {Name: "last_name", Kind: query.String},
			"gender":       {Name: "gender", Kind: query.String},
			"title":        {Name: "title", Kind: query.String},
			"salary":       {Name: "salary", Kind: query.Float},
			"departmentId": {Name: "department_id", Kind: query.String},
			"isActive":     {Name: "is_active", Kind: query.Bool},
			"startedAt":    {Name: "started_at", Kind: query.Time},
			"createdAt":    {Name: "created_at", Kind: query.Time},
			"updatedAt":    {Name: "updated_at", Kind: query.Time},
		},
		IDField:         "id",
		DefaultPageSize: defaultSize,
		MaxPageSize:     maxSize,
	}
}
