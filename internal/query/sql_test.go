package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSelectNoFilters(t *testing.T) {
	d := &Descriptor{
		Sort:     []SortField{{Field: "id", Column: "id"}},
		Page:     1,
		PageSize: 20,
	}
	sql, args := BuildSelect("departments", []string{"id", "name"}, d)

	assert.Equal(t, "SELECT id, name FROM departments ORDER BY id ASC LIMIT $1 OFFSET $2", sql)
	assert.Equal(t, []any{20, 0}, args)
}

func TestBuildSelectWithFiltersAndSort(t *testing.T) {
	d := &Descriptor{
		Filters: []Filter{
			{Field: "salary", Column: "salary", Op: OpGte, Value: float64(1000)},
			{Field: "isActive", Column: "is_active", Op: OpEq, Value: true},
		},
		Sort:     []SortField{{Field: "name", Column: "name", Desc: true}, {Field: "id", Column: "id"}},
		Page:     3,
		PageSize: 10,
	}
	sql, args := BuildSelect("personnels", []string{"id", "name", "salary"}, d)

	assert.Equal(t,
		"SELECT id, name, salary FROM personnels WHERE salary >= $1 AND is_active = $2 "+
			"ORDER BY name DESC, id ASC LIMIT $3 OFFSET $4",
		sql)
	assert.Equal(t, []any{float64(1000), true, 10, 20}, args)
}

func TestBuildCount(t *testing.T) {
	d := &Descriptor{
		Filters:  []Filter{{Field: "name", Column: "name", Op: OpNe, Value: "HR"}},
		Page:     1,
		PageSize: 20,
	}
	sql, args := BuildCount("departments", d)

	assert.Equal(t, "SELECT COUNT(*) FROM departments WHERE name <> $1", sql)
	assert.Equal(t, []any{"HR"}, args)
}
