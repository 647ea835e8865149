package query

import (
	"fmt"
	"strings"
)

// BuildSelect renders the descriptor into a parameterized SELECT over the
// given table and column list. Column and table names come from schemas and
// repository code, never from the client, so only values are parameterized.
func BuildSelect(table string, columns []string, d *Descriptor) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(table)

	where, args := whereClause(d, 1)
	b.WriteString(where)

	if len(d.Sort) > 0 {
		b.WriteString(" ORDER BY ")
		parts := make([]string, 0, len(d.Sort))
		for _, s := range d.Sort {
			dir := "ASC"
			if s.Desc {
				dir = "DESC"
			}
			parts = append(parts, s.Column+" "+dir)
		}
		b.WriteString(strings.Join(parts, ", "))
	}

	b.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
	args = append(args, d.PageSize, d.Offset())

	return b.String(), args
}

// BuildCount renders the matching COUNT query for the same filters.
func BuildCount(table string, d *Descriptor) (string, []any) {
	where, args := whereClause(d, 1)
	return "SELECT COUNT(*) FROM " + table + where, args
}

func whereClause(d *Descriptor, firstArg int) (string, []any) {
	if len(d.Filters) == 0 {
		return "", nil
	}
	preds := make([]string, 0, len(d.Filters))
	args := make([]any, 0, len(d.Filters))
	for i, f := range d.Filters {
		preds = append(preds, fmt.Sprintf("%s %s $%d", f.Column, sqlOps[f.Op], firstArg+i))
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(preds, " AND "), args
}
