// Package query turns raw URL query strings into a normalized descriptor
// (filter, sort, pagination, field selection) consumed by every list
// endpoint, and renders that descriptor into parameterized SQL. Filterable
// and sortable fields are declared per resource in a Schema allow-list;
// anything outside it is rejected so store-level operators can never be
// injected through the wire.
package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/personnelapi/internal/apperror"
)

// Reserved parameter names that are never treated as filters.
const (
	paramPage   = "page"
	paramSize   = "size"
	paramSort   = "sort"
	paramFields = "fields"
)

// Kind is the value type of a filterable column.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
	Time
)

// Column maps an exposed field name to its SQL column and value kind.
type Column struct {
	Name string // SQL column name
	Kind Kind
}

// Schema is the per-resource allow-list consulted during parsing.
type Schema struct {
	// Fields maps exposed (JSON) field names to columns. Only listed
	// fields may appear in filters, sort and field selection.
	Fields map[string]Column
	// IDField is appended to every sort as an ascending tiebreaker so
	// pagination is deterministic.
	IDField         string
	DefaultPageSize int
	MaxPageSize     int
}

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Filter is one field predicate.
type Filter struct {
	Field  string // exposed name, for error messages
	Column string
	Op     Op
	Value  any
}

// SortField is one (field, direction) pair.
type SortField struct {
	Field  string
	Column string
	Desc   bool
}

// Descriptor is the normalized query consumed by repositories and handlers.
type Descriptor struct {
	Filters  []Filter
	Sort     []SortField
	Page     int // 1-based
	PageSize int
	// Fields holds the exposed names selected via ?fields=; empty means
	// all. Projection is applied at serialization time.
	Fields []string
}

// Offset returns the row offset implied by Page and PageSize.
func (d *Descriptor) Offset() int {
	return (d.Page - 1) * d.PageSize
}

// Pages returns the page count for a given total.
func (d *Descriptor) Pages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + d.PageSize - 1) / d.PageSize
}

// Selects reports whether the given exposed field survives field selection.
func (d *Descriptor) Selects(field string) bool {
	if len(d.Fields) == 0 {
		return true
	}
	for _, f := range d.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Parse normalizes raw query values against a schema. Unknown fields,
// unknown operators and uncoercible values fail with BadRequest naming the
// offending parameter; out-of-range pagination clamps instead of failing.
func Parse(values url.Values, s Schema) (*Descriptor, error) {
	d := &Descriptor{Page: 1, PageSize: s.DefaultPageSize}

	if err := parsePagination(values, s, d); err != nil {
		return nil, err
	}
	if err := parseSort(values.Get(paramSort), s, d); err != nil {
		return nil, err
	}
	if err := parseFields(values.Get(paramFields), s, d); err != nil {
		return nil, err
	}

	for key, vals := range values {
		switch key {
		case paramPage, paramSize, paramSort, paramFields:
			continue
		}
		field, op, err := splitFilterKey(key)
		if err != nil {
			return nil, err
		}
		col, ok := s.Fields[field]
		if !ok {
			return nil, apperror.New(apperror.BadRequest, "unknown filter field %q", field)
		}
		for _, raw := range vals {
			val, err := coerce(raw, col.Kind)
			if err != nil {
				return nil, apperror.New(apperror.BadRequest, "invalid value %q for parameter %q", raw, key)
			}
			d.Filters = append(d.Filters, Filter{Field: field, Column: col.Name, Op: op, Value: val})
		}
	}

	return d, nil
}

func parsePagination(values url.Values, s Schema, d *Descriptor) error {
	if raw := values.Get(paramPage); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return apperror.New(apperror.BadRequest, "invalid value %q for parameter %q", raw, paramPage)
		}
		if page < 1 {
			page = 1
		}
		d.Page = page
	}
	if raw := values.Get(paramSize); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return apperror.New(apperror.BadRequest, "invalid value %q for parameter %q", raw, paramSize)
		}
		d.PageSize = size
	}
	// Clamp rather than fail; covers both a bad default and client excess.
	if d.PageSize < 1 {
		d.PageSize = s.DefaultPageSize
	}
	if d.PageSize > s.MaxPageSize {
		d.PageSize = s.MaxPageSize
	}
	return nil
}

func parseSort(raw string, s Schema, d *Descriptor) error {
	idSorted := false
	if raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			desc := strings.HasPrefix(part, "-")
			field := strings.TrimPrefix(part, "-")
			col, ok := s.Fields[field]
			if !ok {
				return apperror.New(apperror.BadRequest, "unknown sort field %q", field)
			}
			if field == s.IDField {
				idSorted = true
			}
			d.Sort = append(d.Sort, SortField{Field: field, Column: col.Name, Desc: desc})
		}
	}
	// Stable tiebreaker keeps pagination deterministic regardless of the
	// requested ordering.
	if !idSorted {
		col := s.Fields[s.IDField]
		d.Sort = append(d.Sort, SortField{Field: s.IDField, Column: col.Name})
	}
	return nil
}

func parseFields(raw string, s Schema, d *Descriptor) error {
	if raw == "" {
		return nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := s.Fields[part]; !ok {
			return apperror.New(apperror.BadRequest, "unknown field %q in fields selection", part)
		}
		d.Fields = append(d.Fields, part)
	}
	return nil
}

// splitFilterKey parses "salary[gte]" into ("salary", OpGte). A bare key is
// an equality filter.
func splitFilterKey(key string) (string, Op, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", apperror.New(apperror.BadRequest, "malformed filter parameter %q", key)
	}
	field := key[:open]
	op := Op(key[open+1 : len(key)-1])
	if _, ok := sqlOps[op]; !ok {
		return "", "", apperror.New(apperror.BadRequest, "unknown operator %q in parameter %q", string(op), key)
	}
	return field, op, nil
}

func coerce(raw string, kind Kind) (any, error) {
	switch kind {
	case Int:
		return strconv.ParseInt(raw, 10, 64)
	case Float:
		return strconv.ParseFloat(raw, 64)
	case Bool:
		return strconv.ParseBool(raw)
	case Time:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02", raw)
	default:
		return raw, nil
	}
}
