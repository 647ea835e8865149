// Package memory provides in-memory implementations of the domain
// repositories. They honor the same descriptor semantics as the Postgres
// backend and serve tests and local experimentation without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yourorg/personnelapi/internal/apperror"
	"github.com/yourorg/personnelapi/internal/domain"
	"github.com/yourorg/personnelapi/internal/query"
)

// UserRepository is an in-memory domain.UserRepository.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[string]*domain.User{}}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return apperror.New(apperror.Conflict, "user already exists")
		}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, apperror.New(apperror.NotFound, "user not found")
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username && u.IsActive })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email && u.IsActive })
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, apperror.New(apperror.NotFound, "user not found")
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return apperror.New(apperror.NotFound, "user not found")
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepository) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperror.New(apperror.NotFound, "user not found")
	}
	u.IsActive = false
	u.UpdatedAt = time.Now()
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

// TokenRepository is an in-memory domain.TokenRepository.
type TokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]*domain.Token
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{tokens: map[string]*domain.Token{}}
}

func (r *TokenRepository) Create(_ context.Context, t *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.ID] = cloneToken(t)
	return nil
}

func (r *TokenRepository) GetByID(_ context.Context, id string) (*domain.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tokens[id]; ok {
		return cloneToken(t), nil
	}
	return nil, apperror.New(apperror.NotFound, "token not found")
}

func (r *TokenRepository) GetByDigest(_ context.Context, digest string) (*domain.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tokens {
		if t.KeyDigest == digest {
			return cloneToken(t), nil
		}
	}
	return nil, apperror.New(apperror.NotFound, "token not found")
}

func (r *TokenRepository) ListByUser(_ context.Context, userID string) ([]*domain.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Token
	for _, t := range r.tokens {
		if t.UserID == userID {
			out = append(out, cloneToken(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

func (r *TokenRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[id]; !ok {
		return apperror.New(apperror.NotFound, "token not found")
	}
	delete(r.tokens, id)
	return nil
}

func (r *TokenRepository) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	purged := 0
	for id, t := range r.tokens {
		if t.Expired(now) {
			delete(r.tokens, id)
			purged++
		}
	}
	return purged, nil
}

func cloneToken(t *domain.Token) *domain.Token {
	c := *t
	if t.ExpiresAt != nil {
		exp := *t.ExpiresAt
		c.ExpiresAt = &exp
	}
	return &c
}

// DepartmentRepository is an in-memory domain.DepartmentRepository. It
// needs the personnel repository to enforce the delete-is-blocked rule.
type DepartmentRepository struct {
	mu          sync.RWMutex
	departments map[string]*domain.Department
	personnels  *PersonnelRepository
}

func NewDepartmentRepository(personnels *PersonnelRepository) *DepartmentRepository {
	return &DepartmentRepository{departments: map[string]*domain.Department{}, personnels: personnels}
}

func (r *DepartmentRepository) Create(_ context.Context, d *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.departments {
		if existing.Name == d.Name {
			return apperror.New(apperror.Conflict, "department already exists")
		}
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	r.departments[d.ID] = cloneDepartment(d)
	return nil
}

func (r *DepartmentRepository) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.departments[id]; ok {
		return cloneDepartment(d), nil
	}
	return nil, apperror.New(apperror.NotFound, "department not found")
}

func (r *DepartmentRepository) List(_ context.Context, desc *query.Descriptor) ([]*domain.Department, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*domain.Department
	for _, d := range r.departments {
		if matches(desc.Filters, departmentField(d)) {
			all = append(all, cloneDepartment(d))
		}
	}
	sortItems(all, desc.Sort, func(d *domain.Department, field string) any { return departmentField(d)(field) })
	page := paginate(len(all), desc)
	return all[page[0]:page[1]], len(all), nil
}

func (r *DepartmentRepository) Update(_ context.Context, d *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.departments[d.ID]; !ok {
		return apperror.New(apperror.NotFound, "department not found")
	}
	for id, existing := range r.departments {
		if id != d.ID && existing.Name == d.Name {
			return apperror.New(apperror.Conflict, "department already exists")
		}
	}
	d.UpdatedAt = time.Now()
	r.departments[d.ID] = cloneDepartment(d)
	return nil
}

func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	count, _ := r.CountPersonnel(ctx, id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.departments[id]; !ok {
		return apperror.New(apperror.NotFound, "department not found")
	}
	if count > 0 {
		return apperror.New(apperror.Conflict, "department is still referenced by other records")
	}
	delete(r.departments, id)
	return nil
}

func (r *DepartmentRepository) CountPersonnel(_ context.Context, id string) (int, error) {
	if r.personnels == nil {
		return 0, nil
	}
	r.personnels.mu.RLock()
	defer r.personnels.mu.RUnlock()
	count := 0
	for _, p := range r.personnels.personnels {
		if p.DepartmentID == id {
			count++
		}
	}
	return count, nil
}

func cloneDepartment(d *domain.Department) *domain.Department {
	c := *d
	if d.ManagerID != nil {
		m := *d.ManagerID
		c.ManagerID = &m
	}
	return &c
}

func departmentField(d *domain.Department) func(string) any {
	return func(field string) any {
		switch field {
		case "id":
			return d.ID
		case "name":
			return d.Name
		case "manager_id":
			if d.ManagerID == nil {
				return ""
			}
			return *d.ManagerID
		case "created_at":
			return d.CreatedAt
		case "updated_at":
			return d.UpdatedAt
		default:
			return nil
		}
	}
}

// PersonnelRepository is an in-memory domain.PersonnelRepository.
type PersonnelRepository struct {
	mu         sync.RWMutex
	personnels map[string]*domain.Personnel
}

func NewPersonnelRepository() *PersonnelRepository {
	return &PersonnelRepository{personnels: map[string]*domain.Personnel{}}
}

func (r *PersonnelRepository) Create(_ context.Context, p *domain.Personnel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.personnels[p.ID] = clonePersonnel(p)
	return nil
}

func (r *PersonnelRepository) GetByID(_ context.Context, id string) (*domain.Personnel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.personnels[id]; ok {
		return clonePersonnel(p), nil
	}
	return nil, apperror.New(apperror.NotFound, "personnel not found")
}

func (r *PersonnelRepository) List(_ context.Context, desc *query.Descriptor) ([]*domain.Personnel, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*domain.Personnel
	for _, p := range r.personnels {
		if matches(desc.Filters, personnelField(p)) {
			all = append(all, clonePersonnel(p))
		}
	}
	sortItems(all, desc.Sort, func(p *domain.Personnel, field string) any { return personnelField(p)(field) })
	page := paginate(len(all), desc)
	return all[page[0]:page[1]], len(all), nil
}

func (r *PersonnelRepository) Update(_ context.Context, p *domain.Personnel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.personnels[p.ID]; !ok {
		return apperror.New(apperror.NotFound, "personnel not found")
	}
	p.UpdatedAt = time.Now()
	r.personnels[p.ID] = clonePersonnel(p)
	return nil
}

func (r *PersonnelRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.personnels[id]; !ok {
		return apperror.New(apperror.NotFound, "personnel not found")
	}
	delete(r.personnels, id)
	return nil
}

func clonePersonnel(p *domain.Personnel) *domain.Personnel {
	c := *p
	return &c
}

func personnelField(p *domain.Personnel) func(string) any {
	return func(field string) any {
		switch field {
		case "id":
			return p.ID
		case "first_name":
			return p.FirstName
		case "last_name":
			return p.LastName
		case "gender":
			return p.Gender
		case "title":
			return p.Title
		case "salary":
			return p.Salary
		case "department_id":
			return p.DepartmentID
		case "is_active":
			return p.IsActive
		case "started_at":
			return p.StartedAt
		case "created_at":
			return p.CreatedAt
		case "updated_at":
			return p.UpdatedAt
		default:
			return nil
		}
	}
}

// matches evaluates descriptor filters against an item's column accessor.
func matches(filters []query.Filter, field func(string) any) bool {
	for _, f := range filters {
		if !compare(field(f.Column), f.Op, f.Value) {
			return false
		}
	}
	return true
}

func compare(have any, op query.Op, want any) bool {
	c, ok := order(have, want)
	if !ok {
		return false
	}
	switch op {
	case query.OpEq:
		return c == 0
	case query.OpNe:
		return c != 0
	case query.OpGt:
		return c > 0
	case query.OpGte:
		return c >= 0
	case query.OpLt:
		return c < 0
	case query.OpLte:
		return c <= 0
	default:
		return false
	}
}

// order compares two values of the kinds the query package coerces to.
func order(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), true
		}
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1, true
			case av > bv:
				return 1, true
			default:
				return 0, true
			}
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1, true
			case av > bv:
				return 1, true
			default:
				return 0, true
			}
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, true
			case !av:
				return -1, true
			default:
				return 1, true
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv), true
		}
	}
	return 0, false
}

func sortItems[T any](items []T, fields []query.SortField, get func(T, string) any) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, f := range fields {
			c, ok := order(get(items[i], f.Column), get(items[j], f.Column))
			if !ok || c == 0 {
				continue
			}
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func paginate(total int, desc *query.Descriptor) [2]int {
	start := desc.Offset()
	if start > total {
		start = total
	}
	end := start + desc.PageSize
	if end > total {
		end = total
	}
	return [2]int{start, end}
}
