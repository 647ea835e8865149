package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/personnelapi/internal/domain"
	"github.com/yourorg/personnelapi/internal/repository"
	"github.com/yourorg/personnelapi/internal/repository/memory"
	"github.com/yourorg/personnelapi/internal/security"
	"github.com/yourorg/personnelapi/internal/security/audit"
	"github.com/yourorg/personnelapi/internal/security/auth"
	"github.com/yourorg/personnelapi/internal/security/middleware"
	"github.com/yourorg/personnelapi/internal/service"
)

type apiFixture struct {
	handler     http.Handler
	users       *memory.UserRepository
	departments *memory.DepartmentRepository
	personnels  *memory.PersonnelRepository
	admin       *domain.User
	staff       *domain.User
	adminKey    string
	staffKey    string
}

// envelope mirrors the wire shape for assertions.
type envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Details *struct {
		Total int `json:"total"`
		Pages int `json:"pages"`
		Page  int `json:"page"`
		Size  int `json:"size"`
	} `json:"details"`
	Data json.RawMessage `json:"data"`
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := memory.NewUserRepository()
	tokens := memory.NewTokenRepository()
	personnels := memory.NewPersonnelRepository()
	departments := memory.NewDepartmentRepository(personnels)

	authService := service.NewAuthService(users, log)
	tokenService := service.NewTokenService(tokens, users, time.Hour, log)
	departmentService := service.NewDepartmentService(departments, personnels, log)
	personnelService := service.NewPersonnelService(personnels, departments, log)

	sessions := auth.NewSessionManager("test-secret", "test", time.Hour, false)
	auditLogger := audit.NewLogger(log)

	mux := NewRouter(RouterDeps{
		Auth:        NewAuthHandler(authService, tokenService, sessions, auditLogger, log),
		Tokens:      NewTokenHandler(tokenService, auditLogger, log),
		Departments: NewDepartmentHandler(departmentService, repository.DepartmentSchema(20, 100), log),
		Personnels:  NewPersonnelHandler(personnelService, repository.PersonnelSchema(20, 100), log),
		Health:      nil,
		Authz:       security.NewAuthorizationService(log),
		Logger:      log,
	})

	f := &apiFixture{
		handler:     middleware.Authentication(sessions, tokenService, users, log)(mux),
		users:       users,
		departments: departments,
		personnels:  personnels,
	}

	f.admin = f.seedUser(t, "admin", domain.RoleAdmin)
	f.staff = f.seedUser(t, "staff", domain.RoleStaff)

	for _, pair := range []struct {
		user *domain.User
		key  *string
	}{{f.admin, &f.adminKey}, {f.staff, &f.staffKey}} {
		_, rawKey, err := tokenService.Issue(context.Background(), pair.user, "test")
		if err != nil {
			t.Fatalf("issuing token: %v", err)
		}
		*pair.key = rawKey
	}
	return f
}

func (f *apiFixture) seedUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(username+"-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := &domain.User{
		ID:           "user-" + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

func (f *apiFixture) do(t *testing.T, method, path, bearerKey, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearerKey != "" {
		req.Header.Set("Authorization", "Bearer "+bearerKey)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decoding envelope from %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, env
}

func (f *apiFixture) createDepartment(t *testing.T, name string) *domain.Department {
	t.Helper()
	_, env := f.do(t, http.MethodPost, "/departments", f.adminKey, `{"name":"`+name+`"}`)
	var d domain.Department
	if err := json.Unmarshal(env.Data, &d); err != nil {
		t.Fatalf("decoding department: %v", err)
	}
	return &d
}

func TestWelcome(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var welcome WelcomeResponse
	if err := json.Unmarshal(env.Data, &welcome); err != nil {
		t.Fatalf("decoding welcome: %v", err)
	}
	if welcome.IsLogin {
		t.Error("anonymous caller reported as logged in")
	}

	_, env = f.do(t, http.MethodGet, "/", f.staffKey, "")
	if err := json.Unmarshal(env.Data, &welcome); err != nil {
		t.Fatalf("decoding welcome: %v", err)
	}
	if !welcome.IsLogin || welcome.User == nil || welcome.User.ID != f.staff.ID {
		t.Errorf("authenticated welcome did not echo the caller: %+v", welcome)
	}
}

func TestUnknownRouteFallback(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodGet, "/no/such/route", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
	if !env.Error || env.Message != "This route is not found !" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodPost, "/auth/register", "",
		`{"username":"newbie","email":"newbie@example.com","password":"s3cret-pass"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d, body %s", rec.Code, env.Message)
	}
	var registered domain.User
	if err := json.Unmarshal(env.Data, &registered); err != nil {
		t.Fatalf("decoding user: %v", err)
	}
	if registered.Role != domain.RoleStaff {
		t.Errorf("registered role %q, want staff", registered.Role)
	}

	rec, env = f.do(t, http.MethodPost, "/auth/login", "",
		`{"username":"newbie","password":"s3cret-pass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d, body %s", rec.Code, env.Message)
	}
	var login LoginResponse
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if login.Token == "" {
		t.Fatal("login did not return a bearer key")
	}

	res := rec.Result()
	var sessionCookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == auth.CookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("login did not set a session cookie")
	}

	// The fresh bearer key authenticates.
	rec, _ = f.do(t, http.MethodGet, "/departments", login.Token, "")
	if rec.Code != http.StatusOK {
		t.Errorf("bearer key from login rejected: status %d", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newAPIFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{name: "missing username", body: `{"email":"a@example.com","password":"s3cret-pass"}`},
		{name: "bad email", body: `{"username":"abc","email":"not-an-email","password":"s3cret-pass"}`},
		{name: "short password", body: `{"username":"abc","email":"a@example.com","password":"short"}`},
		{name: "malformed json", body: `{"username":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := f.do(t, http.MethodPost, "/auth/register", "", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400", rec.Code)
			}
			if !env.Error || env.Message == "" {
				t.Errorf("expected error envelope, got %+v", env)
			}
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodPost, "/auth/login", "",
		`{"username":"admin","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
	if env.Message != "invalid credentials" {
		t.Errorf("message %q, want uniform failure", env.Message)
	}
}

func TestLogoutRevokesBearerKey(t *testing.T) {
	f := newAPIFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/auth/logout", f.staffKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status %d, want 200", rec.Code)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("logout did not clear the session cookie")
	}

	rec, _ = f.do(t, http.MethodGet, "/tokens", f.staffKey, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("revoked key still accepted: status %d", rec.Code)
	}
}

func TestTokenLifecycle(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodPost, "/tokens", f.staffKey, `{"device":"laptop"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create token status %d", rec.Code)
	}
	var created CreateTokenResponse
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decoding token: %v", err)
	}
	if created.Token == "" || created.ID == "" {
		t.Fatalf("incomplete token response: %+v", created)
	}

	_, env = f.do(t, http.MethodGet, "/tokens", f.staffKey, "")
	var listed []domain.Token
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatalf("decoding token list: %v", err)
	}
	if len(listed) != 2 { // fixture key + the one just created
		t.Fatalf("listed %d tokens, want 2", len(listed))
	}

	// An admin may revoke another user's token.
	rec, _ = f.do(t, http.MethodDelete, "/tokens/"+created.ID, f.adminKey, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("admin revoke status %d, want 204", rec.Code)
	}
	rec, _ = f.do(t, http.MethodDelete, "/tokens/"+created.ID, f.staffKey, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second revoke status %d, want 404", rec.Code)
	}
}

func TestTokenRevokeForbiddenForStranger(t *testing.T) {
	f := newAPIFixture(t)

	_, env := f.do(t, http.MethodPost, "/tokens", f.adminKey, "")
	var created CreateTokenResponse
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decoding token: %v", err)
	}

	rec, _ := f.do(t, http.MethodDelete, "/tokens/"+created.ID, f.staffKey, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger revoke status %d, want 403", rec.Code)
	}
}

func TestDepartmentCRUD(t *testing.T) {
	f := newAPIFixture(t)

	// Anonymous and staff writes are rejected with the right statuses.
	rec, _ := f.do(t, http.MethodPost, "/departments", "", `{"name":"Engineering"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create status %d, want 401", rec.Code)
	}
	rec, _ = f.do(t, http.MethodPost, "/departments", f.staffKey, `{"name":"Engineering"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("staff create status %d, want 403", rec.Code)
	}

	// Neither rejected write may have touched the store.
	rec, env := f.do(t, http.MethodGet, "/departments", f.staffKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d", rec.Code)
	}
	if env.Details == nil || env.Details.Total != 0 {
		t.Fatalf("rejected writes must not create rows, paging: %+v", env.Details)
	}

	d := f.createDepartment(t, "Engineering")

	// Duplicate name conflicts.
	rec, _ = f.do(t, http.MethodPost, "/departments", f.adminKey, `{"name":"Engineering"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create status %d, want 409", rec.Code)
	}

	// Staff can read.
	rec, env = f.do(t, http.MethodGet, "/departments/"+d.ID, f.staffKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status %d", rec.Code)
	}

	rec, env = f.do(t, http.MethodPut, "/departments/"+d.ID, f.adminKey, `{"name":"Platform"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status %d, body %s", rec.Code, env.Message)
	}
	var updated domain.Department
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decoding department: %v", err)
	}
	if updated.Name != "Platform" {
		t.Errorf("updated name %q", updated.Name)
	}

	rec, _ = f.do(t, http.MethodDelete, "/departments/"+d.ID, f.adminKey, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status %d, want 204", rec.Code)
	}
	rec, _ = f.do(t, http.MethodGet, "/departments/"+d.ID, f.staffKey, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status %d, want 404", rec.Code)
	}
}

func TestDepartmentDeleteBlocked(t *testing.T) {
	f := newAPIFixture(t)

	d := f.createDepartment(t, "Finance")
	rec, _ := f.do(t, http.MethodPost, "/personnels", f.adminKey,
		`{"firstName":"Ann","lastName":"Lee","salary":50000,"departmentId":"`+d.ID+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("personnel create status %d", rec.Code)
	}

	rec, env := f.do(t, http.MethodDelete, "/departments/"+d.ID, f.adminKey, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("delete status %d, want 409", rec.Code)
	}
	if !strings.Contains(env.Message, "cannot be deleted") {
		t.Errorf("unexpected message %q", env.Message)
	}

	// The blocked delete left both rows intact.
	rec, env = f.do(t, http.MethodGet, "/departments/"+d.ID, f.staffKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("department read-back status %d, want 200", rec.Code)
	}
	var kept domain.Department
	if err := json.Unmarshal(env.Data, &kept); err != nil {
		t.Fatalf("decoding department: %v", err)
	}
	if kept.Name != "Finance" {
		t.Errorf("department name %q after blocked delete", kept.Name)
	}
	rec, env = f.do(t, http.MethodGet, "/personnels", f.staffKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("personnel read-back status %d, want 200", rec.Code)
	}
	if env.Details == nil || env.Details.Total != 1 {
		t.Fatalf("personnel row missing after blocked delete, paging: %+v", env.Details)
	}
}

func TestPersonnelCRUDAndQuery(t *testing.T) {
	f := newAPIFixture(t)
	d := f.createDepartment(t, "Engineering")

	seeds := []string{
		`{"firstName":"Ann","lastName":"Lee","salary":70000,"departmentId":"` + d.ID + `"}`,
		`{"firstName":"Bo","lastName":"Kim","salary":50000,"departmentId":"` + d.ID + `"}`,
		`{"firstName":"Cai","lastName":"Wu","salary":90000,"departmentId":"` + d.ID + `"}`,
	}
	for _, body := range seeds {
		rec, env := f.do(t, http.MethodPost, "/personnels", f.adminKey, body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status %d, body %s", rec.Code, env.Message)
		}
	}

	rec, env := f.do(t, http.MethodGet, "/personnels?salary[gte]=60000&sort=-salary", f.staffKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d, body %s", rec.Code, env.Message)
	}
	if env.Details == nil || env.Details.Total != 2 {
		t.Fatalf("unexpected paging: %+v", env.Details)
	}
	var people []domain.Personnel
	if err := json.Unmarshal(env.Data, &people); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(people) != 2 || people[0].FirstName != "Cai" || people[1].FirstName != "Ann" {
		t.Fatalf("unexpected ordering: %+v", people)
	}

	// Field selection projects the listed objects.
	rec, env = f.do(t, http.MethodGet, "/personnels?fields=firstName,salary", f.staffKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("projected list status %d", rec.Code)
	}
	var projected []map[string]any
	if err := json.Unmarshal(env.Data, &projected); err != nil {
		t.Fatalf("decoding projected list: %v", err)
	}
	if len(projected) != 3 {
		t.Fatalf("projected %d rows, want 3", len(projected))
	}
	for _, row := range projected {
		if _, ok := row["firstName"]; !ok {
			t.Fatalf("projection dropped a selected field: %v", row)
		}
		if _, ok := row["lastName"]; ok {
			t.Fatalf("projection kept an unselected field: %v", row)
		}
	}
}

func TestPersonnelQueryBadRequests(t *testing.T) {
	f := newAPIFixture(t)

	cases := []struct {
		name string
		path string
	}{
		{name: "unknown filter field", path: "/personnels?shoeSize=42"},
		{name: "unknown operator", path: "/personnels?salary[like]=1"},
		{name: "uncoercible value", path: "/personnels?salary[gte]=abc"},
		{name: "unknown sort field", path: "/personnels?sort=shoeSize"},
		{name: "unknown selected field", path: "/personnels?fields=shoeSize"},
		{name: "non-numeric page", path: "/personnels?page=abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := f.do(t, http.MethodGet, tc.path, f.staffKey, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400", rec.Code)
			}
			if !env.Error || env.Message == "" {
				t.Errorf("expected a named offending parameter, got %+v", env)
			}
		})
	}
}

func TestPersonnelCreateUnknownDepartment(t *testing.T) {
	f := newAPIFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/personnels", f.adminKey,
		`{"firstName":"Ann","lastName":"Lee","salary":1,"departmentId":"missing"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestChangePassword(t *testing.T) {
	f := newAPIFixture(t)

	rec, _ := f.do(t, http.MethodPut, "/auth/password", f.staffKey,
		`{"oldPassword":"staff-password","newPassword":"brand-new-pass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("change password status %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodPost, "/auth/login", "",
		`{"username":"staff","password":"brand-new-pass"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("login with new password status %d", rec.Code)
	}
}
