package security

import (
	"fmt"
	"log/slog"

	"github.com/yourorg/personnelapi/internal/domain"
)

// Permission represents an action permission.
type Permission string

const (
	PermReadDepartments  Permission = "read_departments"
	PermWriteDepartments Permission = "write_departments"
	PermReadPersonnels   Permission = "read_personnels"
	PermWritePersonnels  Permission = "write_personnels"
	PermManageOwnTokens  Permission = "manage_own_tokens"
	PermManageAllTokens  Permission = "manage_all_tokens"
	PermManageUsers      Permission = "manage_users"
)

// RolePermissions maps roles to their permissions. Staff can read the
// directory and manage their own credentials; every write goes through
// admin.
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleAdmin: {
		PermReadDepartments,
		PermWriteDepartments,
		PermReadPersonnels,
		PermWritePersonnels,
		PermManageOwnTokens,
		PermManageAllTokens,
		PermManageUsers,
	},
	domain.RoleStaff: {
		PermReadDepartments,
		PermReadPersonnels,
		PermManageOwnTokens,
	},
}

// AuthorizationService handles authorization checks.
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service.
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{logger: logger}
}

// HasPermission checks if a role has a specific permission.
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission validates that a role has a specific permission.
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("permission denied: %s role cannot %s", role, permission)
	}
	return nil
}
