package security

import (
	"fmt"
	"log/slog"
)

// Role represents a user role
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Permission represents an action permission
type Permission string

const (
	PermListMembers   Permission = "list_members"
	PermManageMembers Permission = "manage_members"
	PermRestoreMember Permission = "restore_member"
	PermViewHistory   Permission = "view_history"
	PermPruneHistory  Permission = "prune_history"
	PermManageFees    Permission = "manage_fees"
	PermManageUsers   Permission = "manage_users"
	PermSendReceipt   Permission = "send_receipt"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermListMembers,
		PermManageMembers,
		PermRestoreMember,
		PermViewHistory,
		PermPruneHistory,
		PermManageFees,
		PermManageUsers,
		PermSendReceipt,
	},
	RoleUser: {
		PermListMembers,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{logger: logger}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role Role, permission Permission) bool {
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

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("role %s lacks permission %s", role, permission)
	}
	return nil
}
