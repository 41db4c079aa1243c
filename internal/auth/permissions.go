package auth

import "strings"

var adminRoles = []string{"Admin", "Administrator"}

var rolePermissions = map[string][]string{
	"Manager": {
		"Projects.View", "Projects.Create", "Projects.Edit",
		"Users.View", "Reports.View",
		"Customers.View", "Customers.Create", "Customers.Edit",
	},
	"ProjectManager": {
		"Projects.View", "Projects.Edit", "Projects.Manage",
		"Tasks.View", "Tasks.Create", "Tasks.Edit", "Tasks.Delete",
		"TimeEntries.View", "TimeEntries.Approve",
	},
	"Developer": {
		"Projects.View", "Tasks.View", "Tasks.Edit",
		"TimeEntries.View", "TimeEntries.Create", "TimeEntries.Edit",
	},
	"Designer": {"Projects.View", "Tasks.View", "Tasks.Edit", "TimeEntries.View", "TimeEntries.Create"},
	"QA":       {"Projects.View", "Tasks.View", "Tasks.Edit", "TimeEntries.View", "TimeEntries.Create"},
	"HR":       {"Users.View", "Users.Create", "Users.Edit", "Reports.View", "Reports.HR"},
	"Finance": {
		"Invoices.View", "Invoices.Create", "Invoices.Edit",
		"Reports.View", "Reports.Financial", "Customers.View",
	},
}

// PermissionsForRole lists what a role grants. Admin roles are not listed
// because they grant everything.
func PermissionsForRole(role string) []string {
	return rolePermissions[role]
}

// HasPermission checks the permission claims (each may be a comma-separated
// list) before falling back to the caller's roles.
func (u *CurrentUser) HasPermission(permission string) bool {
	if !u.IsAuthenticated() || permission == "" {
		return false
	}

	for _, claim := range u.principal.Permissions {
		for _, p := range strings.Split(claim, ",") {
			if strings.EqualFold(strings.TrimSpace(p), permission) {
				return true
			}
		}
	}

	return RolesGrant(u.principal.Roles, permission)
}

// RolesGrant reports whether any of roles carries permission.
func RolesGrant(roles []string, permission string) bool {
	for _, role := range roles {
		for _, admin := range adminRoles {
			if strings.EqualFold(role, admin) {
				return true
			}
		}
		for _, p := range rolePermissions[role] {
			if strings.EqualFold(p, permission) {
				return true
			}
		}
	}
	return false
}
