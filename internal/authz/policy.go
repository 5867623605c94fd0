// Package authz holds the static role/permission policy consulted by every
// permission-gated screen and navigation element. The policy shapes what is
// rendered; the backend independently re-checks authorization on every call.
package authz

// Role is one of the platform's fixed role labels.
type Role string

// The closed set of roles known to the platform.
const (
	RoleAdministrator Role = "administrator"
	RoleOrganizer     Role = "organizer"
	RoleParticipant   Role = "participant"
	RoleVisitor       Role = "visitor"
)

// Permission is a single capability token.
type Permission string

// The closed set of capabilities.
const (
	PermDashboardView Permission = "dashboard.view"
	PermEventsView    Permission = "events.view"
	PermEventsCreate  Permission = "events.create"
	PermEventsUpdate  Permission = "events.update"
	PermEventsDelete  Permission = "events.delete"
	PermEventsApprove Permission = "events.approve"
	PermEventsPublish Permission = "events.publish"
	PermUsersView     Permission = "users.view"
	PermUsersManage   Permission = "users.manage"
	PermProfileUpdate Permission = "profile.update"
)

// Policy maps roles to the permissions they grant. It is built once at
// startup and treated as immutable data; effective permissions are always
// recomputed from the role list, never cached, so a role change takes effect
// on the next check.
type Policy struct {
	grants map[Role]map[Permission]struct{}
}

// DefaultPolicy builds the platform's role/permission table.
func DefaultPolicy() *Policy {
	return NewPolicy(map[Role][]Permission{
		RoleAdministrator: {
			PermDashboardView,
			PermEventsView,
			PermEventsCreate,
			PermEventsUpdate,
			PermEventsDelete,
			PermEventsApprove,
			PermEventsPublish,
			PermUsersView,
			PermUsersManage,
			PermProfileUpdate,
		},
		RoleOrganizer: {
			PermDashboardView,
			PermEventsView,
			PermEventsCreate,
			PermEventsUpdate,
			PermEventsPublish,
			PermProfileUpdate,
		},
		RoleParticipant: {
			PermProfileUpdate,
		},
		RoleVisitor: {},
	})
}

// NewPolicy constructs an immutable Policy from a grant table. The input is
// copied so callers cannot mutate the policy afterwards.
func NewPolicy(grants map[Role][]Permission) *Policy {
	table := make(map[Role]map[Permission]struct{}, len(grants))
	for role, perms := range grants {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		table[role] = set
	}
	return &Policy{grants: table}
}

// HasRole reports whether role appears in roles.
func HasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether any role in roles grants perm. The effective
// permission set is the union of the per-role sets; roles without a table
// entry contribute nothing (fail-closed).
func (p *Policy) HasPermission(roles []Role, perm Permission) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if set, ok := p.grants[role]; ok {
			if _, ok := set[perm]; ok {
				return true
			}
		}
	}
	return false
}

// Permissions returns the effective permission set for roles, recomputed on
// every call.
func (p *Policy) Permissions(roles []Role) []Permission {
	if p == nil {
		return nil
	}
	seen := make(map[Permission]struct{})
	var perms []Permission
	for _, role := range roles {
		for perm := range p.grants[role] {
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			perms = append(perms, perm)
		}
	}
	return perms
}

// IsAdmin reports whether roles include the administrator role.
func IsAdmin(roles []Role) bool {
	return HasRole(roles, RoleAdministrator)
}

// IsOrganizer reports whether roles include the organizer role.
func IsOrganizer(roles []Role) bool {
	return HasRole(roles, RoleOrganizer)
}

// IsAdminOrOrganizer reports whether roles include either staff role.
func IsAdminOrOrganizer(roles []Role) bool {
	return IsAdmin(roles) || IsOrganizer(roles)
}

// ParseRole converts a backend role label to a Role. Unknown labels map to
// the visitor role, which grants nothing.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdministrator, RoleOrganizer, RoleParticipant, RoleVisitor:
		return Role(s)
	default:
		return RoleVisitor
	}
}

// ParseRoles converts backend role labels preserving order; position 0 is
// treated as the primary role for display.
func ParseRoles(labels []string) []Role {
	roles := make([]Role, 0, len(labels))
	for _, l := range labels {
		roles = append(roles, ParseRole(l))
	}
	return roles
}

// AllRoles lists the closed role set for form rendering.
func AllRoles() []Role {
	return []Role{RoleAdministrator, RoleOrganizer, RoleParticipant, RoleVisitor}
}
