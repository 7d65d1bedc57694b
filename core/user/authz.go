package user

import "strings"

// Resources
const (
	ResProgram          = "program"
	ResAcademicYear     = "academic_year"
	ResDocumentCategory = "document_category"
	ResLanguage         = "language"
	ResSetting          = "setting"
	ResCall             = "call"
	ResCallPhase        = "call_phase"
	ResResolution       = "resolution"
	ResDocument         = "document"
	ResNews             = "news"
	ResEvent            = "event"
	ResNewsletter       = "newsletter"
	ResUser             = "user"
	ResRole             = "role"
)

// Actions
const (
	ActionViewAny     = "viewAny"
	ActionView        = "view"
	ActionCreate      = "create"
	ActionUpdate      = "update"
	ActionDelete      = "delete"
	ActionRestore     = "restore"
	ActionForceDelete = "forceDelete"
	ActionPublish     = "publish"
	ActionClose       = "close"
	ActionAssignRoles = "assignRoles"
)

var AllResources = []string{
	ResProgram, ResAcademicYear, ResDocumentCategory, ResLanguage, ResSetting,
	ResCall, ResCallPhase, ResResolution,
	ResDocument, ResNews, ResEvent, ResNewsletter,
	ResUser, ResRole,
}

var editorResources = []string{
	ResCall, ResCallPhase, ResResolution,
	ResDocument, ResNews, ResEvent, ResNewsletter,
}

// DefaultRolePermissions are the permission sets the system roles are seeded
// with. RoleSuperAdmin carries none: it bypasses all checks.
var DefaultRolePermissions = map[string][]string{
	RoleSuperAdmin: nil,
	RoleAdmin:      wildcards(AllResources),
	RoleEditor:     append(viewPerms(AllResources), wildcards(editorResources)...),
	RoleViewer:     viewPerms(AllResources),
}

func wildcards(resources []string) []string {
	perms := make([]string, 0, len(resources))
	for _, res := range resources {
		perms = append(perms, res+".*")
	}
	return perms
}

func viewPerms(resources []string) []string {
	perms := make([]string, 0, 2*len(resources))
	for _, res := range resources {
		perms = append(perms, res+"."+ActionViewAny, res+"."+ActionView)
	}
	return perms
}

// CapabilitySet is an actor's resolved set of "resource.action" permissions.
type CapabilitySet map[string]struct{}

func NewCapabilitySet(perms ...string) CapabilitySet {
	cs := make(CapabilitySet, len(perms))
	for _, perm := range perms {
		cs[perm] = struct{}{}
	}
	return cs
}

// Allows reports whether the set holds resource.action or the resource.* wildcard.
func (cs CapabilitySet) Allows(resource, action string) bool {
	if _, ok := cs[resource+"."+action]; ok {
		return true
	}
	_, ok := cs[resource+".*"]
	return ok
}

func (cs CapabilitySet) add(perms []string) {
	for _, perm := range perms {
		cs[strings.TrimSpace(perm)] = struct{}{}
	}
}

// Actor is a User with their capability set resolved once per request.
type Actor struct {
	User User
	caps CapabilitySet
}

// NewActor resolves `usr`'s effective capabilities from the given roles.
// Roles the user does not hold are ignored; user roles with no stored Role
// record fall back to DefaultRolePermissions.
func NewActor(usr User, roles ...Role) Actor {
	caps := make(CapabilitySet)
	byName := make(map[string]Role, len(roles))
	for _, role := range roles {
		byName[role.Name] = role
	}
	for _, name := range usr.Roles {
		if role, ok := byName[name]; ok {
			caps.add(role.Permissions)
		} else {
			caps.add(DefaultRolePermissions[name])
		}
	}
	return Actor{User: usr, caps: caps}
}

// Can decides whether the actor may perform `action` on `resource`.
// Resolution order: super-admin short-circuit, then permission/wildcard
// lookup, then the per-resource instance guard when a target is provided.
// Denial is a plain false: callers translate it into an HTTP rejection.
func (a Actor) Can(action, resource string, target ...interface{}) bool {
	if a.User.IsSuperAdmin() {
		return true
	}
	if !a.caps.Allows(resource, action) {
		return false
	}
	if len(target) > 0 {
		if guard, ok := guards[resource]; ok {
			return guard(a.User, action, target[0])
		}
	}
	return true
}

// Dependent is any resource instance that can report how many dependent
// records (media consents) are still attached to it.
type Dependent interface {
	DependentCount() int
}

// RoleUsage pairs a Role with the number of users currently assigned to it,
// for instance-guard evaluation.
type RoleUsage struct {
	Role          Role
	AssignedUsers int
}

type guardFunc func(actor User, action string, target interface{}) bool

// guards layer instance-level rules on top of the permission check,
// keyed by resource type.
var guards = map[string]guardFunc{
	ResUser: func(actor User, action string, target interface{}) bool {
		switch action {
		case ActionDelete, ActionForceDelete, ActionAssignRoles:
			if usr, ok := target.(User); ok {
				return actor.ID != usr.ID
			}
		}
		return true
	},
	ResRole: func(actor User, action string, target interface{}) bool {
		if action != ActionDelete {
			return true
		}
		if usage, ok := target.(RoleUsage); ok {
			return !IsSystemRole(usage.Role.Name) && usage.AssignedUsers == 0
		}
		return true
	},
	ResDocument: dependentGuard,
	ResNews:     dependentGuard,
}

func dependentGuard(actor User, action string, target interface{}) bool {
	switch action {
	case ActionDelete, ActionForceDelete:
		if dep, ok := target.(Dependent); ok {
			return dep.DependentCount() == 0
		}
	}
	return true
}
