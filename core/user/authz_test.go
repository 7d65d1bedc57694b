package user

import (
	"fmt"
	"testing"
)

type fakeDependent struct{ count int }

func (d fakeDependent) DependentCount() int { return d.count }

func actorWithRole(id, role string) Actor {
	return NewActor(User{ID: id, Roles: []string{role}})
}

func TestActor_Can_superAdminBypassesEverything(t *testing.T) {
	actor := actorWithRole("sa", RoleSuperAdmin)

	actions := []string{
		ActionViewAny, ActionView, ActionCreate, ActionUpdate, ActionDelete,
		ActionRestore, ActionForceDelete, ActionPublish, ActionClose, ActionAssignRoles,
	}
	for _, res := range AllResources {
		for _, action := range actions {
			if !actor.Can(action, res) {
				t.Errorf("Can(%s, %s) = false, want true", action, res)
			}
		}
	}

	// even actions no permission explicitly grants
	if !actor.Can("invent-new-things", ResCall) {
		t.Error("super-admin denied an unknown action")
	}
}

func TestActor_Can_viewerIsReadOnly(t *testing.T) {
	actor := actorWithRole("v", RoleViewer)

	for _, res := range AllResources {
		if !actor.Can(ActionView, res) {
			t.Errorf("viewer denied view on %s", res)
		}
		if !actor.Can(ActionViewAny, res) {
			t.Errorf("viewer denied viewAny on %s", res)
		}
		for _, action := range []string{ActionCreate, ActionUpdate, ActionDelete, ActionForceDelete, ActionPublish} {
			if actor.Can(action, res) {
				t.Errorf("viewer allowed %s on %s", action, res)
			}
		}
	}
}

func TestActor_Can_editor(t *testing.T) {
	actor := actorWithRole("e", RoleEditor)

	tests := []struct {
		action, resource string
		want             bool
	}{
		{ActionCreate, ResCall, true},
		{ActionPublish, ResCall, true},
		{ActionClose, ResCall, true},
		{ActionUpdate, ResDocument, true},
		{ActionDelete, ResNews, true},
		{ActionView, ResProgram, true},
		{ActionCreate, ResProgram, false},
		{ActionUpdate, ResAcademicYear, false},
		{ActionCreate, ResUser, false},
		{ActionDelete, ResRole, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s.%s", tt.resource, tt.action), func(t *testing.T) {
			if got := actor.Can(tt.action, tt.resource); got != tt.want {
				t.Errorf("Can(%s, %s) = %v, want %v", tt.action, tt.resource, got, tt.want)
			}
		})
	}
}

func TestCapabilitySet_wildcard(t *testing.T) {
	caps := NewCapabilitySet("call.*", "document.view")

	if !caps.Allows("call", "delete") {
		t.Error("wildcard did not grant call.delete")
	}
	if !caps.Allows("call", "publish") {
		t.Error("wildcard did not grant call.publish")
	}
	if caps.Allows("document", "delete") {
		t.Error("document.view granted document.delete")
	}
}

func TestActor_Can_userInstanceGuards(t *testing.T) {
	admin := NewActor(User{ID: "admin-1", Roles: []string{RoleAdmin}})
	other := User{ID: "user-2"}
	self := User{ID: "admin-1"}

	tests := []struct {
		name   string
		action string
		target User
		want   bool
	}{
		{"delete other", ActionDelete, other, true},
		{"delete self", ActionDelete, self, false},
		{"forceDelete self", ActionForceDelete, self, false},
		{"assignRoles self", ActionAssignRoles, self, false},
		{"assignRoles other", ActionAssignRoles, other, true},
		{"update self", ActionUpdate, self, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := admin.Can(tt.action, ResUser, tt.target); got != tt.want {
				t.Errorf("Can(%s, user) = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}

func TestActor_Can_roleInstanceGuards(t *testing.T) {
	admin := NewActor(User{ID: "admin-1", Roles: []string{RoleAdmin}})

	tests := []struct {
		name  string
		usage RoleUsage
		want  bool
	}{
		{"system role", RoleUsage{Role: Role{Name: RoleEditor}}, false},
		{"custom role with users", RoleUsage{Role: Role{Name: "coordinator"}, AssignedUsers: 3}, false},
		{"custom role without users", RoleUsage{Role: Role{Name: "coordinator"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := admin.Can(ActionDelete, ResRole, tt.usage); got != tt.want {
				t.Errorf("Can(delete, role) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActor_Can_dependentGuards(t *testing.T) {
	admin := NewActor(User{ID: "admin-1", Roles: []string{RoleAdmin}})

	for _, res := range []string{ResDocument, ResNews} {
		if admin.Can(ActionDelete, res, fakeDependent{count: 2}) {
			t.Errorf("delete on %s allowed with dependents", res)
		}
		if !admin.Can(ActionDelete, res, fakeDependent{}) {
			t.Errorf("delete on %s denied without dependents", res)
		}
		if !admin.Can(ActionUpdate, res, fakeDependent{count: 2}) {
			t.Errorf("update on %s blocked by dependents", res)
		}
	}
}

func TestNewActor_unknownStoredRoleFallsBackToDefaults(t *testing.T) {
	usr := User{ID: "u", Roles: []string{RoleViewer}}
	actor := NewActor(usr) // no stored Role records

	if !actor.Can(ActionView, ResCall) {
		t.Error("default viewer permissions not applied")
	}
	if actor.Can(ActionCreate, ResCall) {
		t.Error("default viewer permissions too broad")
	}
}
