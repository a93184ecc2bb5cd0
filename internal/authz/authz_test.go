package authz

import (
	"errors"
	"testing"

	"github.com/iliyamo/bug-tracker/internal/model"
)

func membership() model.Membership {
	return model.Membership{
		"creator": {Name: "Cora", Email: "cora@example.com", Role: model.RoleAdmin},
		"admin":   {Name: "Ann", Email: "ann@example.com", Role: model.RoleAdmin},
		"pm":	   {Name: "Pat", Email: "pat@example.com", Role: model.RoleProjectManager},
		"dev":	   {Name: "Dee", Email: "dee@example.com", Role: model.RoleDeveloper},
	}
}

func TestAuthorize(t *testing.T) {
	users := membership()

	tests := []struct {
		name	string
		actor	string
		req		Requirement
		allowed bool
	}{
		{"admin meets admin floor", "admin", Requirement{Floor: model.RoleAdmin}, true},
		{"pm fails admin floor", "pm", Requirement{Floor: model.RoleAdmin}, false},
		{"dev meets member-only requirement", "dev", Requirement{}, true},
		{"outsider fails member-only requirement", "stranger", Requirement{}, false},
		{"pm meets pm floor", "pm", Requirement{Floor: model.RoleProjectManager}, true},
		{"dev fails pm floor", "dev", Requirement{Floor: model.RoleProjectManager}, false},
		{"creator-only rejects admin", "admin", Requirement{CreatorOnly: true}, false},
		{"creator-only accepts creator", "creator", Requirement{CreatorOnly: true}, true},
		{"allow-creator bypasses floor", "creator", Requirement{Floor: model.RoleAdmin, AllowCreator: true}, true},
		{"allow-creator still checks others", "dev", Requirement{Floor: model.RoleAdmin, AllowCreator: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, "creator", users, tt.req)
			if tt.allowed && err != nil {
				t.Errorf("expected allow, got %v", err)
			}
			if !tt.allowed {
				if err == nil {
					t.Fatal("expected forbidden, got nil")
				}
				if !errors.Is(err, ErrForbidden) {
					t.Errorf("expected ErrForbidden, got %v", err)
				}
			}
		})
	}
}

func TestAuthorizeCreatorOutsideMembership(t *testing.T) {
	// A creator who is no longer in the membership map must still pass
	// when AllowCreator is set, and must fail a plain floor check.
	users := model.Membership{
		"admin": {Name: "Ann", Role: model.RoleAdmin},
	}
	if err := Authorize("creator", "creator", users, Requirement{Floor: model.RoleAdmin, AllowCreator: true}); err != nil {
		t.Errorf("creator with AllowCreator should pass, got %v", err)
	}
	if err := Authorize("creator", "creator", users, Requirement{Floor: model.RoleAdmin}); err == nil {
		t.Error("creator absent from membership should fail a plain floor check")
	}
}

func TestCanAssignRole(t *testing.T) {
	tests := []struct {
		name		  string
		actorRole	  model.Role
		actorIsCreator bool
		assigned	  model.Role
		targetIsAdmin bool
		allowed		  bool
	}{
		{"admin assigns developer", model.RoleAdmin, false, model.RoleDeveloper, false, true},
		{"admin assigns admin", model.RoleAdmin, false, model.RoleAdmin, false, true},
		{"pm assigns developer", model.RoleProjectManager, false, model.RoleDeveloper, false, true},
		{"pm cannot assign admin", model.RoleProjectManager, false, model.RoleAdmin, false, false},
		{"developer cannot assign anything", model.RoleDeveloper, false, model.RoleDeveloper, false, false},
		{"non-creator cannot demote admin", model.RoleAdmin, false, model.RoleDeveloper, true, false},
		{"creator can demote admin", model.RoleAdmin, true, model.RoleDeveloper, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanAssignRole(tt.actorRole, tt.actorIsCreator, tt.assigned, tt.targetIsAdmin)
			if tt.allowed != (err == nil) {
				t.Errorf("allowed=%v, got err=%v", tt.allowed, err)
			}
		})
	}
}

func TestCanAssignTicket(t *testing.T) {
	tests := []struct {
		name	 string
		assigner model.Role
		assignee model.Role
		allowed	 bool
	}{
		{"admin assigns developer", model.RoleAdmin, model.RoleDeveloper, true},
		{"admin assigns pm", model.RoleAdmin, model.RoleProjectManager, true},
		{"pm assigns developer", model.RoleProjectManager, model.RoleDeveloper, true},
		{"pm cannot assign pm", model.RoleProjectManager, model.RoleProjectManager, false},
		{"nobody assigns admin", model.RoleAdmin, model.RoleAdmin, false},
		{"developer cannot assign", model.RoleDeveloper, model.RoleDeveloper, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanAssignTicket(tt.assigner, tt.assignee)
			if tt.allowed != (err == nil) {
				t.Errorf("allowed=%v, got err=%v", tt.allowed, err)
			}
		})
	}
}
