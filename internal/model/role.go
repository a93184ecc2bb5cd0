package model

// Role is the closed set of project roles. Keeping the role a typed
// enum rather than a free string eliminates the typo-class bugs that
// come with comparing raw strings (e.g. 'admin' vs 'Admin').
type Role string

const (
	RoleDeveloper	   Role = "Developer"		// lowest rank, can work tickets
	RoleProjectManager Role = "Project Manager" // can invite and assign tickets
	RoleAdmin		   Role = "Admin"			// full control of the project
)

// roleRank maps each role to its position in the hierarchy.  Higher
// numbers outrank lower ones.  Unknown roles rank below everything.
var roleRank = map[Role]int{
	RoleDeveloper:		1,
	RoleProjectManager: 2,
	RoleAdmin:			3,
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above the floor role.  An
// unknown role never satisfies any floor.
func (r Role) AtLeast(floor Role) bool {
	return roleRank[r] >= roleRank[floor] && roleRank[r] != 0
}

// Member is a single entry in a project's membership map.  The name and
// email are denormalized from the user record so a project listing does
// not need a second query per member.
type Member struct {
	Name  string `json:"name"`	// display name of the member
	Email string `json:"email"` // email of the member
	Role  Role	 `json:"role"`	// role of the member within the project
}

// Membership is the per-project mapping from user id to member info.
// The project exclusively owns this map.
type Membership map[string]Member

// RoleOf returns the role of the given user, or an empty role when the
// user is not a member.
func (m Membership) RoleOf(userID string) (Role, bool) {
	entry, ok := m[userID]
	return entry.Role, ok
}
