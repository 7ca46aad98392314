package user

import "github.com/pkg/errors"

// Role is the closed set of roles a Profile can hold.
type Role string

const (
	RoleStudent    Role = "student"
	RoleTrainer    Role = "trainer"
	RoleSupervisor Role = "supervisor"
)

var (
	Roles = []Role{RoleStudent, RoleTrainer, RoleSupervisor}

	ErrInvalidRole = errors.New("invalid role")
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTrainer, RoleSupervisor:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

func roleValues() []string {
	values := make([]string, 0, len(Roles))
	for _, r := range Roles {
		values = append(values, string(r))
	}
	return values
}

// Capabilities is what the acting user may do. It is derived once per request from the user's role.
//
// Supervisors hold every capability. Trainers author content but do not get student access.
type Capabilities struct {
	role Role
}

// CapabilitiesFor computes the capability set of the given role. Unknown roles get student capabilities.
func CapabilitiesFor(role Role) Capabilities {
	if !role.Valid() {
		role = RoleStudent
	}
	return Capabilities{role: role}
}

func (c Capabilities) Role() Role { return c.role }

func (c Capabilities) IsSupervisor() bool {
	return c.role == RoleSupervisor
}

func (c Capabilities) IsTrainer() bool {
	return c.role == RoleTrainer || c.role == RoleSupervisor
}

func (c Capabilities) CanStudentAccess() bool {
	return c.role == RoleStudent || c.role == RoleSupervisor
}
