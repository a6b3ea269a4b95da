package policy

// Role is the single role a session holds.
type Role string

const (
	RoleGeneralManager        Role = "General Manager"
	RoleDistrictManager       Role = "District Manager"
	RolePlantManager          Role = "Plant Manager"
	RoleCementDispatcher      Role = "Cement Dispatcher"
	RoleCementDispatchManager Role = "Cement Dispatch Manager"
	RoleReadyMixInstructor    Role = "Ready Mix Instructor"
	RoleDispatchManager       Role = "Dispatch Manager"
	RoleIT                    Role = "IT"
	RoleUser                  Role = "User"
	RoleGuest                 Role = "Guest"
)

// FullAccess is the role whose grant set is the whole catalogue.
const FullAccess = RoleIT

var roles = []Role{
	RoleGeneralManager,
	RoleDistrictManager,
	RolePlantManager,
	RoleCementDispatcher,
	RoleCementDispatchManager,
	RoleReadyMixInstructor,
	RoleDispatchManager,
	RoleIT,
	RoleUser,
	RoleGuest,
}

// AllRoles returns every known role in display order.
func AllRoles() []Role {
	return append([]Role(nil), roles...)
}

// ParseRole maps a stored or user-supplied label onto a known role.
// The match is exact; anything else returns false.
func ParseRole(s string) (Role, bool) {
	for _, r := range roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Known reports whether r is one of the enumerated roles.
func (r Role) Known() bool {
	_, ok := ParseRole(string(r))
	return ok
}
