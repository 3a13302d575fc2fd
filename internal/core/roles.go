// AngelaMos | 2026
// roles.go

package core

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLeadGuide Role = "lead-guide"
	RoleGuide     Role = "guide"
	RoleUser      Role = "user"
)

var roles = map[Role]struct{}{
	RoleAdmin:     {},
	RoleLeadGuide: {},
	RoleGuide:     {},
	RoleUser:      {},
}

func (r Role) Valid() bool {
	_, ok := roles[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// RoleSet is a closed set of roles checked by membership.
type RoleSet map[Role]struct{}

func NewRoleSet(rs ...Role) RoleSet {
	set := make(RoleSet, len(rs))
	for _, r := range rs {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}
