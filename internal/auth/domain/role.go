package domain

// Role is a privilege level in the back-office hierarchy. The set is totally
// ordered; admission checks compare levels, never string names.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
	RoleOwner    Role = "owner"
)

// Level maps a role into the privilege order. Unknown roles map to 0 so a
// corrupted or hostile role value never gains access anywhere.
func (r Role) Level() int {
	switch r {
	case RoleCustomer:
		return 1
	case RoleStaff:
		return 2
	case RoleAdmin:
		return 3
	case RoleOwner:
		return 4
	default:
		return 0
	}
}

// HasMinimumRole reports whether the user's role sits at or above min.
func (u User) HasMinimumRole(min Role) bool {
	return u.Role.Level() >= min.Level()
}

func (r Role) String() string { return string(r) }
