package entity

// RoleNames constants
const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RoleNurse        = "nurse"
	RoleReceptionist = "receptionist"
	RolePharmacist   = "pharmacist"
)

// Permission names an action a role may perform
type Permission string

const (
	PermPatientRead   Permission = "patient:read"
	PermPatientWrite  Permission = "patient:write"
	PermPatientDelete Permission = "patient:delete"
	PermStaffRead     Permission = "staff:read"
	PermStaffWrite    Permission = "staff:write"
	PermAuditRead     Permission = "audit:read"
)

var rolePermissions = map[string][]Permission{
	RoleAdmin: {
		PermPatientRead, PermPatientWrite, PermPatientDelete,
		PermStaffRead, PermStaffWrite, PermAuditRead,
	},
	RoleDoctor:       {PermPatientRead, PermPatientWrite, PermStaffRead},
	RoleNurse:        {PermPatientRead, PermPatientWrite, PermStaffRead},
	RoleReceptionist: {PermPatientRead, PermPatientWrite, PermStaffRead},
	RolePharmacist:   {PermPatientRead, PermStaffRead},
}

// IsValidRole reports whether role appears in the permission table
func IsValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// RoleHasPermission reports whether role is granted perm
func RoleHasPermission(role string, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
