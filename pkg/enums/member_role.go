package enums

import (
	"fmt"
	"strings"
)

// MemberRole is the role a user holds inside an organization.
type MemberRole string

const (
	MemberRoleOwner MemberRole = "Owner"
	MemberRoleAdmin MemberRole = "Admin"
	MemberRoleUser  MemberRole = "User"
)

var validMemberRoles = []MemberRole{
	MemberRoleOwner,
	MemberRoleAdmin,
	MemberRoleUser,
}

// ManagerRoles may change an organization and its member list.
var ManagerRoles = []MemberRole{MemberRoleOwner, MemberRoleAdmin}

// String implements fmt.Stringer.
func (m MemberRole) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberRole.
func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMemberRole converts raw input into a MemberRole. Matching ignores case
// because older clients sent lower-case roles.
func ParseMemberRole(value string) (MemberRole, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validMemberRoles {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
