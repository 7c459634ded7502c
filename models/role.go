package models

import "strings"

// Role classifies an identity (ordinary member vs administrator). It is
// distinct from Permission: roles travel in token claims for coarse checks,
// permissions drive the path-gating model.
type Role string

const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// roleBit fixes the bit position of each role inside the persisted bitmask.
// Positions are part of the storage format; never reorder.
func roleBit(r Role) (int, bool) {
	switch r {
	case RoleMember:
		return 0, true
	case RoleAdmin:
		return 1, true
	}
	return 0, false
}

// AllRoles returns every defined role tag.
func AllRoles() []Role {
	return []Role{RoleMember, RoleAdmin}
}

// roleIndex is the immutable lowercase name lookup, built once at init.
var roleIndex = func() map[string]Role {
	idx := make(map[string]Role, len(AllRoles()))
	for _, r := range AllRoles() {
		idx[strings.ToLower(string(r))] = r
	}
	return idx
}()

// RoleByName resolves a role tag by case-insensitive name.
func RoleByName(name string) (Role, bool) {
	r, ok := roleIndex[strings.ToLower(name)]
	return r, ok
}

// EncodeRoles packs role tags into the persistence bitmask. Unknown tags are
// dropped.
func EncodeRoles(roles []Role) int64 {
	var mask int64
	for _, r := range roles {
		if bit, ok := roleBit(r); ok {
			mask |= 1 << bit
		}
	}
	return mask
}

// DecodeRoleMask unpacks a persistence bitmask into role tags.
func DecodeRoleMask(mask int64) []Role {
	var roles []Role
	for _, r := range AllRoles() {
		bit, _ := roleBit(r)
		if mask&(1<<bit) != 0 {
			roles = append(roles, r)
		}
	}
	return roles
}

// RoleNames renders role tags as plain strings for token claims.
func RoleNames(roles []Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return names
}
