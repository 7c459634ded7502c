package models

import "strings"

// Permission is a coarse capability tag. Each tag statically owns the set of
// URL path patterns it protects and the patterns it explicitly leaves open.
// A tag with no protected patterns is inert: no gate is installed for it.
type Permission string

const (
	PermMember Permission = "MEMBER"
	PermAdmin  Permission = "ADMIN"
)

// permBit fixes the bit position of each permission inside the persisted
// bitmask. Positions are part of the storage format; never reorder.
func permBit(p Permission) (int, bool) {
	switch p {
	case PermMember:
		return 0, true
	case PermAdmin:
		return 1, true
	}
	return 0, false
}

// AllPermissions returns every defined permission tag.
func AllPermissions() []Permission {
	return []Permission{PermMember, PermAdmin}
}

// PathSpec returns the protected and excluded path patterns owned by the
// tag. The data is fixed per variant; callers must not mutate the slices.
func (p Permission) PathSpec() (protected, excluded []string) {
	switch p {
	case PermMember:
		return []string{"/members/**"}, nil
	case PermAdmin:
		return []string{"/admin/**"}, nil
	}
	return nil, nil
}

// permIndex is the immutable lowercase name lookup, built once at init.
var permIndex = func() map[string]Permission {
	idx := make(map[string]Permission, len(AllPermissions()))
	for _, p := range AllPermissions() {
		idx[strings.ToLower(string(p))] = p
	}
	return idx
}()

// PermissionByName resolves a permission tag by case-insensitive name.
func PermissionByName(name string) (Permission, bool) {
	p, ok := permIndex[strings.ToLower(name)]
	return p, ok
}

// EncodePermissions packs permission tags into the persistence bitmask.
// Unknown tags are dropped.
func EncodePermissions(perms []Permission) int64 {
	var mask int64
	for _, p := range perms {
		if bit, ok := permBit(p); ok {
			mask |= 1 << bit
		}
	}
	return mask
}

// DecodePermissionMask unpacks a persistence bitmask into permission tags.
func DecodePermissionMask(mask int64) []Permission {
	var perms []Permission
	for _, p := range AllPermissions() {
		bit, _ := permBit(p)
		if mask&(1<<bit) != 0 {
			perms = append(perms, p)
		}
	}
	return perms
}

// PermissionNames renders permission tags as plain strings for token claims.
func PermissionNames(perms []Permission) []string {
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, string(p))
	}
	return names
}

// MatchPath reports whether a request path matches a pattern. Patterns are
// exact, "*" for one path segment, or a trailing "/**" for a whole subtree.
func MatchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	if !strings.Contains(pattern, "*") {
		return false
	}
	pSegs := strings.Split(strings.Trim(pattern, "/"), "/")
	tSegs := strings.Split(strings.Trim(path, "/"), "/")
	if len(pSegs) != len(tSegs) {
		return false
	}
	for i, seg := range pSegs {
		if seg != "*" && seg != tSegs[i] {
			return false
		}
	}
	return true
}

// MatchAnyPath reports whether the path matches any of the patterns.
func MatchAnyPath(patterns []string, path string) bool {
	for _, pat := range patterns {
		if MatchPath(pat, path) {
			return true
		}
	}
	return false
}
