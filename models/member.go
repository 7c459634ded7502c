package models

import (
	"time"
)

// Member is the credential record behind every login. Roles and permissions
// are persisted as bitmasks; use the accessors to work with tag slices.
type Member struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	StudentNumber int64   `gorm:"uniqueIndex;not null"`
	Email         *string `gorm:"size:255;uniqueIndex"`
	PasswordHash  string  `gorm:"size:128;not null"`
	RoleMask      int64   `gorm:"not null;default:0"`
	PermMask      int64   `gorm:"not null;default:0"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Roles decodes the persisted role bitmask.
func (m *Member) Roles() []Role {
	return DecodeRoleMask(m.RoleMask)
}

// Permissions decodes the persisted permission bitmask.
func (m *Member) Permissions() []Permission {
	return DecodePermissionMask(m.PermMask)
}

// SetRoles overwrites the persisted role bitmask.
func (m *Member) SetRoles(roles []Role) {
	m.RoleMask = EncodeRoles(roles)
}

// SetPermissions overwrites the persisted permission bitmask.
func (m *Member) SetPermissions(perms []Permission) {
	m.PermMask = EncodePermissions(perms)
}

// MemberUpdate carries optional new values for the mutable member fields.
// The merge is explicit per field; a field added here must be mirrored in
// Apply or it silently never updates.
type MemberUpdate struct {
	Email *string
}

// Apply merges the update into the member, field by field.
func (u MemberUpdate) Apply(m *Member) {
	if u.Email != nil {
		m.Email = u.Email
	}
}
