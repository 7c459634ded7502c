package models

import "time"

// RefreshToken is one persisted refresh-token row. A user may own several
// concurrently (multi-device); rotation extends ExpiresAt on the same row
// instead of minting a new id.
type RefreshToken struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UUID      string `gorm:"size:36;not null;uniqueIndex"`
	UserID    uint   `gorm:"index;not null"`
	ExpiresAt int64  `gorm:"index;not null"` // epoch millis
}

// Expired reports whether the row is past its expiry at the given instant.
func (rt *RefreshToken) Expired(nowMillis int64) bool {
	return rt.ExpiresAt < nowMillis
}
