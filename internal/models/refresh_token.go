package models

import (
	"time"
)

// RefreshToken is an issued refresh JWT; rotation revokes the previous one.
type RefreshToken struct {
	BaseModel
	UserID    string     `gorm:"size:36;index;not null" json:"userId"`
	Token     string     `gorm:"type:text;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"index" json:"expiresAt"`
	IsRevoked bool       `gorm:"default:false" json:"isRevoked"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

// Usable reports whether the token can still be exchanged at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}

// Revoke marks the token unusable.
func (t *RefreshToken) Revoke(now time.Time) {
	t.IsRevoked = true
	t.RevokedAt = &now
}
