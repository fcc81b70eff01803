package models

import "time"

type Share struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	FileID    uint       `gorm:"not null;index" json:"file_id"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether the share is past its validity window at now.
func (s Share) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}
