package models

import "time"

type User struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email           string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash    *string   `gorm:"type:varchar(255)" json:"-"`
	FullName        string    `gorm:"type:varchar(255)" json:"full_name"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	StorageQuota    int64     `gorm:"not null;default:32212254720;comment:storage quota in bytes" json:"storage_quota"`
	StorageUsed     int64     `gorm:"not null;default:0;comment:bytes used by stored files" json:"storage_used"`
	OAuthProvider   *string   `gorm:"type:varchar(50);uniqueIndex:idx_oauth_identity" json:"oauth_provider,omitempty"`
	OAuthProviderID *string   `gorm:"type:varchar(255);uniqueIndex:idx_oauth_identity" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can sign in with a password.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
