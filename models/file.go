package models

import "time"

type File struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	OriginalName string     `gorm:"type:varchar(255);not null" json:"original_name"`
	Size         int64      `gorm:"not null" json:"size"`
	MimeType     string     `gorm:"type:varchar(255)" json:"mime_type"`
	StorageKey   string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	FolderID     *uint      `gorm:"index" json:"folder_id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	IsDeleted    bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt    *time.Time `json:"deleted_at"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsImage reports whether the sniffed content type is a raster image.
func (f File) IsImage() bool {
	switch f.MimeType {
	case "image/jpeg", "image/png", "image/gif", "image/bmp", "image/tiff":
		return true
	}
	return false
}
