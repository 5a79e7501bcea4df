package models

import "time"

// Photo is an uploaded image. IsPrivate hides it from every listing that is
// not the owner's own.
type Photo struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"userId"`
	User         *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title        string    `gorm:"size:200" json:"title"`
	StorageKey   string    `gorm:"size:255;not null" json:"-"`
	ThumbnailKey string    `gorm:"size:255" json:"-"`
	ContentType  string    `gorm:"size:50" json:"contentType"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	SizeBytes    int64     `json:"sizeBytes"`
	IsPrivate    bool      `gorm:"not null;default:false;index:idx_photos_visibility,priority:1" json:"isPrivate"`
	CreatedAt    time.Time `gorm:"index:idx_photos_visibility,priority:2" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName specifies the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}

// VisibleTo reports whether viewerID may see the photo. Admin access is
// decided by the caller.
func (p *Photo) VisibleTo(viewerID uint) bool {
	return !p.IsPrivate || (viewerID != 0 && p.UserID == viewerID)
}

// StorageKeys lists the file store keys backing the photo.
func (p *Photo) StorageKeys() []string {
	keys := make([]string, 0, 2)
	if p.StorageKey != "" {
		keys = append(keys, p.StorageKey)
	}
	if p.ThumbnailKey != "" {
		keys = append(keys, p.ThumbnailKey)
	}
	return keys
}

// Favorite marks a photo as saved by a user.
type Favorite struct {
	UserID    uint      `gorm:"primaryKey" json:"userId"`
	PhotoID   uint      `gorm:"primaryKey;index" json:"photoId"`
	Photo     *Photo    `gorm:"foreignKey:PhotoID" json:"photo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM.
func (Favorite) TableName() string {
	return "favorites"
}
