package models

import "time"

// LockedForever is the suspension timestamp written when an administrator
// locks an account.
var LockedForever = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// User is an account on the platform.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email       string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password    string     `gorm:"size:255;not null" json:"-"`
	DisplayName string     `gorm:"size:100" json:"displayName"`
	IsAdmin     bool       `gorm:"not null;default:false" json:"isAdmin"`
	LockedUntil *time.Time `json:"lockedUntil,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// IsLocked reports whether the account is suspended at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
