package models

import (
	"time"

	"gorm.io/datatypes"
)

// Board is a storyboard canvas owned by one user.
type Board struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"not null;index" json:"userId"`
	User        *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title       string      `gorm:"size:120;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	IsPublic    bool        `gorm:"not null;default:false;index" json:"isPublic"`
	Items       []BoardItem `gorm:"foreignKey:BoardID" json:"items,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// TableName specifies the table name for GORM.
func (Board) TableName() string {
	return "boards"
}

// BoardItemKind tells what a board item renders.
type BoardItemKind string

const (
	BoardItemPhoto BoardItemKind = "photo"
	BoardItemText  BoardItemKind = "text"
)

// Layout is the position of an item on the canvas.
type Layout struct {
	X        float64 `gorm:"not null;default:0" json:"x"`
	Y        float64 `gorm:"not null;default:0" json:"y"`
	Width    float64 `gorm:"not null" json:"width"`
	Height   float64 `gorm:"not null" json:"height"`
	Rotation float64 `gorm:"not null;default:0" json:"rotation"`
	ZIndex   int     `gorm:"not null;default:0" json:"zIndex"`
}

// BoardItem is a photo or a text block placed on a board.
type BoardItem struct {
	ID      uint           `gorm:"primaryKey" json:"id"`
	BoardID uint           `gorm:"not null;index" json:"boardId"`
	Kind    BoardItemKind  `gorm:"type:varchar(10);not null" json:"kind"`
	PhotoID *uint          `gorm:"index" json:"photoId,omitempty"`
	Photo   *Photo         `gorm:"foreignKey:PhotoID" json:"photo,omitempty"`
	Text    string         `gorm:"type:text" json:"text,omitempty"`
	Style   datatypes.JSON `json:"style,omitempty"`
	Layout  `gorm:"embedded"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for GORM.
func (BoardItem) TableName() string {
	return "board_items"
}
