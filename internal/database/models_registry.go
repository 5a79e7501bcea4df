package database

import "storyboard/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Parents come before the tables that reference them.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Photo{},
		&models.Board{},
		&models.BoardItem{},
		&models.Favorite{},
		&models.Report{},
	}
}
