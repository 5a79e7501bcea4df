// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"storyboard/internal/database"
	"storyboard/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Uint64

// NewSQLiteDB opens a migrated in-memory database private to the test.
// The pool is pinned to one connection so every query sees the same memory
// database.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// CreateUser inserts a user with unique credentials.
func CreateUser(t testing.TB, db *gorm.DB, admin bool) *models.User {
	t.Helper()
	n := seq.Add(1)
	u := &models.User{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
		Password: "x",
		IsAdmin:  admin,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePhoto inserts a photo record owned by userID.
func CreatePhoto(t testing.TB, db *gorm.DB, userID uint, private bool) *models.Photo {
	t.Helper()
	n := seq.Add(1)
	p := &models.Photo{
		UserID:       userID,
		Title:        fmt.Sprintf("photo %d", n),
		StorageKey:   fmt.Sprintf("originals/%d.png", n),
		ThumbnailKey: fmt.Sprintf("thumbs/%d.webp", n),
		ContentType:  "image/png",
		Width:        4,
		Height:       4,
	}
	require.NoError(t, db.Create(p).Error)
	if private {
		require.NoError(t, db.Model(p).Update("is_private", true).Error)
		p.IsPrivate = true
	}
	return p
}

// CreateBoard inserts a board owned by userID.
func CreateBoard(t testing.TB, db *gorm.DB, userID uint, public bool) *models.Board {
	t.Helper()
	b := &models.Board{
		UserID:   userID,
		Title:    fmt.Sprintf("board %d", seq.Add(1)),
		IsPublic: public,
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
