// Package repository implements the data access layer for the application.
package repository

import (
	"errors"

	"storyboard/internal/models"
)

// asAppError leaves AppErrors untouched and wraps everything else as an
// internal error.
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
