package server

import (
	"io"

	"storyboard/internal/models"
	"storyboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updatePhotoRequest struct {
	Title     *string `json:"title"`
	IsPrivate *bool   `json:"isPrivate"`
}

// UploadPhoto handles POST /api/photos (multipart field "photo").
func (s *Server) UploadPhoto(c *fiber.Ctx) error {
	file, err := c.FormFile("photo")
	if err != nil {
		return respondServiceError(c, models.NewValidationError("No file uploaded"))
	}
	if file.Size > s.config.MaxUploadBytes() {
		return respondServiceError(c, models.NewValidationError("File too large"))
	}

	src, err := file.Open()
	if err != nil {
		return respondServiceError(c, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		return respondServiceError(c, models.NewValidationError("Unable to read uploaded file"))
	}

	photo, err := s.photoService.Upload(c.UserContext(), service.UploadPhotoInput{
		UserID:      currentUserID(c),
		Title:       c.FormValue("title"),
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Data:        data,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(photo)
}

// GetFeed handles GET /api/photos/feed
func (s *Server) GetFeed(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	photos, err := s.photoService.Feed(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(photos)
}

// GetMyPhotos handles GET /api/photos/mine
func (s *Server) GetMyPhotos(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	photos, err := s.photoService.ListMine(c.UserContext(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(photos)
}

// GetPhoto handles GET /api/photos/:id
func (s *Server) GetPhoto(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	photo, err := s.photoService.Get(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(photo)
}

// ServePhoto streams one stored variant of a photo.
func (s *Server) ServePhoto(variant string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return nil
		}
		rc, contentType, err := s.photoService.Open(c.UserContext(), currentUserID(c), id, variant)
		if err != nil {
			return respondServiceError(c, err)
		}
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderCacheControl, "private, max-age=300")
		// Fiber closes the stream once it has been written.
		return c.SendStream(rc)
	}
}

// UpdatePhoto handles PATCH /api/photos/:id
func (s *Server) UpdatePhoto(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updatePhotoRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	photo, err := s.photoService.Update(c.UserContext(), service.UpdatePhotoInput{
		ActorID:   currentUserID(c),
		PhotoID:   id,
		Title:     req.Title,
		IsPrivate: req.IsPrivate,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(photo)
}

// DeletePhoto handles DELETE /api/photos/:id
func (s *Server) DeletePhoto(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.photoService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FavoritePhoto handles POST /api/photos/:id/favorite
func (s *Server) FavoritePhoto(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.photoService.Favorite(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Added to favorites"})
}

// UnfavoritePhoto handles DELETE /api/photos/:id/favorite
func (s *Server) UnfavoritePhoto(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.photoService.Unfavorite(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFavorites handles GET /api/favorites
func (s *Server) GetFavorites(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	photos, err := s.photoService.ListFavorites(c.UserContext(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(photos)
}
