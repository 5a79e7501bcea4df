package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const maxAdminUserSearchLen = 64

// ListUsers handles GET /api/admin/users?q=&limit=&offset=
func (s *Server) ListUsers(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if len(query) > maxAdminUserSearchLen {
		query = query[:maxAdminUserSearchLen]
	}
	p := parsePagination(c, 20)

	page, err := s.accountService.ListUsers(c.UserContext(), currentUserID(c), query, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// LockUser handles POST /api/admin/users/:id/lock
func (s *Server) LockUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.accountService.LockUser(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User locked"})
}

// UnlockUser handles POST /api/admin/users/:id/unlock
func (s *Server) UnlockUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.accountService.UnlockUser(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User unlocked"})
}

// DeleteUser handles DELETE /api/admin/users/:id and reports what was removed.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	summary, err := s.accountService.DeleteUser(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "User deleted",
		"deleted": summary,
	})
}
