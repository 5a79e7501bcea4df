package server

import (
	"encoding/json"

	"storyboard/internal/models"
	"storyboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createBoardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

type updateBoardRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

type addItemRequest struct {
	Kind    models.BoardItemKind `json:"kind"`
	PhotoID *uint                `json:"photoId"`
	Text    string               `json:"text"`
	Style   json.RawMessage      `json:"style"`
	Layout  models.Layout        `json:"layout"`
}

type saveLayoutRequest struct {
	Items []service.ItemLayout `json:"items"`
}

// CreateBoard handles POST /api/boards
func (s *Server) CreateBoard(c *fiber.Ctx) error {
	var req createBoardRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	board, err := s.boardService.Create(c.UserContext(), service.CreateBoardInput{
		UserID:      currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(board)
}

// GetMyBoards handles GET /api/boards
func (s *Server) GetMyBoards(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	boards, err := s.boardService.ListMine(c.UserContext(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(boards)
}

// GetPublicBoards handles GET /api/boards/public
func (s *Server) GetPublicBoards(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	boards, err := s.boardService.ListPublic(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(boards)
}

// GetBoard handles GET /api/boards/:id
func (s *Server) GetBoard(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	board, err := s.boardService.Get(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(board)
}

// UpdateBoard handles PATCH /api/boards/:id
func (s *Server) UpdateBoard(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateBoardRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	board, err := s.boardService.Update(c.UserContext(), service.UpdateBoardInput{
		ActorID:     currentUserID(c),
		BoardID:     id,
		Title:       req.Title,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(board)
}

// DeleteBoard handles DELETE /api/boards/:id
func (s *Server) DeleteBoard(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.boardService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddBoardItem handles POST /api/boards/:id/items
func (s *Server) AddBoardItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req addItemRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	item, err := s.boardService.AddItem(c.UserContext(), service.AddItemInput{
		ActorID: currentUserID(c),
		BoardID: id,
		Kind:    req.Kind,
		PhotoID: req.PhotoID,
		Text:    req.Text,
		Style:   req.Style,
		Layout:  req.Layout,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateBoardItem handles PATCH /api/boards/:id/items/:itemId with a layout body.
func (s *Server) UpdateBoardItem(c *fiber.Ctx) error {
	boardID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return nil
	}
	var layout models.Layout
	if err := parseBody(c, &layout); err != nil {
		return nil
	}
	item, err := s.boardService.UpdateItemLayout(c.UserContext(), currentUserID(c), boardID, itemID, layout)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(item)
}

// BringBoardItemToFront handles POST /api/boards/:id/items/:itemId/front
func (s *Server) BringBoardItemToFront(c *fiber.Ctx) error {
	boardID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return nil
	}
	item, err := s.boardService.BringToFront(c.UserContext(), currentUserID(c), boardID, itemID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(item)
}

// DeleteBoardItem handles DELETE /api/boards/:id/items/:itemId
func (s *Server) DeleteBoardItem(c *fiber.Ctx) error {
	boardID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return nil
	}
	if err := s.boardService.DeleteItem(c.UserContext(), currentUserID(c), boardID, itemID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SaveBoardLayout handles PUT /api/boards/:id/layout, the batch auto-save.
func (s *Server) SaveBoardLayout(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req saveLayoutRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.boardService.SaveLayout(c.UserContext(), currentUserID(c), id, req.Items); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Layout saved", "items": len(req.Items)})
}
