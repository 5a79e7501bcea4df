package service

import (
	"context"
	"encoding/json"

	"storyboard/internal/models"
	"storyboard/internal/repository"
	"storyboard/internal/validation"

	"gorm.io/datatypes"
)

// BoardService manages storyboards and the items placed on their canvas.
type BoardService struct {
	boards repository.BoardRepository
	photos repository.PhotoRepository
}

type CreateBoardInput struct {
	UserID      uint
	Title       string
	Description string
	IsPublic    bool
}

type UpdateBoardInput struct {
	ActorID     uint
	BoardID     uint
	Title       *string
	Description *string
	IsPublic    *bool
}

type AddItemInput struct {
	ActorID uint
	BoardID uint
	Kind    models.BoardItemKind
	PhotoID *uint
	Text    string
	Style   json.RawMessage
	// A zero ZIndex places the item above everything else.
	Layout models.Layout
}

type ItemLayout struct {
	ItemID uint          `json:"itemId"`
	Layout models.Layout `json:"layout"`
}

func NewBoardService(boards repository.BoardRepository, photos repository.PhotoRepository) *BoardService {
	return &BoardService{boards: boards, photos: photos}
}

func (s *BoardService) Create(ctx context.Context, in CreateBoardInput) (*models.Board, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	title := validation.CleanText(in.Title)
	if err := validation.ValidateTitle("title", title, validation.MaxBoardTitleLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	board := &models.Board{
		UserID:      in.UserID,
		Title:       title,
		Description: validation.CleanText(in.Description),
		IsPublic:    in.IsPublic,
	}
	if err := s.boards.Create(ctx, board); err != nil {
		return nil, err
	}
	return board, nil
}

// Get returns the board with the items viewerID is allowed to see. Items
// whose photo is gone or hidden from the viewer are left out.
func (s *BoardService) Get(ctx context.Context, viewerID, boardID uint) (*models.Board, error) {
	board, err := s.boards.GetWithItems(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board.UserID != viewerID && !board.IsPublic {
		return nil, models.NewNotFoundError("Board", boardID)
	}

	visible := make([]models.BoardItem, 0, len(board.Items))
	for _, item := range board.Items {
		if item.Kind == models.BoardItemPhoto && (item.Photo == nil || !item.Photo.VisibleTo(viewerID)) {
			continue
		}
		visible = append(visible, item)
	}
	board.Items = visible
	return board, nil
}

func (s *BoardService) ListMine(ctx context.Context, userID uint, limit, offset int) ([]models.Board, error) {
	limit, offset = normalizePage(limit, offset)
	boards, err := s.boards.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if boards == nil {
		boards = []models.Board{}
	}
	return boards, nil
}

func (s *BoardService) ListPublic(ctx context.Context, limit, offset int) ([]models.Board, error) {
	limit, offset = normalizePage(limit, offset)
	boards, err := s.boards.ListPublic(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if boards == nil {
		boards = []models.Board{}
	}
	return boards, nil
}

func (s *BoardService) Update(ctx context.Context, in UpdateBoardInput) (*models.Board, error) {
	board, err := s.ownedBoard(ctx, in.ActorID, in.BoardID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		title := validation.CleanText(*in.Title)
		if err := validation.ValidateTitle("title", title, validation.MaxBoardTitleLen); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["title"] = title
		board.Title = title
	}
	if in.Description != nil {
		board.Description = validation.CleanText(*in.Description)
		fields["description"] = board.Description
	}
	if in.IsPublic != nil {
		fields["is_public"] = *in.IsPublic
		board.IsPublic = *in.IsPublic
	}
	if len(fields) == 0 {
		return board, nil
	}
	if err := s.boards.Update(ctx, board.ID, fields); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *BoardService) Delete(ctx context.Context, actorID, boardID uint) error {
	if _, err := s.ownedBoard(ctx, actorID, boardID); err != nil {
		return err
	}
	return s.boards.Delete(ctx, boardID)
}

func (s *BoardService) AddItem(ctx context.Context, in AddItemInput) (*models.BoardItem, error) {
	if _, err := s.ownedBoard(ctx, in.ActorID, in.BoardID); err != nil {
		return nil, err
	}
	if err := validation.ValidateStyle(in.Style); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	layout, err := validation.NormalizeLayout(in.Layout)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	item := &models.BoardItem{BoardID: in.BoardID, Kind: in.Kind}
	if len(in.Style) > 0 {
		item.Style = datatypes.JSON(in.Style)
	}

	switch in.Kind {
	case models.BoardItemPhoto:
		if in.PhotoID == nil || *in.PhotoID == 0 {
			return nil, models.NewValidationError("photoId is required for photo items")
		}
		photo, err := s.photos.GetByID(ctx, *in.PhotoID)
		if err != nil {
			return nil, err
		}
		if !photo.VisibleTo(in.ActorID) {
			return nil, models.NewNotFoundError("Photo", *in.PhotoID)
		}
		item.PhotoID = &photo.ID
	case models.BoardItemText:
		if err := validation.ValidateTextItem(in.Text); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		item.Text = validation.CleanText(in.Text)
	default:
		return nil, models.NewValidationError("kind must be photo or text")
	}

	if layout.ZIndex == 0 {
		top, err := s.boards.MaxZIndex(ctx, in.BoardID)
		if err != nil {
			return nil, err
		}
		layout.ZIndex = top + 1
	}
	item.Layout = layout

	if err := s.boards.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemLayout saves the position of one item.
func (s *BoardService) UpdateItemLayout(ctx context.Context, actorID, boardID, itemID uint, l models.Layout) (*models.BoardItem, error) {
	if _, err := s.ownedBoard(ctx, actorID, boardID); err != nil {
		return nil, err
	}
	layout, err := validation.NormalizeLayout(l)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.boards.UpdateItem(ctx, boardID, itemID, layoutColumns(layout)); err != nil {
		return nil, err
	}
	return s.boards.GetItem(ctx, boardID, itemID)
}

// SaveLayout saves every item's position or none of them.
func (s *BoardService) SaveLayout(ctx context.Context, actorID, boardID uint, layouts []ItemLayout) error {
	if _, err := s.ownedBoard(ctx, actorID, boardID); err != nil {
		return err
	}
	if len(layouts) == 0 {
		return models.NewValidationError("layout must list at least one item")
	}

	byItem := make(map[uint]models.Layout, len(layouts))
	for _, il := range layouts {
		if _, dup := byItem[il.ItemID]; dup {
			return models.NewValidationError("layout lists an item more than once")
		}
		layout, err := validation.NormalizeLayout(il.Layout)
		if err != nil {
			return models.NewValidationError(err.Error())
		}
		byItem[il.ItemID] = layout
	}
	return s.boards.SaveLayouts(ctx, boardID, byItem)
}

// BringToFront moves the item above every other item on the board.
func (s *BoardService) BringToFront(ctx context.Context, actorID, boardID, itemID uint) (*models.BoardItem, error) {
	if _, err := s.ownedBoard(ctx, actorID, boardID); err != nil {
		return nil, err
	}
	item, err := s.boards.GetItem(ctx, boardID, itemID)
	if err != nil {
		return nil, err
	}
	top, err := s.boards.MaxZIndex(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if item.ZIndex == top {
		return item, nil
	}
	if err := s.boards.UpdateItem(ctx, boardID, itemID, map[string]interface{}{"z_index": top + 1}); err != nil {
		return nil, err
	}
	item.ZIndex = top + 1
	return item, nil
}

func (s *BoardService) DeleteItem(ctx context.Context, actorID, boardID, itemID uint) error {
	if _, err := s.ownedBoard(ctx, actorID, boardID); err != nil {
		return err
	}
	return s.boards.DeleteItem(ctx, boardID, itemID)
}

// ownedBoard hides private boards of other users behind NotFound.
func (s *BoardService) ownedBoard(ctx context.Context, actorID, boardID uint) (*models.Board, error) {
	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board.UserID != actorID {
		if !board.IsPublic {
			return nil, models.NewNotFoundError("Board", boardID)
		}
		return nil, models.NewForbiddenError("Only the owner can edit this board")
	}
	return board, nil
}

func layoutColumns(l models.Layout) map[string]interface{} {
	return map[string]interface{}{
		"x":        l.X,
		"y":        l.Y,
		"width":    l.Width,
		"height":   l.Height,
		"rotation": l.Rotation,
		"z_index":  l.ZIndex,
	}
}
