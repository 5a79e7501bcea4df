package server

import (
	"fmt"
	"net/http"
	"testing"

	"storyboard/internal/models"
	"storyboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardLifecycle(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, false)
	token := ts.token(t, owner)
	photo := testutil.CreatePhoto(t, ts.db, owner.ID, false)

	resp, data := ts.do(t, http.MethodPost, "/api/boards", token,
		map[string]any{"title": "Lisbon", "isPublic": true})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	board := decode[models.Board](t, data)
	assert.Equal(t, "Lisbon", board.Title)

	itemsPath := fmt.Sprintf("/api/boards/%d/items", board.ID)
	resp, data = ts.do(t, http.MethodPost, itemsPath, token, map[string]any{
		"kind":    "photo",
		"photoId": photo.ID,
		"layout":  map[string]any{"x": 10, "y": 20, "width": 200, "height": 150},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	first := decode[models.BoardItem](t, data)

	resp, data = ts.do(t, http.MethodPost, itemsPath, token, map[string]any{
		"kind":   "text",
		"text":   "day one",
		"layout": map[string]any{"x": 0, "y": 0, "width": 100, "height": 40},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	second := decode[models.BoardItem](t, data)
	assert.Greater(t, second.ZIndex, first.ZIndex)

	resp, data = ts.do(t, http.MethodPost, fmt.Sprintf("%s/%d/front", itemsPath, first.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Greater(t, decode[models.BoardItem](t, data).ZIndex, second.ZIndex)

	resp, data = ts.do(t, http.MethodPut, fmt.Sprintf("/api/boards/%d/layout", board.ID), token, map[string]any{
		"items": []map[string]any{
			{"itemId": second.ID, "layout": map[string]any{"x": 5, "y": 5, "width": 120, "height": 40}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, data = ts.do(t, http.MethodGet, "/api/boards/public", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Board](t, data), 1)

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", itemsPath, second.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/boards/%d", board.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/boards/%d", board.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBoardRoutes_PrivateBoardsAreHidden(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, false)
	other := testutil.CreateUser(t, ts.db, false)
	board := testutil.CreateBoard(t, ts.db, owner.ID, false)
	path := fmt.Sprintf("/api/boards/%d", board.ID)

	resp, _ := ts.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, path, ts.token(t, other), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, path, ts.token(t, owner), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := ts.do(t, http.MethodPost, path+"/items", ts.token(t, other),
		map[string]any{"kind": "text", "text": "hi", "layout": map[string]any{"width": 10, "height": 10}})
	assert.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, resp.StatusCode, string(data))
}
