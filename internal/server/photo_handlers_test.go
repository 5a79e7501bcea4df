package server

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"storyboard/internal/models"
	"storyboard/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) upload(t *testing.T, token, title string, data []byte) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", title))

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="shot.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/photos", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestUploadPhoto_ServesFileAndThumbnail(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, false)

	resp, data := ts.upload(t, ts.token(t, owner), "harbour", testutil.TinyPNG(t, 64, 48))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	photo := decode[models.Photo](t, data)
	assert.Equal(t, "harbour", photo.Title)
	assert.Equal(t, 64, photo.Width)
	assert.False(t, photo.IsPrivate)

	resp, data = ts.do(t, http.MethodGet, fmt.Sprintf("/api/photos/%d/file", photo.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
	assert.NotEmpty(t, data)

	resp, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/photos/%d/thumbnail", photo.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/webp", resp.Header.Get(fiber.HeaderContentType))
}

func TestUploadPhoto_RejectsBadInput(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, false)

	resp, data := ts.upload(t, ts.token(t, owner), "junk", []byte("definitely not an image"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assertErrorCode(t, data, models.CodeValidation)

	resp, data = ts.do(t, http.MethodPost, "/api/photos", ts.token(t, owner), map[string]any{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assertErrorCode(t, data, models.CodeValidation)
}

func TestFeed_HidesModeratedPhotos(t *testing.T) {
	ts := newTestServer(t)
	admin := testutil.CreateUser(t, ts.db, true)
	owner := testutil.CreateUser(t, ts.db, false)
	reporter := testutil.CreateUser(t, ts.db, false)
	keep := testutil.CreatePhoto(t, ts.db, owner.ID, false)
	flagged := testutil.CreatePhoto(t, ts.db, owner.ID, false)

	id := ts.fileReport(t, reporter, flagged.ID, "Inappropriate Content")
	resp, _ := ts.do(t, http.MethodPut, fmt.Sprintf("/api/reports/approve/%d", id), ts.token(t, admin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := ts.do(t, http.MethodGet, "/api/photos/feed", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decode[[]models.Photo](t, data)
	require.Len(t, feed, 1)
	assert.Equal(t, keep.ID, feed[0].ID)

	resp, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/photos/%d/file", flagged.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data = ts.do(t, http.MethodGet, "/api/photos/mine", ts.token(t, owner), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Photo](t, data), 2)
}

func TestPhotoRoutes_Ownership(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, false)
	other := testutil.CreateUser(t, ts.db, false)
	photo := testutil.CreatePhoto(t, ts.db, owner.ID, false)
	path := fmt.Sprintf("/api/photos/%d", photo.ID)

	resp, data := ts.do(t, http.MethodPatch, path, ts.token(t, other), map[string]any{"title": "mine now"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assertErrorCode(t, data, models.CodeForbidden)

	resp, _ = ts.do(t, http.MethodDelete, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, data = ts.do(t, http.MethodPatch, path, ts.token(t, owner), map[string]any{"isPrivate": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.True(t, decode[models.Photo](t, data).IsPrivate)

	resp, _ = ts.do(t, http.MethodDelete, path, ts.token(t, owner), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, path, ts.token(t, owner), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFavorites(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, false)
	fan := testutil.CreateUser(t, ts.db, false)
	photo := testutil.CreatePhoto(t, ts.db, owner.ID, false)
	fanToken := ts.token(t, fan)
	path := fmt.Sprintf("/api/photos/%d/favorite", photo.ID)

	resp, _ := ts.do(t, http.MethodPost, path, fanToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, data := ts.do(t, http.MethodPost, path, fanToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assertErrorCode(t, data, models.CodeAlreadyFavorite)

	resp, data = ts.do(t, http.MethodGet, "/api/favorites", fanToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Photo](t, data), 1)

	resp, _ = ts.do(t, http.MethodDelete, path, fanToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodDelete, path, fanToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
