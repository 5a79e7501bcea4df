package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"itemId", "item ID"},
		{"boardItemId", "board item ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c, 25)
		return c.JSON(fiber.Map{"limit": p.Limit, "offset": p.Offset})
	})

	tests := []struct {
		query      string
		wantLimit  float64
		wantOffset float64
	}{
		{"", 25, 0},
		{"?limit=10&offset=30", 10, 30},
		{"?limit=1000", 100, 0},
		{"?limit=-1&offset=-5", 25, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantLimit, body["limit"])
			assert.Equal(t, tt.wantOffset, body["offset"])
		})
	}
}

func TestParseID(t *testing.T) {
	app := fiber.New()
	app.Get("/boards/:id/items/:itemId", func(c *fiber.Ctx) error {
		if _, err := parseID(c, "id"); err != nil {
			return nil
		}
		id, err := parseID(c, "itemId")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	tests := []struct {
		path       string
		wantStatus int
		wantError  string
	}{
		{"/boards/1/items/42", http.StatusOK, ""},
		{"/boards/abc/items/42", http.StatusBadRequest, "Invalid ID"},
		{"/boards/0/items/42", http.StatusBadRequest, "Invalid ID"},
		{"/boards/1/items/x", http.StatusBadRequest, "Invalid item ID"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantError != "" {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.wantError, body.Error)
				assert.Equal(t, models.CodeValidation, body.Code)
			}
		})
	}
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{"not found", models.NewNotFoundError("Report", 9), http.StatusNotFound, models.CodeNotFound, "Report with ID 9 not found"},
		{"forbidden", models.NewForbiddenError("Admin access required"), http.StatusForbidden, models.CodeForbidden, "Admin access required"},
		{"duplicate", models.NewConflictError(models.CodeDuplicateReport, "dup"), http.StatusConflict, models.CodeDuplicateReport, "dup"},
		{"validation", models.NewValidationError("reason is required"), http.StatusBadRequest, models.CodeValidation, "reason is required"},
		{"wrapped internal", models.NewInternalError(errors.New("pq: password leaked")), http.StatusInternalServerError, models.CodeInternal, "Internal server error"},
		{"unknown", errors.New("pq: password leaked"), http.StatusInternalServerError, models.CodeInternal, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondServiceError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantError, body.Error)
			assert.NotContains(t, body.Error, "password")
		})
	}
}
