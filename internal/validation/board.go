package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"storyboard/internal/models"
)

const (
	MaxBoardTitleLen = 120
	MaxPhotoTitleLen = 200
	MaxTextItemLen   = 2000
	MaxStyleBytes    = 4 << 10
	MaxCanvasSize    = 10000.0
)

// ValidateTitle requires a non-blank title of at most limit characters.
func ValidateTitle(field, title string, limit int) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(trimmed) > limit {
		return fmt.Errorf("%s must be at most %d characters", field, limit)
	}
	return nil
}

// ValidateTextItem checks the body of a text block.
func ValidateTextItem(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required for text items")
	}
	if utf8.RuneCountInString(text) > MaxTextItemLen {
		return fmt.Errorf("text must be at most %d characters", MaxTextItemLen)
	}
	return nil
}

// ValidateStyle accepts an empty value or a small JSON object.
func ValidateStyle(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	if len(raw) > MaxStyleBytes {
		return fmt.Errorf("style must be at most %d bytes", MaxStyleBytes)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("style must be a JSON object")
	}
	return nil
}

// NormalizeLayout validates l and returns it with rotation folded into [0, 360).
func NormalizeLayout(l models.Layout) (models.Layout, error) {
	for _, v := range []float64{l.X, l.Y, l.Width, l.Height, l.Rotation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return l, fmt.Errorf("layout values must be finite numbers")
		}
	}
	if l.Width <= 0 || l.Height <= 0 {
		return l, fmt.Errorf("width and height must be positive")
	}
	if l.Width > MaxCanvasSize || l.Height > MaxCanvasSize {
		return l, fmt.Errorf("width and height must be at most %.0f", MaxCanvasSize)
	}
	if math.Abs(l.X) > MaxCanvasSize || math.Abs(l.Y) > MaxCanvasSize {
		return l, fmt.Errorf("x and y must be within ±%.0f", MaxCanvasSize)
	}
	if l.ZIndex < 0 {
		return l, fmt.Errorf("zIndex must not be negative")
	}

	l.Rotation = math.Mod(l.Rotation, 360)
	if l.Rotation < 0 {
		l.Rotation += 360
	}
	return l, nil
}
