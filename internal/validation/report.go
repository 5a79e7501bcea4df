package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxReportReasonLen      = 100
	MaxReportDescriptionLen = 1000
	MaxAdminNotesLen        = 1000
)

// ValidateReportReason requires a non-blank reason of at most 100 characters.
func ValidateReportReason(reason string) error {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return fmt.Errorf("reason is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxReportReasonLen {
		return fmt.Errorf("reason must be at most %d characters", MaxReportReasonLen)
	}
	return nil
}

// ValidateReportDescription allows a nil description.
func ValidateReportDescription(description *string) error {
	return maxLen("description", description, MaxReportDescriptionLen)
}

// ValidateAdminNotes allows nil notes.
func ValidateAdminNotes(notes *string) error {
	return maxLen("adminNotes", notes, MaxAdminNotesLen)
}

func maxLen(field string, s *string, limit int) error {
	if s == nil {
		return nil
	}
	if utf8.RuneCountInString(strings.TrimSpace(*s)) > limit {
		return fmt.Errorf("%s must be at most %d characters", field, limit)
	}
	return nil
}
