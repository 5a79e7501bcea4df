package models

import (
	"strings"
	"time"
)

// ReportStatus is the review state of a report.
type ReportStatus string

const (
	// ReportStatusPending is the state every report starts in.
	ReportStatusPending ReportStatus = "pending"
	// ReportStatusApproved means an administrator upheld the report and the photo was hidden.
	ReportStatusApproved ReportStatus = "approved"
	// ReportStatusRejected means an administrator dismissed the report.
	ReportStatusRejected ReportStatus = "rejected"
)

// ParseReportStatus accepts a status name in any letter case.
func ParseReportStatus(raw string) (ReportStatus, bool) {
	switch s := ReportStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case ReportStatusPending, ReportStatusApproved, ReportStatusRejected:
		return s, true
	default:
		return "", false
	}
}

// Report is a user-filed flag against a photo.
type Report struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	PhotoID      uint         `gorm:"not null;index:idx_reports_reporter_photo,priority:2;index" json:"contentId"`
	Photo        *Photo       `gorm:"foreignKey:PhotoID" json:"photo,omitempty"`
	ReporterID   uint         `gorm:"not null;index:idx_reports_reporter_photo,priority:1" json:"reporterId"`
	Reporter     *User        `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	ReviewedByID *uint        `gorm:"index" json:"reviewedById,omitempty"`
	ReviewedBy   *User        `gorm:"foreignKey:ReviewedByID" json:"reviewedBy,omitempty"`
	Reason       string       `gorm:"size:100;not null" json:"reason"`
	Description  *string      `gorm:"type:text" json:"description"`
	Status       ReportStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_reports_status_created,priority:1" json:"status"`
	CreatedAt    time.Time    `gorm:"index:idx_reports_status_created,priority:2" json:"createdAt"`
	ReviewedAt   *time.Time   `json:"reviewedAt"`
	AdminNotes   *string      `gorm:"type:text" json:"adminNotes"`
}

// TableName specifies the table name for GORM.
func (Report) TableName() string {
	return "reports"
}

// IsResolved reports whether the report has left the pending state.
func (r *Report) IsResolved() bool {
	return r.Status != ReportStatusPending
}
