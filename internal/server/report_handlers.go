package server

import (
	"storyboard/internal/models"
	"storyboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createReportRequest struct {
	ContentID   uint    `json:"contentId"`
	Reason      string  `json:"reason"`
	Description *string `json:"description"`
}

type reviewReportRequest struct {
	AdminNotes *string `json:"adminNotes"`
}

// CreateReport handles POST /api/reports
func (s *Server) CreateReport(c *fiber.Ctx) error {
	var req createReportRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	report, err := s.moderationService.CreateReport(c.UserContext(), service.CreateReportInput{
		ReporterID:  currentUserID(c),
		PhotoID:     req.ContentID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"id":      report.ID,
		"message": "Report submitted successfully",
	})
}

// ListPendingReports handles GET /api/reports, the review queue.
func (s *Server) ListPendingReports(c *fiber.Ctx) error {
	return s.listReports(c, true)
}

// ListReports handles GET /api/reports/all with an optional ?status= filter.
func (s *Server) ListReports(c *fiber.Ctx) error {
	return s.listReports(c, false)
}

func (s *Server) listReports(c *fiber.Ctx, pendingOnly bool) error {
	in := service.ListReportsInput{
		ActorID:     currentUserID(c),
		PendingOnly: pendingOnly,
		Page:        c.QueryInt("page", 1),
		PageSize:    c.QueryInt("pageSize", service.DefaultPageSize),
	}
	if raw := c.Query("status"); raw != "" && !pendingOnly {
		status, ok := models.ParseReportStatus(raw)
		if !ok {
			return respondServiceError(c,
				models.NewValidationError("status must be pending, approved or rejected"))
		}
		in.Status = &status
	}

	page, err := s.moderationService.ListReports(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// GetReport handles GET /api/reports/:id
func (s *Server) GetReport(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	report, err := s.moderationService.GetReport(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(report)
}

// ApproveReport handles PUT|POST /api/reports/approve/:id
func (s *Server) ApproveReport(c *fiber.Ctx) error {
	in, ok := s.reviewInput(c)
	if !ok {
		return nil
	}
	report, err := s.moderationService.ApproveReport(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(report)
}

// RejectReport handles PUT|POST /api/reports/reject/:id
func (s *Server) RejectReport(c *fiber.Ctx) error {
	in, ok := s.reviewInput(c)
	if !ok {
		return nil
	}
	report, err := s.moderationService.RejectReport(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(report)
}

// reviewInput reads the report id and the optional notes body. The body may
// be empty.
func (s *Server) reviewInput(c *fiber.Ctx) (service.ReviewReportInput, bool) {
	id, err := parseID(c, "id")
	if err != nil {
		return service.ReviewReportInput{}, false
	}
	var req reviewReportRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return service.ReviewReportInput{}, false
		}
	}
	return service.ReviewReportInput{
		ActorID:  currentUserID(c),
		ReportID: id,
		Notes:    req.AdminNotes,
	}, true
}
