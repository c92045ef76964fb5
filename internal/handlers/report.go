package handlers

import (
	"context"
	"time"

	"kumpul/server/internal/database"
	"kumpul/server/internal/middleware"
	"kumpul/server/internal/models"
	"kumpul/server/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ReportMeetupRequest represents a meetup report request body
type ReportMeetupRequest struct {
	Reason  string `json:"reason"`
	Details string `json:"details,omitempty"`
}

// UpdateReportRequest represents a report status change request body
type UpdateReportRequest struct {
	Status string `json:"status"`
}

// ReportMeetup files a report against a meetup
func ReportMeetup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	meetupID := c.Params("meetupId")

	var req ReportMeetupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Reason is required",
		})
	}

	// Reports may target archived meetups, only missing ones are rejected
	if _, err := Store.Get(c.Context(), meetupID); err != nil {
		if err == store.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Meetup not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to get meetup",
		})
	}

	var details *string
	if req.Details != "" {
		details = &req.Details
	}

	var report models.Report
	err := database.Pool.QueryRow(context.Background(), `
		INSERT INTO reports (id, meetup_id, reporter_id, reason, details, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, meetup_id, reporter_id, reason, details, status, created_at
	`, uuid.New().String(), meetupID, userID, req.Reason, details, models.ReportStatusOpen, time.Now()).
		Scan(&report.ID, &report.MeetupID, &report.ReporterID, &report.Reason,
			&report.Details, &report.Status, &report.CreatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to submit report",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    report,
	})
}

// GetReports returns all reports, newest first (admin only)
func GetReports(c *fiber.Ctx) error {
	status := c.Query("status")

	query := `
		SELECT id, meetup_id, reporter_id, reason, details, status, created_at
		FROM reports`
	args := []interface{}{}

	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := database.Pool.Query(context.Background(), query, args...)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	var reports []models.Report

	for rows.Next() {
		var report models.Report
		err := rows.Scan(&report.ID, &report.MeetupID, &report.ReporterID,
			&report.Reason, &report.Details, &report.Status, &report.CreatedAt)
		if err != nil {
			continue
		}
		reports = append(reports, report)
	}

	if reports == nil {
		reports = []models.Report{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    reports,
	})
}

// UpdateReportStatus moves a report through its workflow (admin only)
func UpdateReportStatus(c *fiber.Ctx) error {
	reportID := c.Params("reportId")

	var req UpdateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Status != models.ReportStatusOpen &&
		req.Status != models.ReportStatusResolved &&
		req.Status != models.ReportStatusDismissed &&
		req.Status != models.ReportStatusEscalated {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid report status",
		})
	}

	result, err := database.Pool.Exec(context.Background(),
		"UPDATE reports SET status = $1 WHERE id = $2", req.Status, reportID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update report",
		})
	}

	if result.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Report not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Report updated successfully",
	})
}
