package handlers

import (
	"errors"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"insights/analytics"
	"insights/database"
	"insights/logger"
	"insights/narrative"
)

// HandleCSVAnalytics runs the analytics engine over a stored upload.
// GET /api/v1/analytics/csv/:id?summary=false
func (h *Handler) HandleCSVAnalytics(c *fiber.Ctx) error {
	id := c.Params("id")
	ctx := c.UserContext()

	up, err := h.store.GetUpload(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Upload not found")
	}
	if err != nil {
		logger.Error(h.log, err, "loading upload", "endpoint", "/api/v1/analytics/csv/:id", "uploadId", id)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate analytics")
	}

	f, err := h.files.Open(up.Filepath)
	if errors.Is(err, os.ErrNotExist) {
		return errorJSON(c, fiber.StatusNotFound, "Uploaded file is missing")
	}
	if err != nil {
		logger.Error(h.log, err, "opening upload", "uploadId", id)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate analytics")
	}
	defer f.Close()

	report, err := h.engine.Analyze(ctx, f)
	if err != nil {
		if analytics.IsParseError(err) {
			h.metrics.ObserveAnalysis("parse_error", 0)
			h.log.Warn("csv parse error", "error", err, "uploadId", id)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "CSV parse error", "details": err.Error()})
		}
		h.metrics.ObserveAnalysis("error", 0)
		logger.Error(h.log, err, "analyzing upload", "endpoint", "/api/v1/analytics/csv/:id", "uploadId", id)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate analytics")
	}
	h.metrics.ObserveAnalysis("ok", report.RowCount)

	if !strings.EqualFold(c.Query("summary"), "false") {
		report.AISummary = h.narrator.Summarize(ctx, narrative.FromReport(up.Filename, report))
	}

	h.log.Info("CSV analytics generated", "uploadId", id, "rowCount", report.RowCount, "sampled", report.Sampled)
	return c.JSON(fiber.Map{
		"upload":    up,
		"analytics": report,
	})
}

// HandleDashboardSummary returns the admin overview.
// GET /api/v1/analytics
func (h *Handler) HandleDashboardSummary(c *fiber.Ctx) error {
	summary, err := h.store.DashboardSummary(c.UserContext())
	if err != nil {
		logger.Error(h.log, err, "building dashboard summary", "endpoint", "/api/v1/analytics")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load analytics")
	}
	return c.JSON(summary)
}

type scoreTextRequest struct {
	Text string `json:"text"`
}

// HandleScoreText returns the lexicon sentiment of a free text.
// POST /api/v1/analytics/sentiment
func (h *Handler) HandleScoreText(c *fiber.Ctx) error {
	var req scoreTextRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if strings.TrimSpace(req.Text) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Text is required")
	}
	return c.JSON(narrative.ScoreText(req.Text))
}
