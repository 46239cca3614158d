package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"insights/analytics"
	"insights/database"
	"insights/logger"
	"insights/middleware"
	"insights/models"
	"insights/storage"
)

// HandleUpload stores a CSV (or XLSX, converted to CSV) and records its
// row and column counts.
// POST /api/v1/uploads
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	fh, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "No file uploaded")
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	contentType := strings.ToLower(fh.Header.Get(fiber.HeaderContentType))
	isXLSX := ext == ".xlsx"
	if !isXLSX && ext != ".csv" && !strings.HasPrefix(contentType, "text/csv") {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid file type. Only .csv or .xlsx allowed.")
	}
	if fh.Size > h.cfg.MaxUploadBytes {
		return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("File too large. Max %dMB.", h.cfg.MaxUploadBytes>>20))
	}

	src, err := fh.Open()
	if err != nil {
		logger.Error(h.log, err, "opening multipart file", "userId", userID)
		return errorJSON(c, fiber.StatusInternalServerError, "Upload failed")
	}
	defer src.Close()

	var body io.Reader = src
	storedName := fh.Filename
	if isXLSX {
		converted, err := storage.ConvertXLSX(src)
		if err != nil {
			h.log.Warn("xlsx conversion failed", "error", err, "filename", fh.Filename, "userId", userID)
			return errorJSON(c, fiber.StatusBadRequest, "Could not read spreadsheet")
		}
		body = bytes.NewReader(converted)
		storedName = strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename)) + ".csv"
	}

	path, err := h.files.Save(storedName, body)
	if err != nil {
		logger.Error(h.log, err, "saving upload", "endpoint", "/api/v1/uploads POST", "userId", userID)
		return errorJSON(c, fiber.StatusInternalServerError, "Upload failed")
	}

	sample, err := h.countRows(c, path)
	if err != nil {
		_ = h.files.Remove(path)
		if analytics.IsParseError(err) {
			h.log.Warn("csv parse error", "error", err, "filename", fh.Filename, "userId", userID)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "CSV parse error", "details": err.Error()})
		}
		logger.Error(h.log, err, "reading upload", "filename", fh.Filename, "userId", userID)
		return errorJSON(c, fiber.StatusInternalServerError, "Upload failed")
	}

	summary := &models.UploadSummary{
		RowCount:    sample.RowCount,
		ColumnCount: len(sample.Columns),
		Columns:     sample.Columns,
	}
	up, err := h.store.CreateUpload(c.UserContext(), &models.CsvUpload{
		Filename:     fh.Filename,
		Filepath:     path,
		Status:       models.UploadActive,
		UploadedByID: userID,
		SummaryJSON:  summary,
	})
	if err != nil {
		_ = h.files.Remove(path)
		logger.Error(h.log, err, "recording upload", "endpoint", "/api/v1/uploads POST", "userId", userID)
		return errorJSON(c, fiber.StatusInternalServerError, "Upload failed")
	}

	h.log.Info("CSV upload successful", "uploadId", up.ID, "filename", up.Filename, "userId", userID)
	return c.JSON(fiber.Map{
		"uploadId":    up.ID,
		"rowCount":    summary.RowCount,
		"columnCount": summary.ColumnCount,
		"columns":     summary.Columns,
	})
}

// countRows streams the stored file once, keeping a single row.
func (h *Handler) countRows(c *fiber.Ctx, path string) (*analytics.Sample, error) {
	f, err := h.files.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return analytics.SampleRows(c.UserContext(), f, 1)
}

// HandleListUploads lists uploads newest first.
// GET /api/v1/uploads?userId=
func (h *Handler) HandleListUploads(c *fiber.Ctx) error {
	uploads, err := h.store.ListUploads(c.UserContext(), c.Query("userId"), 0)
	if err != nil {
		logger.Error(h.log, err, "listing uploads", "endpoint", "/api/v1/uploads GET")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch uploads")
	}
	return c.JSON(uploads)
}

// HandleDeleteUpload removes the stored file and its record.
// DELETE /api/v1/uploads/:id
func (h *Handler) HandleDeleteUpload(c *fiber.Ctx) error {
	id := c.Params("id")
	up, err := h.store.GetUpload(c.UserContext(), id)
	if errors.Is(err, database.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Upload not found")
	}
	if err != nil {
		logger.Error(h.log, err, "loading upload", "uploadId", id)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to delete upload")
	}

	h.removeFile(*up)

	if err := h.store.DeleteUpload(c.UserContext(), id); err != nil && !errors.Is(err, database.ErrNotFound) {
		logger.Error(h.log, err, "deleting upload", "uploadId", id)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to delete upload")
	}

	h.log.Info("CSV upload deleted", "uploadId", id, "filename", up.Filename)
	return c.JSON(fiber.Map{"success": true})
}

// HandleUpdateUpload toggles or sets the upload status.
// PATCH /api/v1/uploads/:id  body {"action":"toggle"} or {"status":"ACTIVE"|"INACTIVE"}
func (h *Handler) HandleUpdateUpload(c *fiber.Ctx) error {
	id := c.Params("id")
	var req models.UpdateUploadRequest
	_ = c.BodyParser(&req)

	up, err := h.store.GetUpload(c.UserContext(), id)
	if errors.Is(err, database.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Upload not found")
	}
	if err != nil {
		logger.Error(h.log, err, "loading upload", "uploadId", id)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to update upload")
	}

	var status string
	switch {
	case req.Action == "toggle":
		status = models.UploadActive
		if up.Status == models.UploadActive {
			status = models.UploadInactive
		}
	case req.Status == models.UploadActive || req.Status == models.UploadInactive:
		status = req.Status
	default:
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request")
	}

	updated, err := h.store.UpdateUploadStatus(c.UserContext(), id, status)
	if err != nil {
		logger.Error(h.log, err, "updating upload status", "uploadId", id)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to update upload")
	}

	h.log.Info("CSV upload status updated", "uploadId", id, "status", updated.Status)
	return c.JSON(fiber.Map{"success": true, "id": updated.ID, "status": updated.Status})
}

// removeFile is best effort; a missing file is already gone.
func (h *Handler) removeFile(up models.CsvUpload) {
	if up.Filepath == "" {
		return
	}
	if err := h.files.Remove(up.Filepath); err != nil {
		h.log.Warn("unlink csv file failed", "error", err, "uploadId", up.ID)
	}
}
