package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"insights/database"
	"insights/logger"
	"insights/middleware"
	"insights/models"
	"insights/utils"
)

// HandleGetUsers lists users with pagination and an optional role filter.
// GET /api/v1/admin/users?page=&limit=&role=
func (h *Handler) HandleGetUsers(c *fiber.Ctx) error {
	page, limit, offset := utils.ParsePage(c.Query("page"), c.Query("limit"))

	role := ""
	if q := strings.TrimSpace(c.Query("role")); q != "" {
		normalized, ok := utils.ValidateAndNormalizeRole(q)
		if !ok {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid role filter")
		}
		role = normalized
	}

	users, total, err := h.store.ListUsers(c.UserContext(), role, limit, offset)
	if err != nil {
		logger.Error(h.log, err, "listing users", "endpoint", "/api/v1/admin/users")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch users")
	}

	return c.JSON(models.PaginatedUsersResponse{
		Data:       users,
		Pagination: utils.CreatePagination(total, page, limit),
	})
}

// HandleUpdateUserRole changes the role of a user.
// PUT /api/v1/admin/users/:id/role
func (h *Handler) HandleUpdateUserRole(c *fiber.Ctx) error {
	id := c.Params("id")
	var req models.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	role, ok := utils.ValidateAndNormalizeRole(req.Role)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid role")
	}
	if id == middleware.UserID(c) && role != models.RoleAdmin {
		return errorJSON(c, fiber.StatusBadRequest, "You cannot remove your own admin role")
	}

	user, err := h.store.UpdateUserRole(c.UserContext(), id, role)
	if errors.Is(err, database.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		logger.Error(h.log, err, "updating user role", "userId", id)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to update role")
	}

	h.log.Info("user role updated", "userId", id, "role", role, "by", middleware.UserID(c))
	return c.JSON(fiber.Map{"status": "success", "data": user})
}

// HandleDeleteUser permanently removes a user and, by cascade, their uploads
// and payments.
// DELETE /api/v1/admin/users/:id
func (h *Handler) HandleDeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == middleware.UserID(c) {
		return errorJSON(c, fiber.StatusBadRequest, "You cannot delete your own account")
	}

	// rows cascade with the user, files do not
	uploads, err := h.store.ListUploads(c.UserContext(), id, 0)
	if err != nil {
		logger.Error(h.log, err, "listing uploads of deleted user", "userId", id)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to delete user")
	}

	err = h.store.DeleteUser(c.UserContext(), id)
	if errors.Is(err, database.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		logger.Error(h.log, err, "deleting user", "userId", id)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to delete user")
	}

	for _, up := range uploads {
		h.removeFile(up)
	}
	h.log.Info("user deleted", "userId", id, "uploads", len(uploads), "by", middleware.UserID(c))
	return c.JSON(fiber.Map{"status": "success"})
}
