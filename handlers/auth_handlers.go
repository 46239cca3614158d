package handlers

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"insights/database"
	"insights/logger"
	"insights/middleware"
	"insights/models"
)

const (
	tokenTTL          = 72 * time.Hour
	minPasswordLength = 8
)

// HandleRegister creates a CUSTOMER account.
// POST /api/v1/auth/register
func (h *Handler) HandleRegister(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Missing required fields (name, email, password)")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return errorJSON(c, fiber.StatusBadRequest, "Password must be at least 8 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error(h.log, err, "hashing password")
		return errorJSON(c, fiber.StatusInternalServerError, "Could not process password")
	}

	user, err := h.store.CreateUser(c.UserContext(), req.Name, req.Email, string(hashedPassword), models.RoleCustomer)
	if errors.Is(err, database.ErrConflict) {
		return errorJSON(c, fiber.StatusConflict, "Email already registered")
	}
	if err != nil {
		logger.Error(h.log, err, "creating user", "endpoint", "/api/v1/auth/register")
		return errorJSON(c, fiber.StatusInternalServerError, "Could not create user")
	}

	h.log.Info("user registered", "userId", user.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": user})
}

// HandleLogin authenticates a user and returns a JWT token.
// POST /api/v1/auth/login
func (h *Handler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if req.Email == "" || req.Password == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Email and password are required")
	}

	user, err := h.store.GetUserByEmail(c.UserContext(), strings.TrimSpace(req.Email))
	if errors.Is(err, database.ErrNotFound) {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		logger.Error(h.log, err, "loading user for login")
		return errorJSON(c, fiber.StatusInternalServerError, "Database error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := h.createJWT(user)
	if err != nil {
		logger.Error(h.log, err, "signing token", "userId", user.ID)
		return errorJSON(c, fiber.StatusInternalServerError, "Could not sign token")
	}

	return c.JSON(fiber.Map{"accessToken": token, "user": user})
}

// HandleMe returns the authenticated user.
// GET /api/v1/auth/me
func (h *Handler) HandleMe(c *fiber.Ctx) error {
	user, err := h.store.GetUserByID(c.UserContext(), middleware.UserID(c))
	if errors.Is(err, database.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		logger.Error(h.log, err, "loading current user")
		return errorJSON(c, fiber.StatusInternalServerError, "Database error")
	}
	return c.JSON(fiber.Map{"status": "success", "data": user})
}

func (h *Handler) createJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := models.JwtClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}
