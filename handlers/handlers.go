// Package handlers implements the HTTP endpoints of the dashboard API.
package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"insights/analytics"
	"insights/billing"
	"insights/config"
	"insights/middleware"
	"insights/models"
	"insights/narrative"
)

// Store is the persistence used by the handlers. *database.Store
// implements it.
type Store interface {
	Ping(ctx context.Context) error
	CountRows(ctx context.Context, table string) (int, error)

	CreateUser(ctx context.Context, name, email, passwordHash, role string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, role string, limit, offset int) ([]models.User, int, error)
	UpdateUserRole(ctx context.Context, id, role string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error

	CreateUpload(ctx context.Context, up *models.CsvUpload) (*models.CsvUpload, error)
	GetUpload(ctx context.Context, id string) (*models.CsvUpload, error)
	ListUploads(ctx context.Context, uploadedByID string, limit int) ([]models.CsvUpload, error)
	UpdateUploadStatus(ctx context.Context, id, status string) (*models.CsvUpload, error)
	DeleteUpload(ctx context.Context, id string) error

	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]models.Plan, error)
	CreatePayment(ctx context.Context, p *models.Payment) (*models.Payment, error)
	ListPayments(ctx context.Context, userID string) ([]models.Payment, error)
	CompletePayment(ctx context.Context, sessionID string) (*models.Payment, error)

	DashboardSummary(ctx context.Context) (*models.DashboardSummary, error)
}

// FileStore holds uploaded files. *storage.FileStore implements it.
type FileStore interface {
	Save(name string, r io.Reader) (string, error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}

// Deps are the collaborators of Handler. Metrics may be nil.
type Deps struct {
	Config   *config.Config
	Store    Store
	Files    FileStore
	Engine   *analytics.Engine
	Narrator *narrative.Narrator
	Billing  billing.Gateway
	Metrics  *middleware.Metrics
	Logger   *slog.Logger
	// Checks are extra dependencies reported by the health endpoint.
	Checks map[string]Pinger
}

type Handler struct {
	cfg      *config.Config
	store    Store
	files    FileStore
	engine   *analytics.Engine
	narrator *narrative.Narrator
	billing  billing.Gateway
	metrics  *middleware.Metrics
	log      *slog.Logger

	extraChecks map[string]Pinger
}

func New(d Deps) *Handler {
	h := &Handler{
		cfg:      d.Config,
		store:    d.Store,
		files:    d.Files,
		engine:   d.Engine,
		narrator: d.Narrator,
		billing:  d.Billing,
		metrics:  d.Metrics,
		log:      d.Logger,

		extraChecks: d.Checks,
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	if h.engine == nil {
		h.engine = analytics.NewEngine()
	}
	if h.narrator == nil {
		h.narrator = narrative.NewNarrator(nil, 0, h.log)
	}
	return h
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "message": message})
}
