package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"insights/handlers"
	"insights/middleware"
	"insights/models"
)

// Options carries the middleware shared by the route groups.
type Options struct {
	JWTSecret []byte
	// Limiter guards the upload and CSV analytics endpoints. Nil selects
	// 10 requests per minute in memory.
	Limiter *middleware.RateLimiter
	Metrics *middleware.Metrics
}

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App, h *handlers.Handler, opts Options) {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(10, time.Minute, nil)
	}
	limited := limiter.Handler()
	requireAuth := middleware.RequireAuth(opts.JWTSecret)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	// --- Operational Routes ---
	app.Get("/api/health", h.HandleHealth)
	app.Get("/version", h.HandleVersion)
	if opts.Metrics != nil {
		app.Get("/metrics", opts.Metrics.Handler())
	}

	api := app.Group("/api/v1")

	// --- Authentication Routes ---
	auth := api.Group("/auth")
	auth.Post("/register", h.HandleRegister)
	auth.Post("/login", h.HandleLogin)
	auth.Get("/me", requireAuth, h.HandleMe)

	// --- Admin Routes ---
	admin := api.Group("/admin", requireAuth, adminOnly)
	admin.Get("/users", h.HandleGetUsers)
	admin.Put("/users/:id/role", h.HandleUpdateUserRole)
	admin.Delete("/users/:id", h.HandleDeleteUser)

	// --- Upload Routes ---
	uploads := api.Group("/uploads", requireAuth, adminOnly)
	uploads.Post("/", limited, h.HandleUpload)
	uploads.Get("/", h.HandleListUploads)
	uploads.Patch("/:id", h.HandleUpdateUpload)
	uploads.Delete("/:id", h.HandleDeleteUpload)

	// --- Analytics Routes ---
	analytics := api.Group("/analytics", requireAuth)
	analytics.Get("/", adminOnly, h.HandleDashboardSummary)
	analytics.Get("/csv/:id", adminOnly, limited, h.HandleCSVAnalytics)
	analytics.Post("/sentiment", h.HandleScoreText)

	// --- Billing Routes ---
	billing := api.Group("/billing")
	billing.Post("/webhook", h.HandleStripeWebhook)
	billing.Get("/plans", h.HandleListPlans)
	billing.Post("/checkout", requireAuth, h.HandleCreateCheckout)
	billing.Get("/payments", requireAuth, h.HandleListPayments)
}
