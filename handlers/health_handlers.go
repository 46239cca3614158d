package handlers

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"insights/models"
)

const healthTimeout = 5 * time.Second

// Pinger is an optional dependency reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthCheck struct {
	service string
	run     func(ctx context.Context) (string, error)
	// optional checks report ok even on failure
	optional bool
}

func (h *Handler) healthChecks() []healthCheck {
	count := func(table, label string) func(ctx context.Context) (string, error) {
		return func(ctx context.Context) (string, error) {
			n, err := h.store.CountRows(ctx, table)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s accessible (%d records)", label, n), nil
		}
	}

	checks := []healthCheck{
		{service: "database", run: func(ctx context.Context) (string, error) {
			if err := h.store.Ping(ctx); err != nil {
				return "", err
			}
			return "Database connection successful", nil
		}},
		{service: "uploads", run: count("csv_uploads", "Uploads table")},
		{service: "auth", run: count("users", "User table")},
		{service: "payments", run: count("payments", "Payments table")},
		{service: "ai", optional: true, run: func(context.Context) (string, error) {
			if h.narrator.Enabled() {
				return "Gemini API key configured", nil
			}
			return "AI service in fallback mode (no API key)", nil
		}},
		{service: "environment", run: func(context.Context) (string, error) {
			if missing := h.cfg.MissingRequired(); len(missing) > 0 {
				return "", fmt.Errorf("Missing environment variables: %s", strings.Join(missing, ", "))
			}
			return "All required environment variables present", nil
		}},
	}
	names := make([]string, 0, len(h.extraChecks))
	for name := range h.extraChecks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		name, p := name, h.extraChecks[name]
		checks = append(checks, healthCheck{service: name, run: func(ctx context.Context) (string, error) {
			if err := p.Ping(ctx); err != nil {
				return "", err
			}
			return name + " reachable", nil
		}})
	}
	return checks
}

// HandleHealth runs every check concurrently.
// GET /api/health
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	checks := h.healthChecks()
	results := make([]models.HealthCheckResult, len(checks))

	var g errgroup.Group
	for i, chk := range checks {
		i, chk := i, chk
		g.Go(func() error {
			start := time.Now()
			msg, err := chk.run(ctx)
			res := models.HealthCheckResult{Service: chk.service, Status: "ok", Message: msg, Latency: time.Since(start).Milliseconds()}
			if err != nil {
				res.Message = err.Error()
				if !chk.optional {
					res.Status = "error"
					h.log.Error("health check failed", "check", chk.service, "error", err)
				}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	resp := models.HealthResponse{OK: true, Timestamp: time.Now().UTC(), Checks: results}
	for _, r := range results {
		resp.Summary.Total++
		resp.Summary.TotalLatency += r.Latency
		if r.Status == "ok" {
			resp.Summary.Passed++
		} else {
			resp.Summary.Failed++
			resp.OK = false
		}
	}

	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	status := fiber.StatusOK
	if !resp.OK {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}

// HandleVersion reports build information.
// GET /version
func (h *Handler) HandleVersion(c *fiber.Ctx) error {
	out := fiber.Map{
		"version":   h.cfg.Version,
		"env":       h.cfg.Env,
		"goVersion": runtime.Version(),
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		out["module"] = info.Main.Path
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				out["revision"] = s.Value
			case "vcs.time":
				out["buildTime"] = s.Value
			}
		}
	}
	return c.JSON(out)
}
