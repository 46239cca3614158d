package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"insights/billing"
	"insights/database"
	"insights/logger"
	"insights/middleware"
	"insights/models"
	"insights/utils"
)

// HandleCreateCheckout starts a Stripe subscription checkout for a plan.
// POST /api/v1/billing/checkout
func (h *Handler) HandleCreateCheckout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := middleware.UserID(c)

	var req models.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if strings.TrimSpace(req.PlanID) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Plan ID is required")
	}
	if h.billing == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "Billing is not configured")
	}

	plan, err := h.store.GetPlan(ctx, req.PlanID)
	if errors.Is(err, database.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Plan not found")
	}
	if err != nil {
		logger.Error(h.log, err, "loading plan", "planId", req.PlanID)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create checkout session")
	}
	if plan.Status != models.PlanActive {
		return errorJSON(c, fiber.StatusBadRequest, "This plan is not available for purchase")
	}
	if plan.StripePriceID == nil || *plan.StripePriceID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Plan is not configured for Stripe payments")
	}

	user, err := h.store.GetUserByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		logger.Error(h.log, err, "loading user", "userId", userID)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create checkout session")
	}

	customerID := ""
	if user.StripeCustomerID != nil {
		customerID = *user.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = h.billing.CreateCustomer(ctx, user.ID, user.Email, user.Name)
		if err != nil {
			return h.billingFailure(c, err, "creating stripe customer", userID)
		}
		if err := h.store.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
			logger.Error(h.log, err, "saving stripe customer", "userId", userID)
			return errorJSON(c, fiber.StatusInternalServerError, "Failed to create checkout session")
		}
	}

	session, err := h.billing.CreateCheckoutSession(ctx, billing.CheckoutParams{
		CustomerID: customerID,
		PriceID:    *plan.StripePriceID,
		UserID:     user.ID,
		PlanID:     plan.ID,
		SuccessURL: h.cfg.AppURL + "/payments/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  h.cfg.AppURL + "/payments/list?canceled=true",
	})
	if err != nil {
		return h.billingFailure(c, err, "creating checkout session", userID)
	}

	_, err = h.store.CreatePayment(ctx, &models.Payment{
		UserID:          user.ID,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		Amount:          plan.Price,
		Status:          models.PaymentPending,
		StripeSessionID: session.ID,
	})
	if err != nil {
		logger.Error(h.log, err, "recording pending payment", "userId", userID, "sessionId", session.ID)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create checkout session")
	}

	h.log.Info("Stripe checkout session created", "userId", user.ID, "planId", plan.ID, "sessionId", session.ID)
	return c.JSON(fiber.Map{"sessionId": session.ID, "url": session.URL})
}

func (h *Handler) billingFailure(c *fiber.Ctx, err error, action, userID string) error {
	if errors.Is(err, billing.ErrNotConfigured) {
		return errorJSON(c, fiber.StatusServiceUnavailable, "Billing is not configured")
	}
	logger.Error(h.log, err, action, "endpoint", "/api/v1/billing/checkout", "userId", userID)
	return errorJSON(c, fiber.StatusBadGateway, "Failed to create checkout session")
}

// HandleStripeWebhook completes payments for finished checkout sessions.
// POST /api/v1/billing/webhook
func (h *Handler) HandleStripeWebhook(c *fiber.Ctx) error {
	if h.billing == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "Billing is not configured")
	}

	evt, err := h.billing.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		h.log.Warn("rejected stripe webhook", "error", err)
		return errorJSON(c, fiber.StatusBadRequest, "Invalid webhook")
	}
	if evt.Type != billing.EventCheckoutCompleted {
		return c.JSON(fiber.Map{"received": true})
	}

	payment, err := h.store.CompletePayment(c.UserContext(), evt.SessionID)
	if errors.Is(err, database.ErrNotFound) {
		// not one of ours; acknowledge so Stripe stops retrying
		h.log.Warn("webhook for unknown checkout session", "sessionId", evt.SessionID)
		return c.JSON(fiber.Map{"received": true})
	}
	if err != nil {
		logger.Error(h.log, err, "completing payment", "sessionId", evt.SessionID)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to process webhook")
	}

	h.log.Info("payment completed", "paymentId", payment.ID, "userId", payment.UserID, "planId", payment.PlanID)
	return c.JSON(fiber.Map{"received": true})
}

// HandleListPayments returns the caller's payments; admins see all.
// GET /api/v1/billing/payments
func (h *Handler) HandleListPayments(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if utils.HasRole(middleware.UserRole(c), models.RoleAdmin) {
		userID = ""
	}
	payments, err := h.store.ListPayments(c.UserContext(), userID)
	if err != nil {
		logger.Error(h.log, err, "listing payments", "endpoint", "/api/v1/billing/payments")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch payments")
	}
	return c.JSON(fiber.Map{"status": "success", "data": payments})
}

// HandleListPlans returns the purchasable plans.
// GET /api/v1/billing/plans
func (h *Handler) HandleListPlans(c *fiber.Ctx) error {
	plans, err := h.store.ListPlans(c.UserContext())
	if err != nil {
		logger.Error(h.log, err, "listing plans", "endpoint", "/api/v1/billing/plans")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch plans")
	}
	return c.JSON(fiber.Map{"status": "success", "data": plans})
}
