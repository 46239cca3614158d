package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"insights/billing"
	"insights/config"
	"insights/handlers"
	"insights/middleware"
	"insights/models"
	"insights/routes"
	"insights/storage"
)

const reviewsCSV = `date,branch,rating,review
2024-01-01,North,5,great friendly staff
2024-01-02,South,1,slow service cold food
2024-01-02,North,4,good coffee
`

type testEnv struct {
	t     *testing.T
	app   *fiber.App
	cfg   *config.Config
	store *fakeStore
	gw    *fakeGateway
	files *storage.FileStore
}

func newTestEnv(t *testing.T, limit int) *testEnv {
	t.Helper()
	vars := map[string]string{
		"DATABASE_URL": "postgres://localhost/insights",
		"JWT_SECRET":   "test-secret",
		"APP_URL":      "https://insights.test",
	}
	cfg := config.FromEnv(func(k string) string { return vars[k] })

	files, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	env := &testEnv{t: t, cfg: cfg, store: newFakeStore(), gw: &fakeGateway{}, files: files}
	h := handlers.New(handlers.Deps{
		Config:  cfg,
		Store:   env.store,
		Files:   files,
		Billing: env.gw,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	env.app = fiber.New()
	routes.SetupRoutes(env.app, h, routes.Options{
		JWTSecret: []byte(cfg.JWTSecret),
		Limiter:   middleware.NewRateLimiter(limit, time.Minute, nil),
	})
	return env
}

func (e *testEnv) user(role string) *models.User {
	e.t.Helper()
	u, err := e.store.CreateUser(context.Background(), role+" user", strings.ToLower(role)+"@example.com", "x", role)
	require.NoError(e.t, err)
	return u
}

func (e *testEnv) token(u *models.User) string {
	e.t.Helper()
	claims := models.JwtClaims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(e.cfg.JWTSecret))
	require.NoError(e.t, err)
	return s
}

func (e *testEnv) do(req *http.Request, token string, out any) int {
	e.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	if out != nil {
		body, err := io.ReadAll(resp.Body)
		require.NoError(e.t, err)
		require.NoError(e.t, json.Unmarshal(body, out), string(body))
	}
	return resp.StatusCode
}

func jsonRequest(method, path string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, name string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/v1/uploads", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type uploadResponse struct {
	UploadID    string   `json:"uploadId"`
	RowCount    int      `json:"rowCount"`
	ColumnCount int      `json:"columnCount"`
	Columns     []string `json:"columns"`
}

func (e *testEnv) upload(token, name string, data []byte) uploadResponse {
	e.t.Helper()
	var out uploadResponse
	status := e.do(uploadRequest(e.t, name, data), token, &out)
	require.Equal(e.t, fiber.StatusOK, status)
	return out
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t, 100)

	var reg struct {
		Data models.User `json:"data"`
	}
	status := env.do(jsonRequest("POST", "/api/v1/auth/register", fiber.Map{
		"name": "Ada", "email": "Ada@Example.com", "password": "correct-horse",
	}), "", &reg)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, models.RoleCustomer, reg.Data.Role)
	assert.Equal(t, "ada@example.com", reg.Data.Email)

	status = env.do(jsonRequest("POST", "/api/v1/auth/register", fiber.Map{
		"name": "Ada", "email": "ada@example.com", "password": "correct-horse",
	}), "", nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status = env.do(jsonRequest("POST", "/api/v1/auth/login", fiber.Map{
		"email": "ada@example.com", "password": "wrong-password",
	}), "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	var login struct {
		AccessToken string      `json:"accessToken"`
		User        models.User `json:"user"`
	}
	status = env.do(jsonRequest("POST", "/api/v1/auth/login", fiber.Map{
		"email": "ada@example.com", "password": "correct-horse",
	}), "", &login)
	require.Equal(t, fiber.StatusOK, status)
	require.NotEmpty(t, login.AccessToken)

	var me struct {
		Data models.User `json:"data"`
	}
	status = env.do(httptest.NewRequest("GET", "/api/v1/auth/me", nil), login.AccessToken, &me)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, reg.Data.ID, me.Data.ID)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, 100)
	cases := []fiber.Map{
		{"name": "", "email": "a@example.com", "password": "longenough"},
		{"name": "A", "email": "not-an-email", "password": "longenough"},
		{"name": "A", "email": "a@example.com", "password": "short"},
	}
	for _, body := range cases {
		assert.Equal(t, fiber.StatusBadRequest, env.do(jsonRequest("POST", "/api/v1/auth/register", body), "", nil), body)
	}
}

func TestUploadsRequireAdmin(t *testing.T) {
	env := newTestEnv(t, 100)
	customer := env.user(models.RoleCustomer)

	assert.Equal(t, fiber.StatusUnauthorized, env.do(httptest.NewRequest("GET", "/api/v1/uploads", nil), "", nil))
	assert.Equal(t, fiber.StatusForbidden, env.do(httptest.NewRequest("GET", "/api/v1/uploads", nil), env.token(customer), nil))
	assert.Equal(t, fiber.StatusForbidden, env.do(httptest.NewRequest("GET", "/api/v1/analytics", nil), env.token(customer), nil))
}

func TestUploadAndAnalyze(t *testing.T) {
	env := newTestEnv(t, 100)
	admin := env.token(env.user(models.RoleAdmin))

	up := env.upload(admin, "reviews.csv", []byte(reviewsCSV))
	assert.Equal(t, 3, up.RowCount)
	assert.Equal(t, 4, up.ColumnCount)
	assert.Equal(t, []string{"date", "branch", "rating", "review"}, up.Columns)

	var list []models.CsvUpload
	require.Equal(t, fiber.StatusOK, env.do(httptest.NewRequest("GET", "/api/v1/uploads", nil), admin, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "reviews.csv", list[0].Filename)
	assert.Equal(t, models.UploadActive, list[0].Status)

	var result struct {
		Upload    models.CsvUpload `json:"upload"`
		Analytics struct {
			RowCount    int               `json:"rowCount"`
			ColumnTypes map[string]string `json:"columnTypes"`
			BranchStats []struct {
				Branch string `json:"branch"`
				Count  int    `json:"count"`
			} `json:"branchStats"`
			AISummary string `json:"aiSummary"`
		} `json:"analytics"`
	}
	status := env.do(httptest.NewRequest("GET", "/api/v1/analytics/csv/"+up.UploadID, nil), admin, &result)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, up.UploadID, result.Upload.ID)
	assert.Equal(t, 3, result.Analytics.RowCount)
	assert.Equal(t, "numeric", result.Analytics.ColumnTypes["rating"])
	require.NotEmpty(t, result.Analytics.BranchStats)
	assert.Equal(t, "North", result.Analytics.BranchStats[0].Branch)
	assert.Contains(t, result.Analytics.AISummary, "Executive Summary")

	var raw map[string]map[string]any
	status = env.do(httptest.NewRequest("GET", "/api/v1/analytics/csv/"+up.UploadID+"?summary=false", nil), admin, &raw)
	require.Equal(t, fiber.StatusOK, status)
	_, hasSummary := raw["analytics"]["aiSummary"]
	assert.False(t, hasSummary)
}

func TestUploadRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, 100)
	admin := env.token(env.user(models.RoleAdmin))

	var body map[string]any
	status := env.do(uploadRequest(t, "notes.txt", []byte("hello")), admin, &body)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status = env.do(uploadRequest(t, "broken.csv", []byte("a,b\n1,2,3\n")), admin, &body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "CSV parse error", body["message"])

	entries, err := os.ReadDir(env.files.Root())
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected files are removed")

	env.cfg.MaxUploadBytes = 4
	status = env.do(uploadRequest(t, "big.csv", []byte(reviewsCSV)), admin, &body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["message"], "File too large")
}

func TestUploadXLSX(t *testing.T) {
	env := newTestEnv(t, 100)
	admin := env.token(env.user(models.RoleAdmin))

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"branch", "rating"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"North", 5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"South", 2}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	up := env.upload(admin, "scores.xlsx", buf.Bytes())
	assert.Equal(t, 2, up.RowCount)
	assert.Equal(t, []string{"branch", "rating"}, up.Columns)
}

func TestUpdateAndDeleteUpload(t *testing.T) {
	env := newTestEnv(t, 100)
	admin := env.token(env.user(models.RoleAdmin))
	up := env.upload(admin, "reviews.csv", []byte(reviewsCSV))
	path := "/api/v1/uploads/" + up.UploadID

	var updated struct {
		Success bool   `json:"success"`
		Status  string `json:"status"`
	}
	require.Equal(t, fiber.StatusOK, env.do(jsonRequest("PATCH", path, fiber.Map{"action": "toggle"}), admin, &updated))
	assert.Equal(t, models.UploadInactive, updated.Status)

	require.Equal(t, fiber.StatusOK, env.do(jsonRequest("PATCH", path, fiber.Map{"status": "ACTIVE"}), admin, &updated))
	assert.Equal(t, models.UploadActive, updated.Status)

	assert.Equal(t, fiber.StatusBadRequest, env.do(jsonRequest("PATCH", path, fiber.Map{"status": "ARCHIVED"}), admin, nil))
	assert.Equal(t, fiber.StatusNotFound, env.do(jsonRequest("PATCH", "/api/v1/uploads/missing", fiber.Map{"action": "toggle"}), admin, nil))

	stored, err := env.store.GetUpload(context.Background(), up.UploadID)
	require.NoError(t, err)

	require.Equal(t, fiber.StatusOK, env.do(httptest.NewRequest("DELETE", path, nil), admin, nil))
	_, err = os.Stat(stored.Filepath)
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, fiber.StatusNotFound, env.do(httptest.NewRequest("DELETE", path, nil), admin, nil))
	assert.Equal(t, fiber.StatusNotFound, env.do(httptest.NewRequest("GET", "/api/v1/analytics/csv/"+up.UploadID, nil), admin, nil))
}

func TestUploadRateLimit(t *testing.T) {
	env := newTestEnv(t, 2)
	admin := env.token(env.user(models.RoleAdmin))

	env.upload(admin, "a.csv", []byte(reviewsCSV))
	env.upload(admin, "b.csv", []byte(reviewsCSV))

	req := uploadRequest(t, "c.csv", []byte(reviewsCSV))
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestAdminUsers(t *testing.T) {
	env := newTestEnv(t, 100)
	adminUser := env.user(models.RoleAdmin)
	admin := env.token(adminUser)
	customer := env.user(models.RoleCustomer)

	var page models.PaginatedUsersResponse
	require.Equal(t, fiber.StatusOK, env.do(httptest.NewRequest("GET", "/api/v1/admin/users?limit=1", nil), admin, &page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 2, page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	assert.Equal(t, fiber.StatusBadRequest, env.do(httptest.NewRequest("GET", "/api/v1/admin/users?role=wizard", nil), admin, nil))

	var updated struct {
		Data models.User `json:"data"`
	}
	path := "/api/v1/admin/users/" + customer.ID
	require.Equal(t, fiber.StatusOK, env.do(jsonRequest("PUT", path+"/role", fiber.Map{"role": "delivery_partner"}), admin, &updated))
	assert.Equal(t, models.RoleDeliveryPartner, updated.Data.Role)

	assert.Equal(t, fiber.StatusBadRequest, env.do(jsonRequest("PUT", path+"/role", fiber.Map{"role": "owner"}), admin, nil))
	assert.Equal(t, fiber.StatusBadRequest, env.do(httptest.NewRequest("DELETE", "/api/v1/admin/users/"+adminUser.ID, nil), admin, nil))

	require.Equal(t, fiber.StatusOK, env.do(httptest.NewRequest("DELETE", path, nil), admin, nil))
	assert.Equal(t, fiber.StatusNotFound, env.do(httptest.NewRequest("DELETE", path, nil), admin, nil))
}

func TestCheckoutAndWebhook(t *testing.T) {
	env := newTestEnv(t, 100)
	customer := env.user(models.RoleCustomer)
	token := env.token(customer)

	price := "price_pro"
	env.store.plans["plan-pro"] = &models.Plan{ID: "plan-pro", Name: "Pro", Price: 29, Status: models.PlanActive, StripePriceID: &price}
	env.store.plans["plan-old"] = &models.Plan{ID: "plan-old", Name: "Legacy", Status: models.PlanArchived, StripePriceID: &price}
	env.store.plans["plan-free"] = &models.Plan{ID: "plan-free", Name: "Free", Status: models.PlanActive}

	checkout := func(planID string) (int, map[string]any) {
		var out map[string]any
		status := env.do(jsonRequest("POST", "/api/v1/billing/checkout", fiber.Map{"planId": planID}), token, &out)
		return status, out
	}

	status, _ := checkout("")
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = checkout("plan-missing")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = checkout("plan-old")
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = checkout("plan-free")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out := checkout("plan-pro")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "cs_1", out["sessionId"])
	assert.Equal(t, "https://checkout.stripe.test/cs_1", out["url"])

	require.Len(t, env.gw.sessions, 1)
	params := env.gw.sessions[0]
	assert.Equal(t, "cus_1", params.CustomerID)
	assert.Equal(t, "price_pro", params.PriceID)
	assert.True(t, strings.HasPrefix(params.SuccessURL, "https://insights.test/"))

	// the stripe customer is reused on the next checkout
	status, _ = checkout("plan-pro")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, env.gw.customers)

	var payments struct {
		Data []models.Payment `json:"data"`
	}
	require.Equal(t, fiber.StatusOK, env.do(httptest.NewRequest("GET", "/api/v1/billing/payments", nil), token, &payments))
	require.Len(t, payments.Data, 2)
	assert.Equal(t, models.PaymentPending, payments.Data[0].Status)

	env.gw.event = &billing.Event{Type: billing.EventCheckoutCompleted, SessionID: "cs_1", UserID: customer.ID, PlanID: "plan-pro"}
	hook := httptest.NewRequest("POST", "/api/v1/billing/webhook", strings.NewReader("{}"))
	hook.Header.Set("Stripe-Signature", "bogus")
	assert.Equal(t, fiber.StatusBadRequest, env.do(hook, "", nil))

	hook = httptest.NewRequest("POST", "/api/v1/billing/webhook", strings.NewReader("{}"))
	hook.Header.Set("Stripe-Signature", "valid")
	require.Equal(t, fiber.StatusOK, env.do(hook, "", nil))

	u, err := env.store.GetUserByID(context.Background(), customer.ID)
	require.NoError(t, err)
	require.NotNil(t, u.ActivePlanID)
	assert.Equal(t, "plan-pro", *u.ActivePlanID)

	require.Equal(t, fiber.StatusOK, env.do(httptest.NewRequest("GET", "/api/v1/billing/payments", nil), token, &payments))
	assert.Equal(t, models.PaymentCompleted, payments.Data[0].Status)
}

func TestCheckoutProviderFailure(t *testing.T) {
	env := newTestEnv(t, 100)
	token := env.token(env.user(models.RoleCustomer))
	price := "price_pro"
	env.store.plans["plan-pro"] = &models.Plan{ID: "plan-pro", Name: "Pro", Status: models.PlanActive, StripePriceID: &price}

	env.gw.fail = billing.ErrNotConfigured
	assert.Equal(t, fiber.StatusServiceUnavailable, env.do(jsonRequest("POST", "/api/v1/billing/checkout", fiber.Map{"planId": "plan-pro"}), token, nil))

	env.gw.fail = errors.New("card network down")
	assert.Equal(t, fiber.StatusBadGateway, env.do(jsonRequest("POST", "/api/v1/billing/checkout", fiber.Map{"planId": "plan-pro"}), token, nil))
	assert.Empty(t, env.store.payments)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, 100)

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))

	var health models.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.True(t, health.OK)
	require.Len(t, health.Checks, 6)
	assert.Equal(t, "database", health.Checks[0].Service)
	assert.Equal(t, "environment", health.Checks[5].Service)
	assert.Equal(t, 6, health.Summary.Passed)

	env.store.pingErr = errors.New("connection refused")
	require.Equal(t, fiber.StatusServiceUnavailable, env.do(httptest.NewRequest("GET", "/api/health", nil), "", &health))
	assert.False(t, health.OK)
	assert.Equal(t, 4, health.Summary.Failed)
	assert.Equal(t, "ok", health.Checks[4].Status, "ai never fails")
}

func TestScoreText(t *testing.T) {
	env := newTestEnv(t, 100)
	token := env.token(env.user(models.RoleCustomer))

	var out struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	require.Equal(t, fiber.StatusOK, env.do(jsonRequest("POST", "/api/v1/analytics/sentiment", fiber.Map{"text": "great food, amazing staff"}), token, &out))
	assert.Equal(t, "POSITIVE", out.Label)
	assert.Greater(t, out.Score, 0.0)

	assert.Equal(t, fiber.StatusBadRequest, env.do(jsonRequest("POST", "/api/v1/analytics/sentiment", fiber.Map{"text": " "}), token, nil))
}
