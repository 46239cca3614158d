package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// --- Roles & statuses ---

const (
	RoleAdmin           = "ADMIN"
	RoleCustomer        = "CUSTOMER"
	RoleDeliveryPartner = "DELIVERY_PARTNER"
)

const (
	UploadActive   = "ACTIVE"
	UploadInactive = "INACTIVE"
)

const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)

const (
	PlanActive   = "ACTIVE"
	PlanArchived = "ARCHIVED"
)

// --- JWT & Auth ---

type JwtClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// --- Core Models ---

// User is an account of the dashboard.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             string    `json:"role"`
	StripeCustomerID *string   `json:"stripeCustomerId,omitempty"`
	ActivePlanID     *string   `json:"activePlanId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// UserRef is the uploader shown next to an upload.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UploadSummary is computed once at upload time and stored with the record.
type UploadSummary struct {
	RowCount    int      `json:"rowCount"`
	ColumnCount int      `json:"columnCount"`
	Columns     []string `json:"columns"`
}

// CsvUpload is the metadata of a stored CSV file.
type CsvUpload struct {
	ID           string         `json:"id"`
	Filename     string         `json:"filename"`
	Filepath     string         `json:"-"`
	Status       string         `json:"status"`
	UploadedByID string         `json:"uploadedById"`
	UploadedBy   *UserRef       `json:"uploadedBy,omitempty"`
	SummaryJSON  *UploadSummary `json:"summaryJson,omitempty"`
	UploadedAt   time.Time      `json:"uploadedAt"`
}

type UpdateUploadRequest struct {
	Action string `json:"action"`
	Status string `json:"status"`
}

// Plan is a purchasable subscription plan.
type Plan struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Interval      string    `json:"interval"`
	Status        string    `json:"status"`
	StripePriceID *string   `json:"stripePriceId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Payment tracks a checkout from creation to completion.
type Payment struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	PlanID          string    `json:"planId"`
	PlanName        string    `json:"planName"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	StripeSessionID string    `json:"stripeSessionId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type CheckoutRequest struct {
	PlanID string `json:"planId"`
}

// --- Dashboard ---

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type WeeklySignups struct {
	Week  time.Time `json:"week"`
	Count int       `json:"count"`
}

// DashboardSummary is the admin overview of subscriptions, users and uploads.
type DashboardSummary struct {
	PlansSold           int             `json:"plansSold"`
	TotalRevenue        float64         `json:"totalRevenue"`
	ActiveSubscriptions int             `json:"activeSubscriptions"`
	TotalUsers          int             `json:"totalUsers"`
	SignupsByWeek       []WeeklySignups `json:"signupsByWeek"`
	RoleCounts          []LabelCount    `json:"roleCounts"`
	PaymentStatusCounts []LabelCount    `json:"paymentStatusCounts"`
	MRR                 float64         `json:"mrr"`
	RecentUploads       []CsvUpload     `json:"recentUploads"`
}

// --- Health ---

type HealthCheckResult struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency,omitempty"`
}

type HealthSummary struct {
	Total        int   `json:"total"`
	Passed       int   `json:"passed"`
	Failed       int   `json:"failed"`
	TotalLatency int64 `json:"totalLatency"`
}

type HealthResponse struct {
	OK        bool                `json:"ok"`
	Timestamp time.Time           `json:"timestamp"`
	Checks    []HealthCheckResult `json:"checks"`
	Summary   HealthSummary       `json:"summary"`
}

// --- Pagination ---

type Pagination struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}

type PaginatedUsersResponse struct {
	Data       []User     `json:"data"`
	Pagination Pagination `json:"pagination"`
}
