package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"insights/billing"
	"insights/database"
	"insights/models"
)

type fakeStore struct {
	mu       sync.Mutex
	seq      int
	pingErr  error
	users    map[string]*models.User
	uploads  map[string]*models.CsvUpload
	plans    map[string]*models.Plan
	payments []*models.Payment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[string]*models.User{},
		uploads: map[string]*models.CsvUpload{},
		plans:   map[string]*models.Plan{},
	}
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) CountRows(_ context.Context, table string) (int, error) {
	if s.pingErr != nil {
		return 0, s.pingErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch table {
	case "users":
		return len(s.users), nil
	case "csv_uploads":
		return len(s.uploads), nil
	case "payments":
		return len(s.payments), nil
	}
	return 0, fmt.Errorf("unknown table %q", table)
}

func (s *fakeStore) CreateUser(_ context.Context, name, email, hash, role string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return nil, database.ErrConflict
		}
	}
	now := time.Now().Add(time.Duration(s.seq) * time.Millisecond)
	u := &models.User{ID: s.nextID("user"), Name: name, Email: email, PasswordHash: hash, Role: role, CreatedAt: now, UpdatedAt: now}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) ListUsers(_ context.Context, role string, limit, offset int) ([]models.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.User
	for _, u := range s.users {
		if role == "" || u.Role == role {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *fakeStore) UpdateUserRole(_ context.Context, id, role string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (s *fakeStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.users, id)
	for uid, up := range s.uploads {
		if up.UploadedByID == id {
			delete(s.uploads, uid)
		}
	}
	return nil
}

func (s *fakeStore) SetStripeCustomerID(_ context.Context, userID, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	u.StripeCustomerID = &customerID
	return nil
}

func (s *fakeStore) CreateUpload(_ context.Context, up *models.CsvUpload) (*models.CsvUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *up
	cp.ID = s.nextID("upload")
	cp.UploadedAt = time.Now().Add(time.Duration(s.seq) * time.Millisecond)
	s.uploads[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *fakeStore) GetUpload(_ context.Context, id string) (*models.CsvUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.uploads[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *up
	return &cp, nil
}

func (s *fakeStore) ListUploads(_ context.Context, uploadedByID string, limit int) ([]models.CsvUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CsvUpload, 0)
	for _, up := range s.uploads {
		if uploadedByID == "" || up.UploadedByID == uploadedByID {
			out = append(out, *up)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) UpdateUploadStatus(_ context.Context, id, status string) (*models.CsvUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.uploads[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	up.Status = status
	cp := *up
	return &cp, nil
}

func (s *fakeStore) DeleteUpload(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uploads[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.uploads, id)
	return nil
}

func (s *fakeStore) GetPlan(_ context.Context, id string) (*models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) ListPlans(context.Context) ([]models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Plan, 0)
	for _, p := range s.plans {
		if p.Status == models.PlanActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (s *fakeStore) CreatePayment(_ context.Context, p *models.Payment) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.ID = s.nextID("payment")
	s.payments = append(s.payments, &cp)
	out := cp
	return &out, nil
}

func (s *fakeStore) ListPayments(_ context.Context, userID string) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Payment, 0)
	for _, p := range s.payments {
		if userID == "" || p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeStore) CompletePayment(_ context.Context, sessionID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.StripeSessionID == sessionID {
			p.Status = models.PaymentCompleted
			if u, ok := s.users[p.UserID]; ok {
				plan := p.PlanID
				u.ActivePlanID = &plan
			}
			cp := *p
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) DashboardSummary(context.Context) (*models.DashboardSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := &models.DashboardSummary{TotalUsers: len(s.users)}
	for _, p := range s.payments {
		if p.Status == models.PaymentCompleted {
			sum.PlansSold++
			sum.TotalRevenue += p.Amount
		}
	}
	return sum, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	customers int
	sessions  []billing.CheckoutParams
	event     *billing.Event
	fail      error
}

func (g *fakeGateway) CreateCustomer(_ context.Context, userID, email, name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return "", g.fail
	}
	g.customers++
	return fmt.Sprintf("cus_%d", g.customers), nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p billing.CheckoutParams) (*billing.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return nil, g.fail
	}
	g.sessions = append(g.sessions, p)
	id := fmt.Sprintf("cs_%d", len(g.sessions))
	return &billing.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, signature string) (*billing.Event, error) {
	if signature != "valid" {
		return nil, errors.New("bad signature")
	}
	return g.event, nil
}
