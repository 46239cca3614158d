package database

import (
	"context"
	"fmt"

	"insights/models"
)

const planColumns = `id::text, name, price::float8, billing_interval, status, stripe_price_id, created_at`

const paymentColumns = `id::text, user_id::text, plan_id::text, plan_name, amount::float8, status, stripe_session_id, created_at, updated_at`

func scanPlan(row rowScanner) (*models.Plan, error) {
	var p models.Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Interval, &p.Status, &p.StripePriceID, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	if err := row.Scan(&p.ID, &p.UserID, &p.PlanID, &p.PlanName, &p.Amount, &p.Status, &p.StripeSessionID,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	p, err := scanPlan(s.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// ListPlans returns the plans open for purchase, cheapest first.
func (s *Store) ListPlans(ctx context.Context) ([]models.Plan, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+planColumns+` FROM plans WHERE status = $1 ORDER BY price ASC`, models.PlanActive)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := make([]models.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	created, err := scanPayment(s.pool.QueryRow(ctx, `
		INSERT INTO payments (user_id, plan_id, plan_name, amount, status, stripe_session_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+paymentColumns,
		p.UserID, p.PlanID, p.PlanName, p.Amount, p.Status, p.StripeSessionID))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return created, nil
}

// ListPayments returns payments newest first; an empty userID lists all.
func (s *Store) ListPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE ($1 = '' OR user_id::text = $1)
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// CompletePayment marks the payment of a checkout session completed and
// activates the plan on the paying user, in one transaction.
func (s *Store) CompletePayment(ctx context.Context, sessionID string) (*models.Payment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanPayment(tx.QueryRow(ctx, `
		UPDATE payments SET status = $2, updated_at = now()
		WHERE stripe_session_id = $1
		RETURNING `+paymentColumns, sessionID, models.PaymentCompleted))
	if err != nil {
		return nil, notFound(err)
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET active_plan_id = $2, updated_at = now() WHERE id = $1`, p.UserID, p.PlanID); err != nil {
		return nil, fmt.Errorf("activate plan: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}
