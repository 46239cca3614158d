package database

import (
	"context"
	"fmt"

	"insights/models"
)

// DashboardSummary aggregates subscription, user and upload figures.
func (s *Store) DashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	var sum models.DashboardSummary

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0)::float8
		FROM payments WHERE status = $1`, models.PaymentCompleted).Scan(&sum.PlansSold, &sum.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("payments totals: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::float8
		FROM payments
		WHERE status = $1 AND created_at >= date_trunc('month', now())`, models.PaymentCompleted).Scan(&sum.MRR)
	if err != nil {
		return nil, fmt.Errorf("mrr: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE active_plan_id IS NOT NULL)
		FROM users`).Scan(&sum.TotalUsers, &sum.ActiveSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("user totals: %w", err)
	}

	if sum.RoleCounts, err = s.labelCounts(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role ORDER BY role`); err != nil {
		return nil, fmt.Errorf("role counts: %w", err)
	}
	if sum.PaymentStatusCounts, err = s.labelCounts(ctx, `SELECT status, COUNT(*) FROM payments GROUP BY status ORDER BY status`); err != nil {
		return nil, fmt.Errorf("payment status counts: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT date_trunc('week', created_at) AS week, COUNT(*)
		FROM users GROUP BY week ORDER BY week ASC`)
	if err != nil {
		return nil, fmt.Errorf("signups by week: %w", err)
	}
	defer rows.Close()
	sum.SignupsByWeek = make([]models.WeeklySignups, 0)
	for rows.Next() {
		var w models.WeeklySignups
		if err := rows.Scan(&w.Week, &w.Count); err != nil {
			return nil, fmt.Errorf("scan signups: %w", err)
		}
		sum.SignupsByWeek = append(sum.SignupsByWeek, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if sum.RecentUploads, err = s.ListUploads(ctx, "", 5); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *Store) labelCounts(ctx context.Context, query string) ([]models.LabelCount, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.LabelCount, 0)
	for rows.Next() {
		var lc models.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}
