// Package supabase talks to the Supabase Postgres database that backs the
// remote deployment.
package supabase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okeamah/portal/internal/models"
	"github.com/shopspring/decimal"
)

// InvestmentStore reads and writes the public.investments table
type InvestmentStore struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool to the Supabase database
func Connect(ctx context.Context, databaseURL string) (*InvestmentStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open investments database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach investments database: %w", err)
	}
	return &InvestmentStore{pool: pool}, nil
}

// Close releases all pooled connections
func (s *InvestmentStore) Close() {
	s.pool.Close()
}

const selectInvestments = `
	SELECT id::text, user_id::text, investment_type, investment_name, amount::text, expected_return::text,
		term_months, status, created_at, maturity_date, certificate_number
	FROM investments`

// ListByUser retrieves all investments of a user, newest first
func (s *InvestmentStore) ListByUser(ctx context.Context, userID string) ([]models.Investment, error) {
	rows, err := s.pool.Query(ctx, selectInvestments+` WHERE user_id::text = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	defer rows.Close()

	investments := []models.Investment{}
	for rows.Next() {
		inv, err := scan(rows)
		if err != nil {
			return nil, err
		}
		investments = append(investments, *inv)
	}
	return investments, rows.Err()
}

// GetByID retrieves one of a user's investments; nil when absent
func (s *InvestmentStore) GetByID(ctx context.Context, userID, id string) (*models.Investment, error) {
	row := s.pool.QueryRow(ctx, selectInvestments+` WHERE id::text = $1 AND user_id::text = $2`, id, userID)
	inv, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

// Create inserts a new investment
func (s *InvestmentStore) Create(ctx context.Context, inv *models.Investment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO investments (id, user_id, investment_type, investment_name, amount, expected_return,
			term_months, status, created_at, maturity_date, certificate_number)
		VALUES ($1::text::uuid, $2::text::uuid, $3, $4, $5::numeric, $6::numeric, $7, $8, $9, $10, $11)`,
		inv.ID,
		inv.UserID,
		string(inv.Type),
		inv.Name,
		inv.Amount.String(),
		inv.ExpectedReturn.String(),
		inv.TermMonths,
		string(inv.Status),
		inv.CreatedAt,
		inv.MaturityDate,
		inv.CertificateNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}
	return nil
}

// UpdateStatus changes the status of one of a user's investments
func (s *InvestmentStore) UpdateStatus(ctx context.Context, userID, id string, status models.InvestmentStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE investments SET status = $1 WHERE id::text = $2 AND user_id::text = $3`,
		string(status), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scan(row pgx.Row) (*models.Investment, error) {
	var inv models.Investment
	var invType, status, amount, expectedReturn string

	err := row.Scan(
		&inv.ID,
		&inv.UserID,
		&invType,
		&inv.Name,
		&amount,
		&expectedReturn,
		&inv.TermMonths,
		&status,
		&inv.CreatedAt,
		&inv.MaturityDate,
		&inv.CertificateNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan investment: %w", err)
	}

	inv.Type = models.InvestmentType(invType)
	inv.Status = models.InvestmentStatus(status)
	if inv.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("malformed amount %q: %w", amount, err)
	}
	if inv.ExpectedReturn, err = decimal.NewFromString(expectedReturn); err != nil {
		return nil, fmt.Errorf("malformed expected return %q: %w", expectedReturn, err)
	}
	return &inv, nil
}
