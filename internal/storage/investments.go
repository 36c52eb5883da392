package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/okeamah/portal/internal/models"
	"github.com/shopspring/decimal"
)

// InvestmentRepository provides investment data access on the local database
type InvestmentRepository struct {
	db *DB
}

// NewInvestmentRepository creates a new investment repository
func NewInvestmentRepository(db *DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

const investmentColumns = `id, user_id, investment_type, investment_name, amount, expected_return,
	term_months, status, created_at, maturity_date, certificate_number`

// Create inserts a new investment
func (r *InvestmentRepository) Create(ctx context.Context, inv *models.Investment) error {
	query := `INSERT INTO investments (` + investmentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
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

// ListByUser retrieves all investments of a user, newest first
func (r *InvestmentRepository) ListByUser(ctx context.Context, userID string) ([]models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	defer rows.Close()

	investments := []models.Investment{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		investments = append(investments, *inv)
	}
	return investments, rows.Err()
}

// GetByID retrieves one of a user's investments; nil when absent
func (r *InvestmentRepository) GetByID(ctx context.Context, userID, id string) (*models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = ? AND user_id = ?`
	inv, err := scanInvestment(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return inv, err
}

// UpdateStatus changes the status of one of a user's investments
func (r *InvestmentRepository) UpdateStatus(ctx context.Context, userID, id string, status models.InvestmentStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE investments SET status = ? WHERE id = ? AND user_id = ?",
		string(status), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvestment(row scanner) (*models.Investment, error) {
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
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
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
