package supabase

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/okeamah/portal/internal/models"
	"github.com/shopspring/decimal"
)

const createInvestmentsTable = `
CREATE TABLE IF NOT EXISTS investments (
	id uuid PRIMARY KEY,
	user_id uuid NOT NULL,
	investment_type text NOT NULL,
	investment_name text NOT NULL,
	amount numeric NOT NULL,
	expected_return numeric NOT NULL,
	term_months integer NOT NULL DEFAULT 0,
	status text NOT NULL DEFAULT 'pending',
	created_at timestamptz NOT NULL,
	maturity_date timestamptz NOT NULL,
	certificate_number text NOT NULL
)`

// newTestStore connects to the Postgres database named by
// SUPABASE_TEST_DATABASE_URL, skipping the test when it is unset
func newTestStore(t *testing.T) *InvestmentStore {
	t.Helper()
	url := os.Getenv("SUPABASE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SUPABASE_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(store.Close)

	if _, err := store.pool.Exec(ctx, createInvestmentsTable); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return store
}

func TestInvestmentStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	userID := uuid.NewString()
	t.Cleanup(func() {
		store.pool.Exec(context.Background(), `DELETE FROM investments WHERE user_id::text = $1`, userID)
	})

	created := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	inv := &models.Investment{
		ID:                uuid.NewString(),
		UserID:            userID,
		Type:              models.InvestmentSecureIncome,
		Name:              "Secure Income Plan",
		Amount:            decimal.RequireFromString("10000.25"),
		ExpectedReturn:    decimal.RequireFromString("8.7"),
		TermMonths:        12,
		Status:            models.StatusPending,
		CreatedAt:         created,
		MaturityDate:      created.AddDate(0, 12, 0),
		CertificateNumber: "OKI-2025-123456",
	}
	if err := store.Create(ctx, inv); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 investment, got %d", len(list))
	}
	if !list[0].Amount.Equal(inv.Amount) {
		t.Errorf("Expected amount %s, got %s", inv.Amount, list[0].Amount)
	}
	if !list[0].CreatedAt.Equal(created) {
		t.Errorf("Expected created_at %v, got %v", created, list[0].CreatedAt)
	}

	if err := store.UpdateStatus(ctx, userID, inv.ID, models.StatusActive); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, err := store.GetByID(ctx, userID, inv.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.StatusActive {
		t.Errorf("Expected status active, got %s", got.Status)
	}

	missing, err := store.GetByID(ctx, uuid.NewString(), inv.ID)
	if err != nil || missing != nil {
		t.Errorf("Expected nil for another user, got %v (err %v)", missing, err)
	}
	if err := store.UpdateStatus(ctx, uuid.NewString(), inv.ID, models.StatusActive); !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("Expected ErrNoRows for another user, got %v", err)
	}
}
