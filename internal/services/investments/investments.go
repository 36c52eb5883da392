// Package investments is the data-access facade for investment records
package investments

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okeamah/portal/internal/models"
	"github.com/okeamah/portal/internal/realtime"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("investment not found")
	ErrInvalidInvestment = errors.New("invalid investment")
	ErrNotPending        = errors.New("investment is not awaiting payment")
)

// FetchError reports that the backing store could not deliver records
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("investments %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Source is a backing store of investment records
type Source interface {
	ListByUser(ctx context.Context, userID string) ([]models.Investment, error)
	GetByID(ctx context.Context, userID, id string) (*models.Investment, error)
	Create(ctx context.Context, inv *models.Investment) error
}

// StatusUpdater is implemented by sources that can change an investment's status
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, userID, id string, status models.InvestmentStatus) error
}

// NewInvestment is the input for Create
type NewInvestment struct {
	Type           models.InvestmentType   `json:"investment_type"`
	Name           string                  `json:"investment_name"`
	Amount         decimal.Decimal         `json:"amount"`
	ExpectedReturn decimal.Decimal         `json:"expected_return"`
	TermMonths     int                     `json:"term_months"`
	Status         models.InvestmentStatus `json:"status,omitempty"`
}

// Service wraps a Source with validation, certificate numbering and change publication
type Service struct {
	source Source
	hub    *realtime.Hub
	now    func() time.Time
}

// NewService creates a new investment service; hub may be nil
func NewService(source Source, hub *realtime.Hub) *Service {
	return &Service{
		source: source,
		hub:    hub,
		now:    time.Now,
	}
}

// ListByUser returns the user's investments. It satisfies Source so the
// service can be handed to the dashboard directly.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Investment, error) {
	invs, err := s.source.ListByUser(ctx, userID)
	if err != nil {
		return nil, &FetchError{Op: "list", Err: err}
	}
	return invs, nil
}

// GetByID returns one investment; ErrNotFound when the user has no such record
func (s *Service) GetByID(ctx context.Context, userID, id string) (*models.Investment, error) {
	inv, err := s.source.GetByID(ctx, userID, id)
	if err != nil {
		return nil, &FetchError{Op: "get", Err: err}
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	return inv, nil
}

// Create validates and stores a new investment, then announces it
func (s *Service) Create(ctx context.Context, userID string, input NewInvestment) (*models.Investment, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	status := input.Status
	if status == "" {
		status = models.StatusPending
	}

	inv := &models.Investment{
		ID:                uuid.NewString(),
		UserID:            userID,
		Type:              input.Type,
		Name:              strings.TrimSpace(input.Name),
		Amount:            input.Amount,
		ExpectedReturn:    input.ExpectedReturn,
		TermMonths:        input.TermMonths,
		Status:            status,
		CreatedAt:         now,
		MaturityDate:      now.AddDate(0, input.TermMonths, 0),
		CertificateNumber: CertificateNumber(now),
	}
	if inv.Name == "" {
		inv.Name = inv.Type.DisplayName() + " Plan"
	}

	if err := s.source.Create(ctx, inv); err != nil {
		return nil, &FetchError{Op: "create", Err: err}
	}

	s.publish(realtime.TopicInvestments, realtime.Event{
		EventType: realtime.EventInsert,
		Table:     "investments",
		New:       record(inv),
	})
	return inv, nil
}

// ConfirmPayment activates a pending investment once its payment succeeded.
// There is no payment gateway; the confirmation is taken at face value.
func (s *Service) ConfirmPayment(ctx context.Context, userID, id string) (*models.Investment, error) {
	updater, ok := s.source.(StatusUpdater)
	if !ok {
		return nil, &FetchError{Op: "confirm payment", Err: errors.New("source cannot update status")}
	}

	inv, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.StatusPending {
		return nil, ErrNotPending
	}

	if err := updater.UpdateStatus(ctx, userID, id, models.StatusActive); err != nil {
		return nil, &FetchError{Op: "confirm payment", Err: err}
	}
	old := record(inv)
	inv.Status = models.StatusActive

	s.publish(realtime.TopicPayments, realtime.Event{
		EventType: realtime.EventUpdate,
		Table:     "payments",
		New: map[string]any{
			"investment_id": inv.ID,
			"user_id":       inv.UserID,
			"status":        "succeeded",
		},
		Old: map[string]any{
			"investment_id": inv.ID,
			"user_id":       inv.UserID,
			"status":        "pending",
		},
	})
	s.publish(realtime.TopicInvestments, realtime.Event{
		EventType: realtime.EventUpdate,
		Table:     "investments",
		New:       record(inv),
		Old:       old,
	})
	return inv, nil
}

// SeedDemo stores the demo portfolio for a freshly registered user
func (s *Service) SeedDemo(ctx context.Context, userID string) error {
	for _, inv := range DemoPortfolio(userID, s.now()) {
		inv := inv
		if err := s.source.Create(ctx, &inv); err != nil {
			return &FetchError{Op: "seed", Err: err}
		}
	}
	return nil
}

func (s *Service) publish(topic string, ev realtime.Event) {
	if s.hub != nil {
		s.hub.Publish(topic, ev)
	}
}

func validate(input NewInvestment) error {
	switch {
	case !input.Type.IsValid():
		return fmt.Errorf("%w: unknown investment type %q", ErrInvalidInvestment, input.Type)
	case !input.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInvestment)
	case input.ExpectedReturn.IsNegative():
		return fmt.Errorf("%w: expected return cannot be negative", ErrInvalidInvestment)
	case input.TermMonths < 0:
		return fmt.Errorf("%w: term cannot be negative", ErrInvalidInvestment)
	}
	return nil
}

// CertificateNumber returns a certificate number of the form OKI-<year>-<6 digits>
func CertificateNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 1000000)
	}
	return fmt.Sprintf("OKI-%d-%06d", now.Year(), n.Int64())
}

func record(inv *models.Investment) map[string]any {
	return map[string]any{
		"id":                 inv.ID,
		"user_id":            inv.UserID,
		"investment_type":    string(inv.Type),
		"amount":             inv.Amount.String(),
		"status":             string(inv.Status),
		"certificate_number": inv.CertificateNumber,
	}
}
