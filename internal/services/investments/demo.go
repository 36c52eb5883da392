package investments

import (
	"time"

	"github.com/google/uuid"
	"github.com/okeamah/portal/internal/models"
	"github.com/shopspring/decimal"
)

// DemoPortfolio returns the two sample plans new local accounts start with,
// dated relative to now so the returns are not stale
func DemoPortfolio(userID string, now time.Time) []models.Investment {
	now = now.UTC()
	growthStart := now.AddDate(0, -5, 0)
	wealthStart := now.AddDate(0, -7, 0)

	return []models.Investment{
		{
			ID:                uuid.NewString(),
			UserID:            userID,
			Type:              models.InvestmentShortTerm,
			Name:              "Growth Fund A",
			Amount:            decimal.NewFromInt(25000),
			ExpectedReturn:    decimal.RequireFromString("12.5"),
			TermMonths:        8,
			Status:            models.StatusActive,
			CreatedAt:         growthStart,
			MaturityDate:      growthStart.AddDate(0, 8, 0),
			CertificateNumber: CertificateNumber(growthStart),
		},
		{
			ID:                uuid.NewString(),
			UserID:            userID,
			Type:              models.InvestmentLongTerm,
			Name:              "Wealth Builder Pro",
			Amount:            decimal.NewFromInt(50000),
			ExpectedReturn:    decimal.RequireFromString("18.3"),
			TermMonths:        24,
			Status:            models.StatusActive,
			CreatedAt:         wealthStart,
			MaturityDate:      wealthStart.AddDate(0, 24, 0),
			CertificateNumber: CertificateNumber(wealthStart),
		},
	}
}
