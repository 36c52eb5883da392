package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentType categorizes an investment plan
type InvestmentType string

const (
	InvestmentShortTerm    InvestmentType = "short-term"
	InvestmentLongTerm     InvestmentType = "long-term"
	InvestmentSecureIncome InvestmentType = "secure-income"
)

// AllInvestmentTypes returns all known plan types for iteration
func AllInvestmentTypes() []InvestmentType {
	return []InvestmentType{
		InvestmentShortTerm,
		InvestmentLongTerm,
		InvestmentSecureIncome,
	}
}

// IsValid reports whether t is one of the known plan types
func (t InvestmentType) IsValid() bool {
	switch t {
	case InvestmentShortTerm, InvestmentLongTerm, InvestmentSecureIncome:
		return true
	}
	return false
}

// DisplayName returns human-readable name for the plan type
func (t InvestmentType) DisplayName() string {
	switch t {
	case InvestmentShortTerm:
		return "Short-term"
	case InvestmentLongTerm:
		return "Long-term"
	case InvestmentSecureIncome:
		return "Secure Income"
	default:
		return string(t)
	}
}

// Icon returns the icon name used in the investments table
func (t InvestmentType) Icon() string {
	switch t {
	case InvestmentShortTerm:
		return "rocket"
	case InvestmentLongTerm:
		return "tree"
	case InvestmentSecureIncome:
		return "shield"
	default:
		return "chart-line"
	}
}

// InvestmentStatus is the lifecycle state of an investment. The set is open:
// backends may report statuses not listed here.
type InvestmentStatus string

const (
	StatusPending   InvestmentStatus = "pending"
	StatusActive    InvestmentStatus = "active"
	StatusMatured   InvestmentStatus = "matured"
	StatusCancelled InvestmentStatus = "cancelled"
)

// Investment is a single investment record owned by a user
type Investment struct {
	ID                string           `json:"id"`
	UserID            string           `json:"user_id"`
	Type              InvestmentType   `json:"investment_type"`
	Name              string           `json:"investment_name"`
	Amount            decimal.Decimal  `json:"amount"`
	ExpectedReturn    decimal.Decimal  `json:"expected_return"` // annual percent
	TermMonths        int              `json:"term_months"`
	Status            InvestmentStatus `json:"status"`
	CreatedAt         time.Time        `json:"created_at"`
	MaturityDate      time.Time        `json:"maturity_date"`
	CertificateNumber string           `json:"certificate_number"`
}

// Contributes reports whether the investment counts towards portfolio value
func (i *Investment) Contributes() bool {
	return i.Status == StatusActive || i.Status == StatusMatured
}

// ElapsedMonths returns the whole 30-day months since creation, capped at the term
func (i *Investment) ElapsedMonths(now time.Time) int {
	const month = 30 * 24 * time.Hour

	elapsed := now.Sub(i.CreatedAt)
	if elapsed < 0 {
		return 0
	}
	months := int(elapsed / month)
	if months > i.TermMonths {
		months = i.TermMonths
	}
	return months
}

// ValueAt returns the modelled value with monthly compounding of the nominal rate
func (i *Investment) ValueAt(now time.Time) decimal.Decimal {
	months := i.ElapsedMonths(now)
	if months == 0 {
		return i.Amount
	}
	monthlyRate := i.ExpectedReturn.Div(decimal.NewFromInt(1200))
	growth := decimal.NewFromInt(1).Add(monthlyRate).Pow(decimal.NewFromInt(int64(months)))
	return i.Amount.Mul(growth)
}
