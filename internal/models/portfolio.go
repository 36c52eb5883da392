package models

import (
	"github.com/shopspring/decimal"
)

// PortfolioStats is the summary shown on the dashboard stat tiles
type PortfolioStats struct {
	TotalValue        decimal.Decimal `json:"total_value"`
	TotalReturns      decimal.Decimal `json:"total_returns"`
	AvailableBalance  decimal.Decimal `json:"available_balance"` // placeholder, not ledger backed
	ActiveInvestments int             `json:"active_investments"`

	// Nil means there is not enough history to report a growth rate
	PortfolioGrowth *decimal.Decimal `json:"portfolio_growth"`
	ReturnsGrowth   *decimal.Decimal `json:"returns_growth"`
}

// Allocation is the whole-percent breakdown of active capital per plan type.
// The four buckets always sum to 100.
type Allocation struct {
	ShortTerm    int `json:"short_term"`
	LongTerm     int `json:"long_term"`
	SecureIncome int `json:"secure_income"`
	Cash         int `json:"cash"`
}

// DefaultAllocation is shown when there is no active capital to break down
func DefaultAllocation() Allocation {
	return Allocation{ShortTerm: 45, LongTerm: 35, SecureIncome: 0, Cash: 20}
}

// Total returns the sum of all buckets
func (a Allocation) Total() int {
	return a.ShortTerm + a.LongTerm + a.SecureIncome + a.Cash
}

// Slices returns the buckets in display order
func (a Allocation) Slices() []AllocationSlice {
	return []AllocationSlice{
		{Label: InvestmentShortTerm.DisplayName(), Percent: a.ShortTerm},
		{Label: InvestmentLongTerm.DisplayName(), Percent: a.LongTerm},
		{Label: InvestmentSecureIncome.DisplayName(), Percent: a.SecureIncome},
		{Label: "Cash", Percent: a.Cash},
	}
}

// AllocationSlice is one labelled bucket of the allocation chart
type AllocationSlice struct {
	Label   string `json:"label"`
	Percent int    `json:"percent"`
}

// PerformanceSeries is the portfolio value time series for the performance chart
type PerformanceSeries struct {
	Labels []string          `json:"labels"`
	Values []decimal.Decimal `json:"values"`
}
