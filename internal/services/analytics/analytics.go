// Package analytics derives portfolio statistics and chart data from investment records.
// Every function here is pure: the same records and clock give the same result.
package analytics

import (
	"time"

	"github.com/okeamah/portal/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultPerformanceMonths is the number of points on the performance chart
const DefaultPerformanceMonths = 6

var hundred = decimal.NewFromInt(100)

// CalculatePortfolioStats aggregates the stat tiles for a set of investments.
// Only active and matured investments contribute. Growth fields are left nil
// because no value history is kept to derive them from.
func CalculatePortfolioStats(invs []models.Investment, now time.Time, availableBalance decimal.Decimal) models.PortfolioStats {
	stats := models.PortfolioStats{
		TotalValue:       decimal.Zero,
		TotalReturns:     decimal.Zero,
		AvailableBalance: availableBalance,
	}

	for i := range invs {
		inv := &invs[i]
		if !inv.Contributes() {
			continue
		}
		stats.ActiveInvestments++
		stats.TotalValue = stats.TotalValue.Add(inv.Amount)
		stats.TotalReturns = stats.TotalReturns.Add(inv.ValueAt(now).Sub(inv.Amount))
	}

	return stats
}

// CalculateAllocation breaks active capital down by plan type in whole percents.
// Cash absorbs rounding drift so the buckets always sum to 100; when rounding
// overshoots, the excess is taken from the largest bucket.
func CalculateAllocation(invs []models.Investment) models.Allocation {
	amounts := make(map[models.InvestmentType]decimal.Decimal)
	total := decimal.Zero

	for _, inv := range invs {
		if inv.Status != models.StatusActive || !inv.Type.IsValid() {
			continue
		}
		amounts[inv.Type] = amounts[inv.Type].Add(inv.Amount)
		total = total.Add(inv.Amount)
	}

	if !total.IsPositive() {
		return models.DefaultAllocation()
	}

	percent := func(t models.InvestmentType) int {
		return int(amounts[t].Div(total).Mul(hundred).Round(0).IntPart())
	}

	alloc := models.Allocation{
		ShortTerm:    percent(models.InvestmentShortTerm),
		LongTerm:     percent(models.InvestmentLongTerm),
		SecureIncome: percent(models.InvestmentSecureIncome),
	}

	sum := alloc.ShortTerm + alloc.LongTerm + alloc.SecureIncome
	if sum > 100 {
		*largest(&alloc) -= sum - 100
		sum = 100
	}
	alloc.Cash = 100 - sum

	return alloc
}

func largest(a *models.Allocation) *int {
	max := &a.ShortTerm
	if a.LongTerm > *max {
		max = &a.LongTerm
	}
	if a.SecureIncome > *max {
		max = &a.SecureIncome
	}
	return max
}

// PerformanceSeries returns the modelled portfolio value at the end of each of the
// last months calendar months, oldest first. The current month's point is taken at
// now. An investment only counts from the moment it was created.
func PerformanceSeries(invs []models.Investment, now time.Time, months int) models.PerformanceSeries {
	if months <= 0 {
		months = DefaultPerformanceMonths
	}

	series := models.PerformanceSeries{
		Labels: make([]string, 0, months),
		Values: make([]decimal.Decimal, 0, months),
	}

	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for step := months - 1; step >= 0; step-- {
		start := thisMonth.AddDate(0, -step, 0)
		at := now
		if step > 0 {
			at = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		}
		series.Labels = append(series.Labels, start.Format("Jan"))
		series.Values = append(series.Values, valueAt(invs, at).Round(2))
	}

	return series
}

func valueAt(invs []models.Investment, at time.Time) decimal.Decimal {
	value := decimal.Zero
	for i := range invs {
		inv := &invs[i]
		if !inv.Contributes() || inv.CreatedAt.After(at) {
			continue
		}
		value = value.Add(inv.ValueAt(at))
	}
	return value
}
