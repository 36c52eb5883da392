package dashboard

import (
	"strconv"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/okeamah/portal/internal/models"
	"github.com/okeamah/portal/internal/services/analytics"
	"github.com/shopspring/decimal"
)

// InsufficientHistory is shown in place of a growth delta that cannot be computed
const InsufficientHistory = "Insufficient history"

// View is everything the dashboard surfaces display for one cycle
type View struct {
	User        UserBadge                `json:"user"`
	Stats       models.PortfolioStats    `json:"stats"`
	Tiles       []Tile                   `json:"tiles"`
	Rows        []TableRow               `json:"investments"`
	Empty       bool                     `json:"empty"`
	Performance models.PerformanceSeries `json:"performance"`
	Allocation  models.Allocation        `json:"allocation"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// UserBadge is the header identity block
type UserBadge struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Tile is one formatted stat tile
type Tile struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Change string `json:"change,omitempty"`
}

// TableRow is one formatted line of the investments table
type TableRow struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	TypeLabel         string `json:"type_label"`
	Icon              string `json:"icon"`
	Amount            string `json:"amount"`
	ExpectedReturn    string `json:"expected_return"`
	Status            string `json:"status"`
	MaturityDate      string `json:"maturity_date"`
	CertificateNumber string `json:"certificate_number"`
	Action            string `json:"action"`
}

// BuildView aggregates investments into the presentation model
func BuildView(user *models.User, invs []models.Investment, now time.Time, availableBalance decimal.Decimal) View {
	stats := analytics.CalculatePortfolioStats(invs, now, availableBalance)

	view := View{
		User: UserBadge{
			Name:  user.DisplayName(),
			Role:  user.RoleLabel(),
			Email: user.Email,
		},
		Stats:       stats,
		Tiles:       tiles(stats),
		Rows:        make([]TableRow, 0, len(invs)),
		Empty:       len(invs) == 0,
		Performance: analytics.PerformanceSeries(invs, now, analytics.DefaultPerformanceMonths),
		Allocation:  analytics.CalculateAllocation(invs),
		GeneratedAt: now.UTC(),
	}

	for _, inv := range invs {
		view.Rows = append(view.Rows, row(inv))
	}
	return view
}

func tiles(stats models.PortfolioStats) []Tile {
	return []Tile{
		{Label: "Total Portfolio Value", Value: FormatUSD(stats.TotalValue), Change: growth(stats.PortfolioGrowth)},
		{Label: "Total Returns", Value: FormatUSD(stats.TotalReturns), Change: growth(stats.ReturnsGrowth)},
		{Label: "Available Balance", Value: FormatUSD(stats.AvailableBalance)},
		{Label: "Active Investments", Value: strconv.Itoa(stats.ActiveInvestments)},
	}
}

func row(inv models.Investment) TableRow {
	action := "view"
	if inv.Status == models.StatusMatured {
		action = "download"
	}
	return TableRow{
		ID:                inv.ID,
		Name:              inv.Name,
		Type:              string(inv.Type),
		TypeLabel:         inv.Type.DisplayName(),
		Icon:              inv.Type.Icon(),
		Amount:            FormatUSD(inv.Amount),
		ExpectedReturn:    "+" + inv.ExpectedReturn.String() + "%",
		Status:            string(inv.Status),
		MaturityDate:      FormatDate(inv.MaturityDate),
		CertificateNumber: inv.CertificateNumber,
		Action:            action,
	}
}

func growth(pct *decimal.Decimal) string {
	if pct == nil {
		return InsufficientHistory
	}
	if pct.IsNegative() {
		return pct.StringFixed(1) + "%"
	}
	return "+" + pct.StringFixed(1) + "%"
}

// FormatUSD formats an amount as US dollars, e.g. $25,000.00
func FormatUSD(amount decimal.Decimal) string {
	cents := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

// FormatDate formats a date the way the investments table shows it, e.g. Jan 2, 2006
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}
