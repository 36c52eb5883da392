package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/okeamah/portal/internal/dashboard"
	"github.com/okeamah/portal/internal/models"
	"github.com/okeamah/portal/internal/services/investments"
	"github.com/shopspring/decimal"
)

// plans holds the default return and term of each plan type
var plans = map[models.InvestmentType]struct {
	rate string
	term int
}{
	models.InvestmentShortTerm:    {"12.5", 8},
	models.InvestmentLongTerm:     {"18.3", 24},
	models.InvestmentSecureIncome: {"8.7", 12},
}

type investCmd struct {
	planType string
	name     string
	amount   string
	rate     string
	term     int
	pay      bool
}

func (*investCmd) Name() string     { return "invest" }
func (*investCmd) Synopsis() string { return "start a new investment" }
func (*investCmd) Usage() string {
	return `okeamah invest -type <plan> -amount <usd> [-name <name>] [-pay]

  Records a new investment awaiting payment and prints its certificate number.
  Plans: short-term, long-term, secure-income.
`
}

func (c *investCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.planType, "type", string(models.InvestmentShortTerm), "Plan type")
	f.StringVar(&c.name, "name", "", "Investment name. Defaults to the plan name.")
	f.StringVar(&c.amount, "amount", "", "Amount in USD")
	f.StringVar(&c.rate, "rate", "", "Expected annual return in percent. Defaults to the plan rate.")
	f.IntVar(&c.term, "term", 0, "Term in months. Defaults to the plan term.")
	f.BoolVar(&c.pay, "pay", false, "Confirm the payment right away")
}

func (c *investCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	input, err := c.input()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, facade, err := open(ctx)
	if err != nil {
		return fail("Error opening database: %v", err)
	}
	defer a.Close()

	user, err := facade.GetUser(ctx)
	if err != nil || user == nil {
		return fail("%s. Run `okeamah signin`.", dashboard.MsgLoginRequired)
	}

	inv, err := a.Investments.Create(ctx, user.ID, input)
	if err != nil {
		return fail("Could not create investment: %v", err)
	}
	fmt.Fprintf(stdout, "Investment %s created successfully!\nID: %s\n", inv.CertificateNumber, inv.ID)

	if c.pay {
		if _, err := a.Investments.ConfirmPayment(ctx, user.ID, inv.ID); err != nil {
			return fail("Could not confirm payment: %v", err)
		}
		fmt.Fprintln(stdout, dashboard.MsgPaymentSuccess)
	}
	return subcommands.ExitSuccess
}

func (c *investCmd) input() (investments.NewInvestment, error) {
	t := models.InvestmentType(c.planType)
	plan, ok := plans[t]
	if !ok {
		return investments.NewInvestment{}, fmt.Errorf("unknown plan type %q", c.planType)
	}

	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		return investments.NewInvestment{}, fmt.Errorf("invalid amount %q", c.amount)
	}

	rate := plan.rate
	if c.rate != "" {
		rate = c.rate
	}
	expected, err := decimal.NewFromString(rate)
	if err != nil {
		return investments.NewInvestment{}, fmt.Errorf("invalid rate %q", rate)
	}

	term := plan.term
	if c.term > 0 {
		term = c.term
	}

	return investments.NewInvestment{
		Type:           t,
		Name:           c.name,
		Amount:         amount,
		ExpectedReturn: expected,
		TermMonths:     term,
	}, nil
}

type payCmd struct{}

func (*payCmd) Name() string     { return "pay" }
func (*payCmd) Synopsis() string { return "confirm the payment of a pending investment" }
func (*payCmd) Usage() string {
	return `okeamah pay <investment-id>

  Marks a pending investment as paid, which makes it active.
`
}

func (*payCmd) SetFlags(*flag.FlagSet) {}

func (*payCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: expected exactly one investment id")
		return subcommands.ExitUsageError
	}

	a, facade, err := open(ctx)
	if err != nil {
		return fail("Error opening database: %v", err)
	}
	defer a.Close()

	user, err := facade.GetUser(ctx)
	if err != nil || user == nil {
		return fail("%s. Run `okeamah signin`.", dashboard.MsgLoginRequired)
	}

	inv, err := a.Investments.ConfirmPayment(ctx, user.ID, f.Arg(0))
	if err != nil {
		return fail("Could not confirm payment: %v", err)
	}
	fmt.Fprintf(stdout, "%s\nCertificate: %s\n", dashboard.MsgPaymentSuccess, inv.CertificateNumber)
	return subcommands.ExitSuccess
}
