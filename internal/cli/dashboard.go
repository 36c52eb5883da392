package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/subcommands"
	"github.com/okeamah/portal/internal/dashboard"
)

// terminal presents dashboard cycles on the standard outputs
type terminal struct{}

func (terminal) Render(v dashboard.View) {
	printMarkdown(dashboard.Markdown(v))
}

func (terminal) Notify(n dashboard.Notice) {
	fmt.Fprintf(stderr, "[%s] %s\n", n.Kind, n.Message)
}

// Redirect has no page to leave; it tells the user how to sign in instead
func (terminal) Redirect(string, time.Duration) {
	fmt.Fprintln(stderr, "Run `okeamah signin` to continue.")
}

type dashboardCmd struct {
	watch bool
}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "display your portfolio dashboard" }
func (*dashboardCmd) Usage() string {
	return `okeamah dashboard [-watch]

  Displays portfolio value, returns, investments, performance and allocation.
  With -watch the dashboard is redrawn every refresh interval until interrupted.
`
}

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.watch, "watch", false, "Keep refreshing until interrupted")
}

func (c *dashboardCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, facade, err := open(ctx)
	if err != nil {
		return fail("Error opening database: %v", err)
	}
	defer a.Close()

	var out terminal
	ctrl := dashboard.NewController(facade, a.Investments, out, out, out, dashboard.OptionsFromConfig(a.Config))

	if !c.watch {
		if ctrl.Load(ctx) != dashboard.OutcomeRendered {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	// Investments created by this process reload the dashboard too
	unsubscribe := ctrl.Subscribe(a.Hub)
	defer unsubscribe()

	if err := ctrl.Run(ctx); errors.Is(err, dashboard.ErrUnauthenticated) {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
