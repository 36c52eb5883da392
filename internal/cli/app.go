// Package cli implements the okeamah command line client. Each profile behaves
// like a separate device: it keeps its own cached session.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/okeamah/portal/internal/app"
	"github.com/okeamah/portal/internal/config"
	"github.com/okeamah/portal/internal/services/auth"
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&signUpCmd{}, "account")
	c.Register(&signInCmd{}, "account")
	c.Register(&signOutCmd{}, "account")
	c.Register(&whoAmICmd{}, "account")

	c.Register(&dashboardCmd{}, "portfolio")
	c.Register(&investCmd{}, "portfolio")
	c.Register(&payCmd{}, "portfolio")
}

// as a CLI application the lifecycle is short, global flags and outputs are fine.

var profile = flag.String("profile", "default", "Profile whose cached session is used")
var plain = flag.Bool("plain", false, "Print raw markdown instead of styled output")

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// openApp is replaced in tests to share one in-memory database across commands
var openApp = func(ctx context.Context) (*app.App, error) {
	return app.Open(ctx, config.Load())
}

// open returns the application services and the facade of the current profile
func open(ctx context.Context) (*app.App, *auth.Facade, error) {
	a, err := openApp(ctx)
	if err != nil {
		return nil, nil, err
	}
	return a, a.Devices.Facade(deviceID(*profile)), nil
}

func deviceID(profile string) string {
	return "cli-" + profile
}

func printMarkdown(md string) {
	if *plain {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}

// fail reports a failure on stderr
func fail(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(stderr, format+"\n", args...)
	return subcommands.ExitFailure
}
