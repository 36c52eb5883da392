package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/okeamah/portal/internal/models"
	"github.com/okeamah/portal/internal/services/auth"
)

// passwordEnv lets scripts avoid passing the password on the command line
const passwordEnv = "OKEAMAH_PASSWORD"

func password(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(passwordEnv)
}

type signUpCmd struct {
	email     string
	password  string
	firstName string
	lastName  string
	phone     string
	planType  string
}

func (*signUpCmd) Name() string     { return "signup" }
func (*signUpCmd) Synopsis() string { return "create an investor account" }
func (*signUpCmd) Usage() string {
	return `okeamah signup -email <email> [-password <password>] [-first <name>] [-last <name>]

  Creates an account and signs the current profile in. The password may also be
  given in $OKEAMAH_PASSWORD.
`
}

func (c *signUpCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "Email address")
	f.StringVar(&c.password, "password", "", "Password, at least 8 characters")
	f.StringVar(&c.firstName, "first", "", "First name")
	f.StringVar(&c.lastName, "last", "", "Last name")
	f.StringVar(&c.phone, "phone", "", "Phone number")
	f.StringVar(&c.planType, "type", "", "Preferred plan: short-term, long-term or secure-income")
}

func (c *signUpCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" {
		fmt.Fprintln(stderr, "Error: -email is required")
		return subcommands.ExitUsageError
	}

	a, facade, err := open(ctx)
	if err != nil {
		return fail("Error opening database: %v", err)
	}
	defer a.Close()

	session, err := facade.SignUp(ctx, c.email, password(c.password), models.Profile{
		FirstName:      strings.TrimSpace(c.firstName),
		LastName:       strings.TrimSpace(c.lastName),
		Phone:          strings.TrimSpace(c.phone),
		InvestmentType: c.planType,
	})
	if err != nil {
		return fail("Sign up failed: %v", err)
	}

	if session.Tokens.AccessToken == "" {
		facade.SignOut(ctx)
		fmt.Fprintln(stdout, "Account created. Check your email to confirm it, then run `okeamah signin`.")
		return subcommands.ExitSuccess
	}

	if a.Config.SeedDemoData && facade.Backend().Name() == "local" {
		if err := a.Investments.SeedDemo(ctx, session.User.ID); err != nil {
			fmt.Fprintf(stderr, "Warning: could not add demo investments: %v\n", err)
		}
	}

	fmt.Fprintf(stdout, "Welcome, %s! You are signed in.\n", session.User.DisplayName())
	return subcommands.ExitSuccess
}

type signInCmd struct {
	email    string
	password string
	remember bool
}

func (*signInCmd) Name() string     { return "signin" }
func (*signInCmd) Synopsis() string { return "sign in to your account" }
func (*signInCmd) Usage() string {
	return `okeamah signin [-email <email>] [-password <password>] [-remember]

  Signs the current profile in. Without -email the remembered address is used.
`
}

func (c *signInCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "Email address")
	f.StringVar(&c.password, "password", "", "Password")
	f.BoolVar(&c.remember, "remember", false, "Remember the email address for next time")
}

func (c *signInCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, facade, err := open(ctx)
	if err != nil {
		return fail("Error opening database: %v", err)
	}
	defer a.Close()

	email := c.email
	if email == "" {
		email = facade.RememberedEmail()
	}
	if email == "" {
		fmt.Fprintln(stderr, "Error: -email is required")
		return subcommands.ExitUsageError
	}

	session, err := facade.SignIn(ctx, email, password(c.password))
	if err != nil {
		return fail("Sign in failed: %v", err)
	}

	if c.remember {
		if err := facade.Remember(session.User.Email); err != nil {
			fmt.Fprintf(stderr, "Warning: could not remember email: %v\n", err)
		}
	}

	fmt.Fprintf(stdout, "Signed in as %s.\n", session.User.Email)
	return subcommands.ExitSuccess
}

type signOutCmd struct{}

func (*signOutCmd) Name() string     { return "signout" }
func (*signOutCmd) Synopsis() string { return "sign out of your account" }
func (*signOutCmd) Usage() string {
	return `okeamah signout

  Clears the cached session of the current profile.
`
}

func (*signOutCmd) SetFlags(*flag.FlagSet) {}

func (*signOutCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, facade, err := open(ctx)
	if err != nil {
		return fail("Error opening database: %v", err)
	}
	defer a.Close()

	// The local session is gone even when the backend call fails
	if err := facade.SignOut(ctx); err != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	}
	fmt.Fprintln(stdout, "Signed out.")
	return subcommands.ExitSuccess
}

type whoAmICmd struct{}

func (*whoAmICmd) Name() string     { return "whoami" }
func (*whoAmICmd) Synopsis() string { return "show the signed in user" }
func (*whoAmICmd) Usage() string {
	return `okeamah whoami

  Prints the user of the current profile's session.
`
}

func (*whoAmICmd) SetFlags(*flag.FlagSet) {}

func (*whoAmICmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, facade, err := open(ctx)
	if err != nil {
		return fail("Error opening database: %v", err)
	}
	defer a.Close()

	user, err := facade.GetUser(ctx)
	if err != nil {
		if auth.KindOf(err) == auth.KindNetwork {
			return fail("Authentication service is unavailable: %v", err)
		}
		return fail("Error: %v", err)
	}
	if user == nil {
		return fail("Not signed in. Run `okeamah signin`.")
	}

	fmt.Fprintf(stdout, "%s <%s>\n%s, %s backend\n", user.DisplayName(), user.Email, user.RoleLabel(), facade.Backend().Name())
	return subcommands.ExitSuccess
}
