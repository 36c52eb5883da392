// Package dashboard runs the dashboard load cycle: gate on authentication, fetch the
// user's investments, aggregate them and hand the result to a presenter.
package dashboard

import (
	"context"
	"errors"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okeamah/portal/internal/config"
	"github.com/okeamah/portal/internal/models"
	"github.com/okeamah/portal/internal/realtime"
	"github.com/shopspring/decimal"
)

// User-facing messages
const (
	MsgLoginRequired    = "Please log in to access the dashboard"
	MsgLoadFailed       = "Failed to load dashboard data"
	MsgPaymentConfirmed = "Payment confirmed! Your investment is now active."
	MsgPaymentSuccess   = "Payment successful! Your investment is now active."
)

// ErrUnauthenticated is returned by Run when the gate fails
var ErrUnauthenticated = errors.New("dashboard: not authenticated")

// Authenticator is the part of the auth facade the dashboard needs. A nil user
// means nobody is signed in.
type Authenticator interface {
	GetUser(ctx context.Context) (*models.User, error)
}

// InvestmentLister loads a user's investment records
type InvestmentLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Investment, error)
}

// Presenter receives every successfully built view
type Presenter interface {
	Render(View)
}

// Notifier shows transient notices to the user
type Notifier interface {
	Notify(Notice)
}

// Navigator moves the user to another surface after delay
type Navigator interface {
	Redirect(path string, delay time.Duration)
}

// NoticeKind is the severity of a notice
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient message for the user
type Notice struct {
	Kind    NoticeKind `json:"type"`
	Message string     `json:"message"`
}

// Outcome is the result of one load cycle
type Outcome int

const (
	OutcomeRendered Outcome = iota
	OutcomeUnauthenticated
	OutcomeFetchFailed
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRendered:
		return "rendered"
	case OutcomeUnauthenticated:
		return "unauthenticated"
	case OutcomeFetchFailed:
		return "fetch failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Options tunes a Controller. Zero values take the defaults.
type Options struct {
	AvailableBalance decimal.Decimal
	FetchTimeout     time.Duration
	RefreshInterval  time.Duration
	LoginPath        string
	RedirectDelay    time.Duration
	Now              func() time.Time
}

// OptionsFromConfig returns the controller settings derived from configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AvailableBalance: cfg.AvailableBalance,
		FetchTimeout:     cfg.FetchTimeout,
		RefreshInterval:  cfg.RefreshInterval,
	}
}

func (o Options) withDefaults() Options {
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 10 * time.Second
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = 30 * time.Second
	}
	if o.LoginPath == "" {
		o.LoginPath = "/login"
	}
	if o.RedirectDelay <= 0 {
		o.RedirectDelay = 1500 * time.Millisecond
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Controller owns the load cycle for one viewer
type Controller struct {
	auth      Authenticator
	source    InvestmentLister
	presenter Presenter
	notifier  Notifier
	navigator Navigator
	opts      Options

	running atomic.Bool
	trigger chan struct{}

	mu     sync.RWMutex
	last   *View
	userID string
}

// NewController creates a controller wired to its collaborators
func NewController(auth Authenticator, source InvestmentLister, presenter Presenter, notifier Notifier, navigator Navigator, opts Options) *Controller {
	return &Controller{
		auth:      auth,
		source:    source,
		presenter: presenter,
		notifier:  notifier,
		navigator: navigator,
		opts:      opts.withDefaults(),
		trigger:   make(chan struct{}, 1),
	}
}

// Load runs one gate, fetch, aggregate, render cycle. A call made while another
// cycle is in progress returns OutcomeSkipped without doing anything.
func (c *Controller) Load(ctx context.Context) Outcome {
	if !c.running.CompareAndSwap(false, true) {
		return OutcomeSkipped
	}
	defer c.running.Store(false)

	user, ok := c.gate(ctx)
	if !ok {
		c.notifier.Notify(Notice{Kind: NoticeError, Message: MsgLoginRequired})
		c.navigator.Redirect(c.opts.LoginPath, c.opts.RedirectDelay)
		return OutcomeUnauthenticated
	}
	c.mu.Lock()
	c.userID = user.ID
	c.mu.Unlock()

	invs, err := c.fetch(ctx, user.ID)
	if err != nil {
		log.Printf("dashboard: failed to load investments for %s: %v", user.ID, err)
		c.notifier.Notify(Notice{Kind: NoticeError, Message: MsgLoadFailed})
		return OutcomeFetchFailed
	}

	view := BuildView(user, invs, c.opts.Now(), c.opts.AvailableBalance)

	c.mu.Lock()
	c.last = &view
	c.mu.Unlock()

	c.presenter.Render(view)
	return OutcomeRendered
}

// LastView returns the most recently rendered view, or nil before the first render
func (c *Controller) LastView() *View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return nil
	}
	v := *c.last
	return &v
}

// Trigger asks Run for an extra cycle. Triggers arriving while one is already
// queued are coalesced.
func (c *Controller) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Run loads immediately, then again on every refresh tick and every Trigger,
// until ctx is done or the user is no longer authenticated
func (c *Controller) Run(ctx context.Context) error {
	if c.Load(ctx) == OutcomeUnauthenticated {
		return ErrUnauthenticated
	}

	ticker := time.NewTicker(c.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-c.trigger:
		}
		if c.Load(ctx) == OutcomeUnauthenticated {
			return ErrUnauthenticated
		}
	}
}

// Subscribe reloads on changes to the viewer's investments and announces the
// viewer's succeeded payments. Events owned by other users, and events that
// arrive before the first successful gate, are ignored. The returned function
// cancels both subscriptions.
func (c *Controller) Subscribe(hub *realtime.Hub) (stop func()) {
	investments := hub.Subscribe(realtime.TopicInvestments, func(ev realtime.Event) {
		if c.owns(ev) {
			c.Trigger()
		}
	})
	payments := hub.Subscribe(realtime.TopicPayments, func(ev realtime.Event) {
		if !c.owns(ev) {
			return
		}
		if ev.EventType == realtime.EventUpdate && ev.New["status"] == "succeeded" {
			c.notifier.Notify(Notice{Kind: NoticeSuccess, Message: MsgPaymentConfirmed})
			c.Trigger()
		}
	})

	return func() {
		investments.Unsubscribe()
		payments.Unsubscribe()
	}
}

// owns reports whether ev belongs to the user of the last successful gate
func (c *Controller) owns(ev realtime.Event) bool {
	c.mu.RLock()
	userID := c.userID
	c.mu.RUnlock()
	if userID == "" {
		return false
	}
	owner, _ := ev.New["user_id"].(string)
	if owner == "" {
		owner, _ = ev.Old["user_id"].(string)
	}
	return owner == userID
}

func (c *Controller) gate(ctx context.Context) (*models.User, bool) {
	user, err := c.auth.GetUser(ctx)
	if err != nil || user == nil {
		return nil, false
	}
	return user, true
}

// fetch bounds the source call by FetchTimeout even if the source ignores ctx
func (c *Controller) fetch(ctx context.Context, userID string) ([]models.Investment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()

	type result struct {
		invs []models.Investment
		err  error
	}
	done := make(chan result, 1)
	go func() {
		invs, err := c.source.ListByUser(ctx, userID)
		done <- result{invs, err}
	}()

	select {
	case r := <-done:
		return r.invs, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ArrivalNotices returns the one-off notices requested by the query string of a
// dashboard visit, as sent back by the payment and investment flows
func ArrivalNotices(query url.Values) []Notice {
	var notices []Notice
	if query.Get("payment") == "success" {
		notices = append(notices, Notice{Kind: NoticeSuccess, Message: MsgPaymentSuccess})
	}
	if query.Get("investment") != "" && query.Get("certificate") != "" {
		notices = append(notices, Notice{
			Kind:    NoticeSuccess,
			Message: "Investment " + query.Get("certificate") + " created successfully!",
		})
	}
	return notices
}
