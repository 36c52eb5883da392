package dashboard

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okeamah/portal/internal/config"
	"github.com/okeamah/portal/internal/models"
	"github.com/okeamah/portal/internal/realtime"
	"github.com/okeamah/portal/internal/services/investments"
	"github.com/okeamah/portal/internal/storage"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeAuth struct {
	user *models.User
}

func (a *fakeAuth) GetUser(ctx context.Context) (*models.User, error) { return a.user, nil }

type countingAuth struct {
	user  *models.User
	calls int
}

func (a *countingAuth) GetUser(ctx context.Context) (*models.User, error) {
	a.calls++
	return a.user, nil
}

type fakeSource struct {
	calls   atomic.Int32
	invs    []models.Investment
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *fakeSource) ListByUser(ctx context.Context, userID string) ([]models.Investment, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	return s.invs, s.err
}

type recorder struct {
	mu        sync.Mutex
	views     []View
	notices   []Notice
	redirects []string
	delay     time.Duration
	rendered  chan View
}

func (r *recorder) Render(v View) {
	r.mu.Lock()
	r.views = append(r.views, v)
	r.mu.Unlock()
	if r.rendered != nil {
		r.rendered <- v
	}
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) Redirect(path string, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects = append(r.redirects, path)
	r.delay = delay
}

func (r *recorder) noticeMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var msgs []string
	for _, n := range r.notices {
		msgs = append(msgs, n.Message)
	}
	return msgs
}

func testUser() *models.User {
	return &models.User{ID: "user-1", Email: "ada@example.com", Profile: models.Profile{FirstName: "Ada", LastName: "Lovelace"}}
}

func newTestController(auth *fakeAuth, source *fakeSource, rec *recorder) *Controller {
	return NewController(auth, source, rec, rec, rec, Options{
		AvailableBalance: decimal.NewFromInt(8500),
		Now:              func() time.Time { return testNow },
	})
}

func TestController_UnauthenticatedMakesNoDataCalls(t *testing.T) {
	source := &fakeSource{}
	rec := &recorder{}
	c := newTestController(&fakeAuth{}, source, rec)

	if outcome := c.Load(context.Background()); outcome != OutcomeUnauthenticated {
		t.Errorf("Expected unauthenticated outcome, got %s", outcome)
	}
	if source.calls.Load() != 0 {
		t.Errorf("Expected zero data calls, got %d", source.calls.Load())
	}
	if len(rec.redirects) != 1 || rec.redirects[0] != "/login" {
		t.Errorf("Expected redirect to /login, got %v", rec.redirects)
	}
	if rec.delay != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s redirect delay, got %s", rec.delay)
	}
	if msgs := rec.noticeMessages(); len(msgs) != 1 || msgs[0] != MsgLoginRequired {
		t.Errorf("Expected login notice, got %v", msgs)
	}
	if len(rec.views) != 0 {
		t.Error("Expected nothing rendered")
	}
}

func TestController_LoadRendersView(t *testing.T) {
	source := &fakeSource{invs: investments.DemoPortfolio("user-1", testNow)}
	rec := &recorder{}
	c := newTestController(&fakeAuth{user: testUser()}, source, rec)

	if outcome := c.Load(context.Background()); outcome != OutcomeRendered {
		t.Fatalf("Expected rendered outcome, got %s", outcome)
	}
	if len(rec.views) != 1 {
		t.Fatalf("Expected 1 render, got %d", len(rec.views))
	}

	view := rec.views[0]
	if view.User.Name != "Ada Lovelace" {
		t.Errorf("Expected user name Ada Lovelace, got %q", view.User.Name)
	}
	if view.Stats.ActiveInvestments != 2 {
		t.Errorf("Expected 2 active investments, got %d", view.Stats.ActiveInvestments)
	}
	if view.Tiles[0].Value != "$75,000.00" {
		t.Errorf("Expected total value $75,000.00, got %s", view.Tiles[0].Value)
	}
	if view.Tiles[2].Value != "$8,500.00" {
		t.Errorf("Expected available balance $8,500.00, got %s", view.Tiles[2].Value)
	}
	if view.Tiles[0].Change != InsufficientHistory {
		t.Errorf("Expected growth to report insufficient history, got %q", view.Tiles[0].Change)
	}
	if view.Allocation.Total() != 100 {
		t.Errorf("Expected allocation to sum to 100, got %d", view.Allocation.Total())
	}
	if c.LastView() == nil {
		t.Error("Expected last view to be remembered")
	}
}

func TestController_FetchFailureKeepsPreviousView(t *testing.T) {
	source := &fakeSource{invs: investments.DemoPortfolio("user-1", testNow)}
	rec := &recorder{}
	c := newTestController(&fakeAuth{user: testUser()}, source, rec)

	c.Load(context.Background())
	before := c.LastView()

	source.err = &investments.FetchError{Op: "list", Err: errors.New("connection refused")}
	if outcome := c.Load(context.Background()); outcome != OutcomeFetchFailed {
		t.Fatalf("Expected fetch failed outcome, got %s", outcome)
	}

	if len(rec.views) != 1 {
		t.Errorf("Expected no render after failure, got %d renders", len(rec.views))
	}
	after := c.LastView()
	if after == nil || !after.GeneratedAt.Equal(before.GeneratedAt) || len(after.Rows) != len(before.Rows) {
		t.Error("Expected previous view to be left untouched")
	}
	if msgs := rec.noticeMessages(); len(msgs) != 1 || msgs[0] != MsgLoadFailed {
		t.Errorf("Expected failure notice, got %v", msgs)
	}
	if len(rec.redirects) != 0 {
		t.Error("Expected no redirect on fetch failure")
	}
}

func TestController_OverlappingCycleIsSkipped(t *testing.T) {
	source := &fakeSource{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	rec := &recorder{}
	c := newTestController(&fakeAuth{user: testUser()}, source, rec)

	done := make(chan Outcome)
	go func() { done <- c.Load(context.Background()) }()
	<-source.started

	if outcome := c.Load(context.Background()); outcome != OutcomeSkipped {
		t.Errorf("Expected overlapping cycle to be skipped, got %s", outcome)
	}

	close(source.release)
	if outcome := <-done; outcome != OutcomeRendered {
		t.Errorf("Expected first cycle to render, got %s", outcome)
	}
	if source.calls.Load() != 1 {
		t.Errorf("Expected exactly one fetch, got %d", source.calls.Load())
	}
}

func TestController_FetchTimeout(t *testing.T) {
	source := &fakeSource{release: make(chan struct{})}
	defer close(source.release)
	rec := &recorder{}
	c := NewController(&fakeAuth{user: testUser()}, source, rec, rec, rec, Options{
		FetchTimeout: 20 * time.Millisecond,
		Now:          func() time.Time { return testNow },
	})

	if outcome := c.Load(context.Background()); outcome != OutcomeFetchFailed {
		t.Errorf("Expected timeout to fail the fetch, got %s", outcome)
	}
}

func TestController_Subscribe(t *testing.T) {
	hub := realtime.NewHub()
	rec := &recorder{}
	c := newTestController(&fakeAuth{user: testUser()}, &fakeSource{}, rec)

	stop := c.Subscribe(hub)

	// Nobody has been gated yet
	hub.Publish(realtime.TopicInvestments, realtime.Event{
		EventType: realtime.EventInsert,
		New:       map[string]any{"user_id": "user-1"},
	})
	if len(c.trigger) != 0 {
		t.Error("Expected no reload before the first load")
	}

	c.Load(context.Background())

	hub.Publish(realtime.TopicPayments, realtime.Event{
		EventType: realtime.EventUpdate,
		New:       map[string]any{"user_id": "user-1", "status": "pending"},
	})
	if len(rec.noticeMessages()) != 0 {
		t.Error("Expected no notice for a pending payment")
	}
	if len(c.trigger) != 0 {
		t.Error("Expected no reload for a pending payment")
	}

	hub.Publish(realtime.TopicPayments, realtime.Event{
		EventType: realtime.EventUpdate,
		New:       map[string]any{"status": "succeeded"},
	})
	if len(rec.noticeMessages()) != 0 || len(c.trigger) != 0 {
		t.Error("Expected a payment without owner to be ignored")
	}

	hub.Publish(realtime.TopicPayments, realtime.Event{
		EventType: realtime.EventUpdate,
		New:       map[string]any{"user_id": "user-1", "status": "succeeded"},
	})
	if msgs := rec.noticeMessages(); len(msgs) != 1 || msgs[0] != MsgPaymentConfirmed {
		t.Errorf("Expected payment confirmation notice, got %v", msgs)
	}
	if len(c.trigger) != 1 {
		t.Error("Expected a reload to be queued")
	}

	// Coalesced with the queued trigger
	hub.Publish(realtime.TopicInvestments, realtime.Event{
		EventType: realtime.EventDelete,
		Old:       map[string]any{"user_id": "user-1"},
	})
	if len(c.trigger) != 1 {
		t.Errorf("Expected triggers to coalesce, got %d", len(c.trigger))
	}

	stop()
	if hub.Subscribers(realtime.TopicInvestments) != 0 || hub.Subscribers(realtime.TopicPayments) != 0 {
		t.Error("Expected stop to unsubscribe both topics")
	}
}

func TestController_SubscribeIgnoresOtherUsers(t *testing.T) {
	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	hub := realtime.NewHub()
	svc := investments.NewService(storage.NewInvestmentRepository(db), hub)
	ctx := context.Background()

	alice := &models.User{ID: "alice", Email: "alice@example.com"}
	bob := &models.User{ID: "bob", Email: "bob@example.com"}

	aliceRec, bobRec := &recorder{}, &recorder{}
	aliceCtrl := NewController(&fakeAuth{user: alice}, svc, aliceRec, aliceRec, aliceRec, Options{})
	bobCtrl := NewController(&fakeAuth{user: bob}, svc, bobRec, bobRec, bobRec, Options{})
	defer aliceCtrl.Subscribe(hub)()
	defer bobCtrl.Subscribe(hub)()

	aliceCtrl.Load(ctx)
	bobCtrl.Load(ctx)

	inv, err := svc.Create(ctx, alice.ID, investments.NewInvestment{
		Type:   models.InvestmentSecureIncome,
		Amount: decimal.NewFromInt(10000),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.ConfirmPayment(ctx, alice.ID, inv.ID); err != nil {
		t.Fatalf("ConfirmPayment failed: %v", err)
	}

	if msgs := bobRec.noticeMessages(); len(msgs) != 0 {
		t.Errorf("Expected no notices for bob, got %v", msgs)
	}
	if len(bobCtrl.trigger) != 0 {
		t.Errorf("Expected no reload for bob, got %d", len(bobCtrl.trigger))
	}

	if msgs := aliceRec.noticeMessages(); len(msgs) != 1 || msgs[0] != MsgPaymentConfirmed {
		t.Errorf("Expected payment confirmation for alice, got %v", msgs)
	}
	if len(aliceCtrl.trigger) != 1 {
		t.Errorf("Expected a reload for alice, got %d", len(aliceCtrl.trigger))
	}
}

func TestController_GateCallsBackendOnce(t *testing.T) {
	auth := &countingAuth{}
	rec := &recorder{}
	c := NewController(auth, &fakeSource{}, rec, rec, rec, Options{})

	if outcome := c.Load(context.Background()); outcome != OutcomeUnauthenticated {
		t.Errorf("Expected unauthenticated outcome, got %s", outcome)
	}
	if auth.calls != 1 {
		t.Errorf("Expected 1 GetUser call for a stale session, got %d", auth.calls)
	}

	auth.user = testUser()
	auth.calls = 0
	if outcome := c.Load(context.Background()); outcome != OutcomeRendered {
		t.Errorf("Expected rendered outcome, got %s", outcome)
	}
	if auth.calls != 1 {
		t.Errorf("Expected 1 GetUser call per cycle, got %d", auth.calls)
	}
}

func TestController_RunReloadsOnTrigger(t *testing.T) {
	rec := &recorder{rendered: make(chan View, 4)}
	source := &fakeSource{}
	c := NewController(&fakeAuth{user: testUser()}, source, rec, rec, rec, Options{
		RefreshInterval: time.Hour,
		Now:             func() time.Time { return testNow },
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error)
	go func() { errc <- c.Run(ctx) }()

	waitRender := func() {
		select {
		case <-rec.rendered:
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for render")
		}
	}

	waitRender()
	c.Trigger()
	waitRender()

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Expected nil error on cancel, got %v", err)
	}
	if source.calls.Load() != 2 {
		t.Errorf("Expected 2 fetches, got %d", source.calls.Load())
	}
}

func TestController_RunStopsWhenUnauthenticated(t *testing.T) {
	rec := &recorder{}
	c := newTestController(&fakeAuth{}, &fakeSource{}, rec)

	if err := c.Run(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(&config.Config{
		AvailableBalance: decimal.NewFromInt(8500),
		FetchTimeout:     5 * time.Second,
		RefreshInterval:  time.Minute,
	})

	if !opts.AvailableBalance.Equal(decimal.NewFromInt(8500)) {
		t.Errorf("Expected available balance 8500, got %s", opts.AvailableBalance)
	}
	if opts.FetchTimeout != 5*time.Second {
		t.Errorf("Expected fetch timeout 5s, got %s", opts.FetchTimeout)
	}
	if opts.RefreshInterval != time.Minute {
		t.Errorf("Expected refresh interval 1m, got %s", opts.RefreshInterval)
	}
	if got := opts.withDefaults().LoginPath; got != "/login" {
		t.Errorf("Expected login path /login, got %s", got)
	}
}

func TestArrivalNotices(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", nil},
		{"payment=success", []string{MsgPaymentSuccess}},
		{"payment=cancelled", nil},
		{"investment=abc&certificate=OKI-2025-000042", []string{"Investment OKI-2025-000042 created successfully!"}},
		{"investment=abc", nil},
	}

	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		notices := ArrivalNotices(q)
		if len(notices) != len(tt.want) {
			t.Errorf("%q: expected %d notices, got %d", tt.query, len(tt.want), len(notices))
			continue
		}
		for i, n := range notices {
			if n.Message != tt.want[i] {
				t.Errorf("%q: expected %q, got %q", tt.query, tt.want[i], n.Message)
			}
		}
	}
}

func TestBuildView_Rows(t *testing.T) {
	matured := models.Investment{
		ID:             "inv-1",
		Type:           models.InvestmentSecureIncome,
		Name:           "Income Plan",
		Amount:         decimal.NewFromInt(1000),
		ExpectedReturn: decimal.RequireFromString("6.5"),
		Status:         models.StatusMatured,
		MaturityDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	pending := matured
	pending.ID = "inv-2"
	pending.Status = models.StatusPending

	view := BuildView(testUser(), []models.Investment{matured, pending}, testNow, decimal.Zero)

	if view.Empty {
		t.Error("Expected non-empty view")
	}
	if view.Rows[0].Action != "download" {
		t.Errorf("Expected download action for matured investment, got %s", view.Rows[0].Action)
	}
	if view.Rows[1].Action != "view" {
		t.Errorf("Expected view action for pending investment, got %s", view.Rows[1].Action)
	}
	if view.Rows[0].ExpectedReturn != "+6.5%" {
		t.Errorf("Expected +6.5%%, got %s", view.Rows[0].ExpectedReturn)
	}
	if view.Rows[0].MaturityDate != "Mar 1, 2025" {
		t.Errorf("Expected Mar 1, 2025, got %s", view.Rows[0].MaturityDate)
	}
	if view.Rows[0].Icon != "shield" {
		t.Errorf("Expected shield icon, got %s", view.Rows[0].Icon)
	}
}

func TestBuildView_EmptyUsesDefaultAllocation(t *testing.T) {
	view := BuildView(testUser(), nil, testNow, decimal.Zero)

	if !view.Empty {
		t.Error("Expected empty view")
	}
	if view.Allocation != models.DefaultAllocation() {
		t.Errorf("Expected default allocation, got %+v", view.Allocation)
	}
}

func TestMarkdown(t *testing.T) {
	view := BuildView(testUser(), investments.DemoPortfolio("user-1", testNow), testNow, decimal.NewFromInt(8500))
	md := Markdown(view)

	for _, want := range []string{"Ada Lovelace", "Growth Fund A", "$8,500.00", "## Allocation"} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q", want)
		}
	}

	empty := Markdown(BuildView(testUser(), nil, testNow, decimal.Zero))
	if !strings.Contains(empty, "No investments found") {
		t.Error("Expected empty call-to-action")
	}
}
