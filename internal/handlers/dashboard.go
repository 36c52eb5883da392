package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/okeamah/portal/internal/dashboard"
)

// lastViewKey holds the device's most recent dashboard view, shown again when a reload fails
const lastViewKey = "dashboardView"

// pagePresenter collects the output of a single load cycle
type pagePresenter struct {
	view       *dashboard.View
	notices    []dashboard.Notice
	redirectTo string
	delay      time.Duration
}

func (p *pagePresenter) Render(v dashboard.View) { p.view = &v }

func (p *pagePresenter) Notify(n dashboard.Notice) { p.notices = append(p.notices, n) }

func (p *pagePresenter) Redirect(path string, delay time.Duration) {
	p.redirectTo = path
	p.delay = delay
}

func (h *Handler) newController(r *http.Request, p interface {
	dashboard.Presenter
	dashboard.Notifier
	dashboard.Navigator
}) *dashboard.Controller {
	return dashboard.NewController(h.authenticator(r), h.investments, p, p, p, dashboard.OptionsFromConfig(h.cfg))
}

// Dashboard renders the main dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page := &pagePresenter{notices: dashboard.ArrivalNotices(r.URL.Query())}

	switch h.newController(r, page).Load(r.Context()) {
	case dashboard.OutcomeUnauthenticated:
		w.Header().Set("Refresh", strconv.FormatFloat(page.delay.Seconds(), 'f', -1, 64)+"; url="+page.redirectTo)
		h.render(w, "notice.html", map[string]interface{}{
			"Title":      "Login required - Okeamah",
			"Notices":    page.notices,
			"RedirectTo": page.redirectTo,
		})
		return
	case dashboard.OutcomeRendered:
		h.saveLastView(r, page.view)
	case dashboard.OutcomeFetchFailed:
		page.view = h.lastView(r)
	}

	data := map[string]interface{}{
		"Title":   "Dashboard - Okeamah",
		"View":    page.view,
		"Notices": page.notices,
	}
	h.render(w, "dashboard.html", data)
}

// APIDashboard returns the dashboard view as JSON
func (h *Handler) APIDashboard(w http.ResponseWriter, r *http.Request) {
	page := &pagePresenter{}

	switch h.newController(r, page).Load(r.Context()) {
	case dashboard.OutcomeUnauthenticated:
		h.jsonError(w, dashboard.MsgLoginRequired, http.StatusUnauthorized)
	case dashboard.OutcomeFetchFailed:
		h.jsonError(w, dashboard.MsgLoadFailed, http.StatusBadGateway)
	default:
		h.saveLastView(r, page.view)
		h.jsonResponse(w, page.view, http.StatusOK)
	}
}

// streamPresenter forwards controller output as server-sent events
type streamPresenter struct {
	ctx    context.Context
	events chan sse.Event
}

func (s *streamPresenter) send(ev sse.Event) {
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}

func (s *streamPresenter) Render(v dashboard.View) {
	s.send(sse.Event{Event: "view", Data: v})
}

func (s *streamPresenter) Notify(n dashboard.Notice) {
	s.send(sse.Event{Event: "notice", Data: n})
}

func (s *streamPresenter) Redirect(path string, delay time.Duration) {
	s.send(sse.Event{Event: "redirect", Data: map[string]interface{}{
		"path":     path,
		"delay_ms": delay.Milliseconds(),
	}})
}

// DashboardStream pushes a fresh view on every refresh tick and realtime change
func (h *Handler) DashboardStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.jsonError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	stream := &streamPresenter{ctx: ctx, events: make(chan sse.Event, 16)}
	ctrl := h.newController(r, stream)
	stop := ctrl.Subscribe(h.hub)
	defer stop()

	w.Header().Set("Content-Type", sse.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for _, n := range dashboard.ArrivalNotices(r.URL.Query()) {
		stream.Notify(n)
	}

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	id := 0
	write := func(ev sse.Event) bool {
		id++
		ev.Id = strconv.Itoa(id)
		if err := sse.Encode(w, ev); err != nil {
			log.Printf("dashboard stream: %v", err)
			return false
		}
		flusher.Flush()
		return true
	}

	for {
		select {
		case ev := <-stream.events:
			if !write(ev) {
				return
			}
		case <-done:
			// Flush whatever the final cycle queued, e.g. the login redirect
			for {
				select {
				case ev := <-stream.events:
					if !write(ev) {
						return
					}
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) saveLastView(r *http.Request, v *dashboard.View) {
	if v == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to encode dashboard view: %v", err)
		return
	}
	if err := h.deviceStore(r).Set(lastViewKey, string(raw)); err != nil {
		log.Printf("Failed to cache dashboard view: %v", err)
	}
}

func (h *Handler) lastView(r *http.Request) *dashboard.View {
	raw, ok, err := h.deviceStore(r).Get(lastViewKey)
	if err != nil || !ok {
		return nil
	}
	var v dashboard.View
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil
	}
	return &v
}

func (h *Handler) forgetLastView(r *http.Request) {
	if err := h.deviceStore(r).Delete(lastViewKey); err != nil {
		log.Printf("Failed to clear cached dashboard view: %v", err)
	}
}
