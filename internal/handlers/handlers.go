// Package handlers provides HTTP request handlers
package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/okeamah/portal/internal/config"
	"github.com/okeamah/portal/internal/dashboard"
	"github.com/okeamah/portal/internal/middleware"
	"github.com/okeamah/portal/internal/models"
	"github.com/okeamah/portal/internal/realtime"
	"github.com/okeamah/portal/internal/services/auth"
	"github.com/okeamah/portal/internal/services/investments"
	"github.com/okeamah/portal/internal/storage"
	"github.com/okeamah/portal/web"
	"github.com/shopspring/decimal"
)

// Handler contains all HTTP handlers and dependencies
type Handler struct {
	cfg         *config.Config
	templates   *template.Template
	devices     *auth.Devices
	investments *investments.Service
	hub         *realtime.Hub
	db          *storage.DB
}

// New creates a new handler with all dependencies
func New(
	cfg *config.Config,
	devices *auth.Devices,
	investmentService *investments.Service,
	hub *realtime.Hub,
	db *storage.DB,
) (*Handler, error) {
	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		cfg:         cfg,
		templates:   tmpl,
		devices:     devices,
		investments: investmentService,
		hub:         hub,
		db:          db,
	}, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatMoney":   formatMoney,
		"formatPercent": formatPercent,
	}
}

func formatMoney(v interface{}) string {
	switch val := v.(type) {
	case decimal.Decimal:
		return dashboard.FormatUSD(val)
	case float64:
		return dashboard.FormatUSD(decimal.NewFromFloat(val))
	case int:
		return dashboard.FormatUSD(decimal.NewFromInt(int64(val)))
	case string:
		if d, err := decimal.NewFromString(val); err == nil {
			return dashboard.FormatUSD(d)
		}
		return "$" + val
	default:
		return "$0.00"
	}
}

func formatPercent(v interface{}) string {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val) + "%"
	case decimal.Decimal:
		return val.StringFixed(1) + "%"
	case float64:
		return decimal.NewFromFloat(val).StringFixed(1) + "%"
	case string:
		return val + "%"
	default:
		return "0%"
	}
}

// facade returns the auth facade bound to the requesting device
func (h *Handler) facade(r *http.Request) *auth.Facade {
	return h.devices.Facade(middleware.DeviceID(r))
}

// authenticator returns who the dashboard should gate on: a bearer token when the
// client presents one, otherwise the device's cached session
func (h *Handler) authenticator(r *http.Request) dashboard.Authenticator {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		return &tokenAuthenticator{
			backend: h.devices.Backend(),
			tokens:  models.TokenPair{AccessToken: token},
		}
	}
	return h.facade(r)
}

// tokenAuthenticator re-validates a bearer token with the backend on every cycle
type tokenAuthenticator struct {
	backend auth.Backend
	tokens  models.TokenPair
}

func (a *tokenAuthenticator) GetUser(ctx context.Context) (*models.User, error) {
	return a.backend.CurrentUser(ctx, a.tokens)
}

// deviceStore returns the requesting device's local storage
func (h *Handler) deviceStore(r *http.Request) *storage.KV {
	return storage.NewKV(h.db, storage.DeviceNamespace(middleware.DeviceID(r)))
}

// render renders a template with the given data
func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
	}
}

// redirect performs an HTTP redirect
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// jsonResponse writes v as a JSON response
func (h *Handler) jsonResponse(w http.ResponseWriter, v interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// jsonError writes a JSON error response
func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	h.jsonResponse(w, map[string]string{"error": message}, status)
}
