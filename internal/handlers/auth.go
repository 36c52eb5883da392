package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/okeamah/portal/internal/models"
	"github.com/okeamah/portal/internal/services/auth"
)

// Home sends visitors to the dashboard or the login page
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if h.facade(r).IsAuthenticated(r.Context()) {
		h.redirect(w, r, "/dashboard")
		return
	}
	h.redirect(w, r, "/login")
}

// LoginPage renders the login page
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	f := h.facade(r)

	// If already logged in, redirect to dashboard
	if f.IsAuthenticated(r.Context()) {
		h.redirect(w, r, "/dashboard")
		return
	}

	data := map[string]interface{}{
		"Title": "Login - Okeamah",
		"Error": r.URL.Query().Get("error"),
		"Email": f.RememberedEmail(),
	}
	if info := r.URL.Query().Get("info"); info != "" {
		data["Notices"] = []map[string]string{{"Kind": "info", "Message": info}}
	}
	h.render(w, "login.html", data)
}

// Login handles login form submission
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/login?error=Invalid+request")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	f := h.facade(r)
	if _, err := f.SignIn(r.Context(), email, password); err != nil {
		h.redirect(w, r, "/login?error="+url.QueryEscape(authMessage(err)))
		return
	}

	h.forgetLastView(r)
	if r.FormValue("remember") != "" {
		if err := f.Remember(email); err != nil {
			log.Printf("auth: failed to remember email: %v", err)
		}
	}

	h.redirect(w, r, "/dashboard")
}

// RegisterPage renders the registration page
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	// If already logged in, redirect to dashboard
	if h.facade(r).IsAuthenticated(r.Context()) {
		h.redirect(w, r, "/dashboard")
		return
	}

	data := map[string]interface{}{
		"Title":           "Register - Okeamah",
		"Error":           r.URL.Query().Get("error"),
		"InvestmentTypes": models.AllInvestmentTypes(),
	}
	h.render(w, "register.html", data)
}

// Register handles registration form submission
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/register?error=Invalid+request")
		return
	}

	profile := models.Profile{
		FirstName:      strings.TrimSpace(r.FormValue("first_name")),
		LastName:       strings.TrimSpace(r.FormValue("last_name")),
		Phone:          strings.TrimSpace(r.FormValue("phone")),
		InvestmentType: r.FormValue("investment_type"),
	}
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirmPassword := r.FormValue("confirm_password")

	// Validation
	if profile.FirstName == "" || profile.LastName == "" || email == "" || password == "" {
		h.redirect(w, r, "/register?error=All+fields+required")
		return
	}

	if password != confirmPassword {
		h.redirect(w, r, "/register?error=Passwords+do+not+match")
		return
	}

	f := h.facade(r)
	session, err := f.SignUp(r.Context(), email, password, profile)
	if err != nil {
		h.redirect(w, r, "/register?error="+url.QueryEscape(authMessage(err)))
		return
	}

	// The remote service issues no tokens until the email is confirmed
	if session.Tokens.AccessToken == "" {
		f.SignOut(r.Context())
		h.redirect(w, r, "/login?info=Check+your+email+to+confirm+your+account")
		return
	}

	if h.cfg.SeedDemoData && h.devices.Backend().Name() == "local" {
		if err := h.investments.SeedDemo(r.Context(), session.User.ID); err != nil {
			log.Printf("Failed to seed demo investments for %s: %v", session.User.ID, err)
		}
	}

	h.redirect(w, r, "/dashboard")
}

// Logout handles user logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.facade(r).SignOut(r.Context()); err != nil {
		log.Printf("Logout completed locally, backend reported: %v", err)
	}
	h.forgetLastView(r)
	h.redirect(w, r, "/login")
}

// authMessage turns a facade error into text for the login and register forms
func authMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		return "Email already registered"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"
	}

	switch auth.KindOf(err) {
	case auth.KindValidation:
		var ae *auth.Error
		if errors.As(err, &ae) {
			return strings.TrimPrefix(ae.Err.Error(), auth.ErrInvalidInput.Error()+": ")
		}
		return "Invalid input"
	case auth.KindNetwork:
		return "Authentication service is unavailable, please try again"
	default:
		return "Authentication failed"
	}
}
