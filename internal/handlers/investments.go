package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/okeamah/portal/internal/middleware"
	"github.com/okeamah/portal/internal/models"
	"github.com/okeamah/portal/internal/services/investments"
)

// ListInvestments returns the user's investments
func (h *Handler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		h.jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	invs, err := h.investments.ListByUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("Failed to list investments for %s: %v", user.ID, err)
		h.jsonError(w, "Failed to load investments", http.StatusBadGateway)
		return
	}

	h.jsonResponse(w, map[string]interface{}{"investments": invs}, http.StatusOK)
}

// GetInvestment returns a single investment
func (h *Handler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		h.jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	inv, err := h.investments.GetByID(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.investmentError(w, err)
		return
	}

	h.jsonResponse(w, inv, http.StatusOK)
}

// CreateInvestment records a new investment awaiting payment
func (h *Handler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		h.jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input investments.NewInvestment
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	// Only ConfirmPayment moves an investment past pending
	input.Status = models.StatusPending

	inv, err := h.investments.Create(r.Context(), user.ID, input)
	if err != nil {
		h.investmentError(w, err)
		return
	}

	query := url.Values{}
	query.Set("investment", inv.ID)
	query.Set("certificate", inv.CertificateNumber)

	h.jsonResponse(w, map[string]interface{}{
		"investment": inv,
		"redirect":   "/dashboard?" + query.Encode(),
	}, http.StatusCreated)
}

// ConfirmPayment marks a pending investment as paid
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		h.jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	inv, err := h.investments.ConfirmPayment(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.investmentError(w, err)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"investment": inv,
		"redirect":   "/dashboard?payment=success",
	}, http.StatusOK)
}

func (h *Handler) investmentError(w http.ResponseWriter, err error) {
	var fe *investments.FetchError
	switch {
	case errors.Is(err, investments.ErrNotFound):
		h.jsonError(w, "Investment not found", http.StatusNotFound)
	case errors.Is(err, investments.ErrInvalidInvestment):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, investments.ErrNotPending):
		h.jsonError(w, err.Error(), http.StatusConflict)
	case errors.As(err, &fe):
		log.Printf("Investment store error: %v", err)
		h.jsonError(w, "Investment service unavailable", http.StatusBadGateway)
	default:
		log.Printf("Investment error: %v", err)
		h.jsonError(w, "Internal error", http.StatusInternalServerError)
	}
}
