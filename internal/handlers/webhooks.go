package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/okeamah/portal/internal/realtime"
	svix "github.com/svix/svix-webhooks/go"
)

// maxWebhookBody caps the size of a database webhook payload
const maxWebhookBody = 1 << 20

// databaseChange is the payload of a Supabase database webhook
type databaseChange struct {
	Type      string         `json:"type"`
	Table     string         `json:"table"`
	Schema    string         `json:"schema"`
	Record    map[string]any `json:"record"`
	OldRecord map[string]any `json:"old_record"`
}

// RealtimeWebhook verifies a signed database change and republishes it to subscribers
func (h *Handler) RealtimeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.cfg.WebhookSecret == "" {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.jsonError(w, "Could not read request body", http.StatusBadRequest)
		return
	}

	wh, err := svix.NewWebhook(h.cfg.WebhookSecret)
	if err != nil {
		log.Printf("webhook: invalid secret: %v", err)
		h.jsonError(w, "Failed to initialize webhook verification", http.StatusInternalServerError)
		return
	}

	if err := wh.Verify(body, r.Header); err != nil {
		log.Printf("webhook: signature verification failed: %v", err)
		h.jsonError(w, "Invalid webhook signature", http.StatusUnauthorized)
		return
	}

	var change databaseChange
	if err := json.Unmarshal(body, &change); err != nil {
		h.jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	var topic string
	switch change.Table {
	case "investments":
		topic = realtime.TopicInvestments
	case "payments":
		topic = realtime.TopicPayments
	default:
		h.jsonResponse(w, map[string]string{"message": "Event received but not handled"}, http.StatusOK)
		return
	}

	h.hub.Publish(topic, realtime.Event{
		EventType: change.Type,
		Table:     change.Table,
		New:       change.Record,
		Old:       change.OldRecord,
	})

	h.jsonResponse(w, map[string]string{"message": "ok"}, http.StatusOK)
}
