// Okeamah investor portal
// Entry point for the web server
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/okeamah/portal/internal/app"
	"github.com/okeamah/portal/internal/config"
	"github.com/okeamah/portal/internal/handlers"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Open databases and pick the identity backend
	a, err := app.Open(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	// Initialize handlers
	h, err := handlers.New(cfg, a.Devices, a.Investments, a.Hub, a.DB)
	if err != nil {
		log.Fatalf("Failed to initialize handlers: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Okeamah portal starting on http://localhost%s", addr)
	log.Printf("Environment: %s", cfg.Environment)

	// No write timeout: the dashboard stream stays open
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
