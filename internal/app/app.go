// Package app wires storage, the identity backend and the investment source
// shared by the web server and the command line client.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/okeamah/portal/internal/config"
	"github.com/okeamah/portal/internal/realtime"
	"github.com/okeamah/portal/internal/services/auth"
	"github.com/okeamah/portal/internal/services/investments"
	"github.com/okeamah/portal/internal/storage"
	"github.com/okeamah/portal/internal/supabase"
)

// connectTimeout bounds the initial reachability check of the remote database
const connectTimeout = 10 * time.Second

// App holds the process-wide services
type App struct {
	Config      *config.Config
	DB          *storage.DB
	Devices     *auth.Devices
	Investments *investments.Service
	Hub         *realtime.Hub

	closers []func()
}

// Open connects the databases and selects the identity backend. The backend
// choice is made here once and never revisited.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &App{
		Config:  cfg,
		DB:      db,
		Hub:     realtime.NewHub(),
		closers: []func(){func() { db.Close() }},
	}

	backend := NewBackend(cfg, db)
	log.Printf("Identity backend: %s", backend.Name())
	a.Devices = auth.NewDevices(backend, func(deviceID string) auth.Store {
		return storage.NewKV(db, storage.DeviceNamespace(deviceID))
	}, cfg.SessionDuration)

	var source investments.Source = storage.NewInvestmentRepository(db)
	if cfg.RemoteInvestmentsConfigured() {
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		store, err := supabase.Connect(ctx, cfg.InvestmentsDatabaseURL)
		cancel()
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		source = store
		log.Printf("Investments: supabase")
	} else {
		log.Printf("Investments: local")
	}
	a.Investments = investments.NewService(source, a.Hub)

	return a, nil
}

// NewBackend returns the remote backend when Supabase credentials are present
// and the local one otherwise
func NewBackend(cfg *config.Config, db *storage.DB) auth.Backend {
	if cfg.RemoteAuthConfigured() {
		return auth.NewRemoteBackend(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	}
	return auth.NewLocalBackend(storage.NewUserRepository(db), cfg.SecretKey, cfg.SessionDuration)
}

// Close releases every connection opened by Open, newest first
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
