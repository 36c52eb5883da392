// Package auth provides authentication services
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/okeamah/portal/internal/models"
)

// Keys used in the device store
const (
	SessionKey  = "userSession"
	RememberKey = "rememberUser"
)

// MinPasswordLength is enforced before any backend is contacted
const MinPasswordLength = 8

// Backend is an identity provider the Facade can delegate to
type Backend interface {
	Name() string
	SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.User, models.TokenPair, error)
	SignIn(ctx context.Context, email, password string) (*models.User, models.TokenPair, error)
	SignOut(ctx context.Context, tokens models.TokenPair) error
	// CurrentUser resolves tokens to a user; nil when the backend no longer accepts them
	CurrentUser(ctx context.Context, tokens models.TokenPair) (*models.User, error)
}

// Store is the device-local key/value storage holding the cached session
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Facade exposes one authentication capability set over whichever backend was
// selected at startup, caching the session in the device store
type Facade struct {
	backend Backend
	store   Store
	maxAge  time.Duration
	now     func() time.Time
}

// NewFacade creates a facade; maxAge is the freshness window of cached sessions
func NewFacade(backend Backend, store Store, maxAge time.Duration) *Facade {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &Facade{
		backend: backend,
		store:   store,
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// SetClock replaces the facade's time source
func (f *Facade) SetClock(now func() time.Time) {
	f.now = now
}

// Backend returns the active backend
func (f *Facade) Backend() Backend {
	return f.backend
}

// SignUp creates an account and caches the resulting session
func (f *Facade) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.Session, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, wrap("sign up", err)
	}

	user, tokens, err := f.backend.SignUp(ctx, email, password, profile)
	if err != nil {
		log.Printf("auth: sign up via %s failed: %v", f.backend.Name(), err)
		return nil, wrap("sign up", err)
	}

	session := models.NewSession(*user, tokens, f.now())
	if session.FirstName == "" {
		session.FirstName = profile.FirstName
		session.LastName = profile.LastName
		session.Phone = profile.Phone
	}
	if err := f.saveSession(session); err != nil {
		return nil, wrap("sign up", err)
	}
	return session, nil
}

// SignIn authenticates with email and password and caches the resulting session
func (f *Facade) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, wrap("sign in", fmt.Errorf("%w: email and password required", ErrInvalidInput))
	}

	user, tokens, err := f.backend.SignIn(ctx, email, password)
	if err != nil {
		log.Printf("auth: sign in via %s failed: %v", f.backend.Name(), err)
		return nil, wrap("sign in", err)
	}

	session := models.NewSession(*user, tokens, f.now())
	if err := f.saveSession(session); err != nil {
		return nil, wrap("sign in", err)
	}
	return session, nil
}

// SignOut ends the session at the backend and always clears the cached
// session, even when the backend call fails
func (f *Facade) SignOut(ctx context.Context) error {
	var tokens models.TokenPair
	if session, err := f.loadSession(); err == nil && session != nil {
		tokens = session.Tokens
	}

	backendErr := f.backend.SignOut(ctx, tokens)
	if backendErr != nil {
		log.Printf("auth: sign out via %s failed: %v", f.backend.Name(), backendErr)
	}

	if err := f.store.Delete(SessionKey); err != nil {
		return wrap("sign out", err)
	}
	if err := f.store.Delete(RememberKey); err != nil {
		return wrap("sign out", err)
	}

	return wrap("sign out", backendErr)
}

// GetUser returns the current user: a fresh cached session wins, otherwise
// the backend is asked. A nil user with a nil error means nobody is signed in.
func (f *Facade) GetUser(ctx context.Context) (*models.User, error) {
	session, err := f.loadSession()
	if err != nil {
		return nil, wrap("get user", err)
	}
	if session != nil && session.IsFresh(f.now(), f.maxAge) {
		user := session.User
		return &user, nil
	}

	var tokens models.TokenPair
	if session != nil {
		tokens = session.Tokens
	}
	user, err := f.backend.CurrentUser(ctx, tokens)
	if err != nil {
		return nil, wrap("get user", err)
	}
	return user, nil
}

// GetSession returns the current session with the same preference order as GetUser.
// An expired cached session is only returned when the backend still accepts its tokens.
func (f *Facade) GetSession(ctx context.Context) (*models.Session, error) {
	session, err := f.loadSession()
	if err != nil {
		return nil, wrap("get session", err)
	}
	if session == nil {
		return nil, nil
	}
	if session.IsFresh(f.now(), f.maxAge) {
		return session, nil
	}

	user, err := f.backend.CurrentUser(ctx, session.Tokens)
	if err != nil {
		return nil, wrap("get session", err)
	}
	if user == nil {
		return nil, nil
	}
	session.User = *user
	return session, nil
}

// IsAuthenticated reports whether GetUser finds a user
func (f *Facade) IsAuthenticated(ctx context.Context) bool {
	user, err := f.GetUser(ctx)
	return err == nil && user != nil
}

// Remember stores the email to prefill the sign-in form
func (f *Facade) Remember(email string) error {
	return wrap("remember", f.store.Set(RememberKey, normalizeEmail(email)))
}

// RememberedEmail returns the email saved by Remember, or ""
func (f *Facade) RememberedEmail() string {
	email, _, err := f.store.Get(RememberKey)
	if err != nil {
		return ""
	}
	return email
}

func (f *Facade) loadSession() (*models.Session, error) {
	raw, ok, err := f.store.Get(SessionKey)
	if err != nil || !ok {
		return nil, err
	}
	var session models.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("%w: malformed cached session: %v", ErrInvalidToken, err)
	}
	return &session, nil
}

func (f *Facade) saveSession(session *models.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return f.store.Set(SessionKey, string(raw))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}
