package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okeamah/portal/internal/models"
	"github.com/okeamah/portal/internal/storage"
)

func newTestLocalBackend(t *testing.T) *LocalBackend {
	t.Helper()
	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return NewLocalBackend(storage.NewUserRepository(db), "test-secret", time.Hour)
}

func TestLocalBackend_SignUpAndSignIn(t *testing.T) {
	b := newTestLocalBackend(t)
	ctx := context.Background()

	user, tokens, err := b.SignUp(ctx, "ada@example.com", "password123", models.Profile{FirstName: "Ada"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if user.ID == "" {
		t.Error("Expected user ID to be generated")
	}
	if user.EmailConfirmedAt == nil {
		t.Error("Expected local accounts to be confirmed")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Error("Expected a token pair")
	}

	signedIn, _, err := b.SignIn(ctx, "ada@example.com", "password123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if signedIn.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, signedIn.ID)
	}
	if signedIn.Profile.FirstName != "Ada" {
		t.Errorf("Expected first name Ada, got %q", signedIn.Profile.FirstName)
	}
}

func TestLocalBackend_DuplicateEmail(t *testing.T) {
	b := newTestLocalBackend(t)
	ctx := context.Background()

	b.SignUp(ctx, "ada@example.com", "password123", models.Profile{})
	_, _, err := b.SignUp(ctx, "ada@example.com", "password456", models.Profile{})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got %v", err)
	}
}

func TestLocalBackend_WrongPassword(t *testing.T) {
	b := newTestLocalBackend(t)
	ctx := context.Background()

	b.SignUp(ctx, "ada@example.com", "password123", models.Profile{})

	if _, _, err := b.SignIn(ctx, "ada@example.com", "nope-nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := b.SignIn(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestLocalBackend_CurrentUser(t *testing.T) {
	b := newTestLocalBackend(t)
	ctx := context.Background()

	user, tokens, _ := b.SignUp(ctx, "ada@example.com", "password123", models.Profile{})

	current, err := b.CurrentUser(ctx, tokens)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if current == nil || current.ID != user.ID {
		t.Errorf("Expected current user %s, got %+v", user.ID, current)
	}

	if u, _ := b.CurrentUser(ctx, models.TokenPair{AccessToken: "garbage"}); u != nil {
		t.Error("Expected no user for a garbage token")
	}
	if u, _ := b.CurrentUser(ctx, models.TokenPair{}); u != nil {
		t.Error("Expected no user without a token")
	}

	// Token expires after the TTL
	b.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if u, _ := b.CurrentUser(ctx, tokens); u != nil {
		t.Error("Expected no user for an expired token")
	}
}

func TestLocalBackend_TokenFromOtherSecret(t *testing.T) {
	b := newTestLocalBackend(t)
	ctx := context.Background()
	_, tokens, _ := b.SignUp(ctx, "ada@example.com", "password123", models.Profile{})

	b.secret = []byte("another-secret")
	if u, _ := b.CurrentUser(ctx, tokens); u != nil {
		t.Error("Expected token signed with another secret to be rejected")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestLocalBackend_TokenGenerationFailure(t *testing.T) {
	b := newTestLocalBackend(t)
	ctx := context.Background()

	if _, _, err := b.SignUp(ctx, "ada@example.com", "password123", models.Profile{}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	b.random = failingReader{}
	_, tokens, err := b.SignIn(ctx, "ada@example.com", "password123")
	if err == nil {
		t.Fatal("Expected an error when random bytes are unavailable")
	}
	if tokens.AccessToken != "" || tokens.RefreshToken != "" {
		t.Errorf("Expected no tokens, got %+v", tokens)
	}
}
