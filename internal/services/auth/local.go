package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/okeamah/portal/internal/models"
	"github.com/okeamah/portal/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// LocalBackend is the fallback identity provider used when no remote
// service is configured. Accounts live in the local database.
type LocalBackend struct {
	users    *storage.UserRepository
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	random   io.Reader
}

// NewLocalBackend creates a local backend signing access tokens with secretKey
func NewLocalBackend(users *storage.UserRepository, secretKey string, tokenTTL time.Duration) *LocalBackend {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &LocalBackend{
		users:    users,
		secret:   []byte(secretKey),
		tokenTTL: tokenTTL,
		now:      time.Now,
		random:   rand.Reader,
	}
}

// Name identifies the backend in logs
func (b *LocalBackend) Name() string { return "local" }

// SignUp registers a new account
func (b *LocalBackend) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.User, models.TokenPair, error) {
	exists, err := b.users.EmailExists(email)
	if err != nil {
		return nil, models.TokenPair{}, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, models.TokenPair{}, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	// Local accounts have no confirmation mail; they count as confirmed immediately
	now := b.now().UTC()
	rec := &storage.UserRecord{
		User: models.User{
			ID:               uuid.NewString(),
			Email:            email,
			EmailConfirmedAt: &now,
			Profile:          profile,
		},
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := b.users.Create(rec); err != nil {
		return nil, models.TokenPair{}, err
	}

	tokens, err := b.issueTokens(&rec.User)
	if err != nil {
		return nil, models.TokenPair{}, err
	}
	return &rec.User, tokens, nil
}

// SignIn verifies the password of an existing account
func (b *LocalBackend) SignIn(ctx context.Context, email, password string) (*models.User, models.TokenPair, error) {
	rec, err := b.users.GetByEmail(email)
	if err != nil {
		return nil, models.TokenPair{}, fmt.Errorf("failed to find user: %w", err)
	}
	if rec == nil {
		return nil, models.TokenPair{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return nil, models.TokenPair{}, ErrInvalidCredentials
	}

	tokens, err := b.issueTokens(&rec.User)
	if err != nil {
		return nil, models.TokenPair{}, err
	}
	return &rec.User, tokens, nil
}

// SignOut has nothing to revoke: local tokens are stateless
func (b *LocalBackend) SignOut(ctx context.Context, tokens models.TokenPair) error {
	return nil
}

// CurrentUser validates a locally issued access token and reloads its user
func (b *LocalBackend) CurrentUser(ctx context.Context, tokens models.TokenPair) (*models.User, error) {
	if tokens.AccessToken == "" {
		return nil, nil
	}

	userID, err := b.validateToken(tokens.AccessToken)
	if err != nil {
		return nil, nil
	}

	rec, err := b.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	return &rec.User, nil
}

func (b *LocalBackend) issueTokens(user *models.User) (models.TokenPair, error) {
	jti, err := b.randomToken(16)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := b.randomToken(32)
	if err != nil {
		return models.TokenPair{}, err
	}

	now := b.now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   now.Add(b.tokenTTL).Unix(),
		"iat":   now.Unix(),
		"jti":   jti,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(b.secret)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to create token: %w", err)
	}

	return models.TokenPair{
		AccessToken:  signed,
		RefreshToken: refresh,
	}, nil
}

func (b *LocalBackend) validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return b.secret, nil
	}, jwt.WithTimeFunc(b.now))
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	userID, err := claims.GetSubject()
	if err != nil || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func (b *LocalBackend) randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.random, buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
