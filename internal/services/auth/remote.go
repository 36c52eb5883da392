package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okeamah/portal/internal/models"
)

// RemoteBackend talks to the Supabase identity service (GoTrue REST API)
type RemoteBackend struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewRemoteBackend creates a backend for the project at baseURL
func NewRemoteBackend(baseURL, anonKey string) *RemoteBackend {
	return &RemoteBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name identifies the backend in logs
func (b *RemoteBackend) Name() string { return "supabase" }

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// When email confirmation is pending, sign-up answers with the bare user
type signUpResponse struct {
	tokenResponse
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	Profile          models.Profile `json:"user_metadata"`
}

type apiError struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *apiError) message() string {
	for _, m := range []string{e.Msg, e.ErrorDescription, e.ErrorName, e.ErrorCode} {
		if m != "" {
			return m
		}
	}
	return "unknown error"
}

// SignUp registers a new account with the identity service
func (b *RemoteBackend) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.User, models.TokenPair, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     profile,
	}

	var resp signUpResponse
	if err := b.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &resp); err != nil {
		return nil, models.TokenPair{}, err
	}

	user := resp.User
	if user == nil {
		user = &models.User{
			ID:               resp.ID,
			Email:            resp.Email,
			EmailConfirmedAt: resp.EmailConfirmedAt,
			Profile:          resp.Profile,
		}
	}
	if user.ID == "" {
		return nil, models.TokenPair{}, fmt.Errorf("%w: sign-up response has no user", ErrBackendUnavailable)
	}

	return user, models.TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

// SignIn exchanges email and password for a token pair
func (b *RemoteBackend) SignIn(ctx context.Context, email, password string) (*models.User, models.TokenPair, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp tokenResponse
	if err := b.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &resp); err != nil {
		return nil, models.TokenPair{}, err
	}
	if resp.User == nil || resp.AccessToken == "" {
		return nil, models.TokenPair{}, fmt.Errorf("%w: token response has no session", ErrBackendUnavailable)
	}

	return resp.User, models.TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

// SignOut revokes the refresh tokens behind the access token
func (b *RemoteBackend) SignOut(ctx context.Context, tokens models.TokenPair) error {
	if tokens.AccessToken == "" {
		return nil
	}
	return b.do(ctx, http.MethodPost, "/auth/v1/logout", tokens.AccessToken, nil, nil)
}

// CurrentUser asks the identity service who owns the access token
func (b *RemoteBackend) CurrentUser(ctx context.Context, tokens models.TokenPair) (*models.User, error) {
	if tokens.AccessToken == "" {
		return nil, nil
	}

	var user models.User
	err := b.do(ctx, http.MethodGet, "/auth/v1/user", tokens.AccessToken, nil, &user)
	if err != nil {
		if isRejected(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// do performs one request; 4xx answers map to credential errors, everything
// else that fails maps to ErrBackendUnavailable
func (b *RemoteBackend) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", b.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer == "" {
		bearer = b.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr apiError
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return classify(resp.StatusCode, &apiErr)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrBackendUnavailable, err)
	}
	return nil
}

type rejectedError struct {
	status int
	msg    string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("identity service rejected request (%d): %s", e.status, e.msg)
}

func isRejected(err error) bool {
	_, ok := err.(*rejectedError)
	return ok
}

func classify(status int, apiErr *apiError) error {
	msg := apiErr.message()
	lower := strings.ToLower(msg)

	switch {
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrBackendUnavailable, status, msg)
	case apiErr.ErrorCode == "user_already_exists" || strings.Contains(lower, "already registered"):
		return ErrEmailExists
	case status == http.StatusBadRequest && (apiErr.ErrorName == "invalid_grant" || strings.Contains(lower, "invalid login credentials")):
		return ErrInvalidCredentials
	case status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &rejectedError{status: status, msg: msg}
	default:
		return fmt.Errorf("%w: status %d: %s", ErrInvalidCredentials, status, msg)
	}
}
