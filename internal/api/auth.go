package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/horizonetudes/authclient/internal/models"
)

// AuthResult is returned by Login and Register.
type AuthResult struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	// ExpiresIn is the access token lifetime in seconds, when the server
	// declares it outside the token itself.
	ExpiresIn int `json:"expiresIn"`
}

// RefreshResult is returned by Refresh.
type RefreshResult struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expiresIn"`
}

// Registration is the sign-up payload.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Telephone string `json:"telephone,omitempty"`
}

// LogoutAllStats reports how many sessions a logout-all invalidated.
type LogoutAllStats struct {
	SessionsRevoked int `json:"sessionsRevoked"`
	UsersAffected   int `json:"usersAffected"`
}

// lockedCodePrefix marks the temporarily-locked login error; the suffix is
// the retry-after duration in hours.
const lockedCodePrefix = "COMPTE_TEMPORAIREMENT_DECONNECTE"

// Login exchanges credentials for a session. The refresh cookie is captured
// by the client's jar; the caller receives the profile and access token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, c.httpClient, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return nil, classifyLogin(err)
	}
	return &result, nil
}

// classifyLogin maps the login-specific server codes onto sentinel errors.
func classifyLogin(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	code := apiErr.Code
	switch {
	case code == "INVALID_CREDENTIALS":
		return ErrInvalidCredentials
	case code == "PASSWORD_RESET_REQUIRED":
		return ErrPasswordResetRequired
	case code == "COMPTE_DESACTIVE":
		return ErrAccountDisabled
	case code == "MAINTENANCE_MODE":
		return ErrMaintenance
	case strings.HasPrefix(code, lockedCodePrefix):
		retryAfter := time.Hour
		if _, suffix, ok := strings.Cut(code, ":"); ok {
			if hours, perr := strconv.Atoi(suffix); perr == nil && hours > 0 {
				retryAfter = time.Duration(hours) * time.Hour
			}
		}
		return &AccountLockedError{RetryAfter: retryAfter}
	}
	return err
}

// Register creates an account and establishes a session in one exchange.
// Validation failures come back as an *APIError with per-field messages.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, c.httpClient, http.MethodPost, "/api/auth/register", "", reg, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Refresh mints a new access token from the refresh cookie in the jar.
// A 401 here means the refresh credential itself is invalid or expired.
func (c *Client) Refresh(ctx context.Context) (*RefreshResult, error) {
	var result RefreshResult
	err := c.do(ctx, c.httpClient, http.MethodPost, "/api/auth/refresh", "", nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Me fetches the profile for the current session, validating the token
// server-side. Routed through the caching transport: the backend marks the
// response cacheable for a short window.
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := c.do(ctx, c.cachedClient, http.MethodGet, "/api/auth/me", token, nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout notifies the server that the session is ending. Best-effort by
// contract: callers run local cleanup regardless of the outcome here.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, c.httpClient, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

// LogoutAll invalidates every session server-side. Admin only; the server
// answers 403 otherwise.
func (c *Client) LogoutAll(ctx context.Context, token string) (*LogoutAllStats, error) {
	var out struct {
		Stats LogoutAllStats `json:"stats"`
	}
	err := c.do(ctx, c.httpClient, http.MethodPost, "/api/auth/logout-all", token, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out.Stats, nil
}

// ForgotPassword triggers the reset-email dispatch. The server answers with
// a generic success whether or not the account exists, and application
// errors are swallowed here for the same reason; only transport failures
// surface.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	err := c.do(ctx, c.httpClient, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": email,
	}, nil)
	if err == nil {
		return nil
	}
	if IsNetworkError(err) {
		return err
	}
	log.Debug().Err(err).Msg("forgot-password application error suppressed")
	return nil
}

// ResetPassword sets a new password using an emailed reset token. The server
// remains the authority on the policy and the token's validity.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	return c.do(ctx, c.httpClient, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token":       resetToken,
		"newPassword": newPassword,
	}, nil)
}
