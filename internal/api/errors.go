package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Sentinel errors
var (
	// ErrInvalidCredentials is returned when the email/password pair is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordResetRequired is returned when the server forces a password
	// reset before the account may log in.
	ErrPasswordResetRequired = errors.New("password reset required")

	// ErrAccountDisabled is returned for deactivated accounts.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrAccountLocked is returned for temporarily locked accounts. Use
	// errors.As with *AccountLockedError to read the retry-after duration.
	ErrAccountLocked = errors.New("account temporarily locked")

	// ErrMaintenance is returned while the backend is in maintenance mode.
	ErrMaintenance = errors.New("maintenance mode")

	// ErrSessionExpired is the unrecoverable-401 sentinel: the server flagged
	// the session as expired or force-logged-out. Callers must not retry;
	// the session manager clears local state exactly once.
	ErrSessionExpired = errors.New("session expired")

	// ErrUnauthenticated is returned for a 401 the server did not flag as a
	// terminal session expiry. The session is left intact; the caller may
	// retry after an explicit refresh.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrPermissionDenied is returned for 403 responses: the session is
	// valid, only the specific action is denied.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNetwork is returned when the request failed before an HTTP response
	// was parsed (DNS, connect, timeout). Never triggers session cleanup.
	ErrNetwork = errors.New("network error")
)

// APIError is a parsed application error body from the account API.
type APIError struct {
	Status  int
	Code    string
	Message string
	// Fields carries validation errors keyed by form field (register flow).
	Fields map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		return fmt.Sprintf("api error %d: %s", e.Status, strings.Join(parts, "; "))
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// AccountLockedError carries the retry-after duration the server states for
// temporarily locked accounts (COMPTE_TEMPORAIREMENT_DECONNECTE:<hours>).
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account temporarily locked, retry in %s", e.RetryAfter)
}

// Is reports ErrAccountLocked so callers can classify without the concrete type.
func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// IsNetworkError reports whether err is a transport failure rather than a
// parsed application error.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork)
}
