// Package session owns the client-side session lifecycle for the account
// API: credential acquisition, proactive token refresh, the absolute session
// ceiling, and the authenticated request path with centralized
// expired-session handling.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/horizonetudes/authclient/internal/api"
	"github.com/horizonetudes/authclient/internal/models"
	"github.com/horizonetudes/authclient/internal/password"
	"github.com/horizonetudes/authclient/internal/store"
)

// Navigation hints returned by Login and Register.
const (
	AdminDashboardPath = "/admin/dashboard"
	HomePath           = "/"
	LoginPath          = "/login"
)

// ErrAuthInProgress is returned when a login or register is attempted while
// another one is already in flight.
var ErrAuthInProgress = errors.New("authentication already in progress")

// defaultTokenLifetime is assumed when neither the token nor the server
// declares an expiry.
const defaultTokenLifetime = 15 * time.Minute

// Config tunes the session lifecycle timers.
type Config struct {
	// PreventiveWindow is the lead time before token expiry at which a
	// proactive refresh is attempted.
	PreventiveWindow time.Duration
	// GraceWindow is how far past expiry a token may be before CheckAuth
	// treats it as stale.
	GraceWindow time.Duration
	// MinRefreshDelay is the floor on the scheduled refresh delay.
	MinRefreshDelay time.Duration
	// RefreshSpacing is the minimum time between two refresh calls. A call
	// arriving sooner is a no-op failure.
	RefreshSpacing time.Duration
	// MaxRefreshAttempts bounds consecutive failed refreshes before the
	// session is forcibly expired.
	MaxRefreshAttempts int
	// MaxSessionDuration is the absolute session ceiling, enforced
	// independently of token refresh.
	MaxSessionDuration time.Duration
	// WatchdogPeriod is how often the ceiling is checked.
	WatchdogPeriod time.Duration
	// RecencyWindow is how long a CheckAuth result stays fresh; a second
	// call inside the window does no network work.
	RecencyWindow time.Duration
	// RetryBackoffInitial seeds the exponential backoff between failed
	// scheduled refreshes.
	RetryBackoffInitial time.Duration
}

// DefaultConfig returns the production lifecycle configuration.
func DefaultConfig() Config {
	return Config{
		PreventiveWindow:    2 * time.Minute,
		GraceWindow:         30 * time.Second,
		MinRefreshDelay:     30 * time.Second,
		RefreshSpacing:      30 * time.Second,
		MaxRefreshAttempts:  3,
		MaxSessionDuration:  30 * time.Minute,
		WatchdogPeriod:      30 * time.Second,
		RecencyWindow:       30 * time.Second,
		RetryBackoffInitial: 2 * time.Second,
	}
}

// Manager is the session manager. All state lives behind one mutex and moves
// through the State machine; timers are owned resources released by a single
// disposer on every terminal transition.
type Manager struct {
	cfg    Config
	client *api.Client
	store  *store.Store
	log    zerolog.Logger

	onExpired func(reason string)

	mu              sync.Mutex
	state           State
	user            *models.User
	token           models.TokenPair
	sessionStart    time.Time
	lastRefresh     time.Time
	lastChecked     time.Time
	refreshAttempts int
	loading         bool
	nextRefreshAt   time.Time

	// spacing enforces the minimum inter-refresh interval; retryBackoff
	// spaces retries after a failed scheduled refresh.
	spacing      *rate.Limiter
	retryBackoff *backoff.ExponentialBackOff

	refreshTimer *time.Timer
	watchdogStop chan struct{}

	// notifyExpired is replaced at each session establishment so the
	// expired notice fires at most once per session.
	notifyExpired *sync.Once
}

// NewManager creates a session manager. The store may be nil for fully
// in-memory sessions.
func NewManager(client *api.Client, st *store.Store, cfg Config, logger zerolog.Logger) *Manager {
	if cfg.MaxRefreshAttempts <= 0 {
		cfg.MaxRefreshAttempts = DefaultConfig().MaxRefreshAttempts
	}
	if cfg.RetryBackoffInitial <= 0 {
		cfg.RetryBackoffInitial = DefaultConfig().RetryBackoffInitial
	}

	return &Manager{
		cfg:          cfg,
		client:       client,
		store:        st,
		log:          logger,
		spacing:      rate.NewLimiter(rate.Every(cfg.RefreshSpacing), 1),
		retryBackoff: newRetryBackoff(cfg),
		state:        StateLoggedOut,
	}
}

// newRetryBackoff builds the interval sequence used between failed scheduled
// refreshes. The backoff is stateful, so a fresh one is built whenever the
// attempt counter resets.
func newRetryBackoff(cfg Config) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.RetryBackoffInitial
	b.MaxInterval = 30 * time.Second
	return b
}

// OnSessionExpired registers the one-time notice handler invoked when the
// session ends involuntarily (ceiling, refresh exhaustion, flagged 401).
// The handler should surface the notice and send the user to LoginPath.
func (m *Manager) OnSessionExpired(fn func(reason string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpired = fn
}

// User returns the current profile, or nil when logged out.
func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// IsAuthenticated reports whether a session is established. By invariant
// this is exactly "a profile is present" — never an independent flag.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Loading reports whether the initial session restore is still resolving.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// NextRefreshAt returns when the scheduler will next attempt a refresh, or
// the zero time when none is armed.
func (m *Manager) NextRefreshAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refreshTimer == nil {
		return time.Time{}
	}
	return m.nextRefreshAt
}

// Start restores a persisted session, enforcing the ceiling against the
// persisted start time before trusting it, then reconciles with the server.
// Loading reports true until Start returns.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	if m.store == nil {
		return nil
	}

	ps, err := m.store.Load()
	if err != nil {
		if !errors.Is(err, store.ErrNoSession) {
			m.log.Warn().Err(err).Msg("discarding unreadable persisted session")
			_ = m.store.Clear()
		}
		return nil
	}

	if time.Since(ps.SessionStartedAt) >= m.cfg.MaxSessionDuration {
		m.log.Info().Time("started", ps.SessionStartedAt).Msg("persisted session past ceiling, discarding")
		return m.store.Clear()
	}

	m.mu.Lock()
	m.user = ps.User
	m.sessionStart = ps.SessionStartedAt
	m.lastRefresh = ps.LastRefreshAt
	m.state = StateAuthenticated
	m.notifyExpired = &sync.Once{}
	m.startWatchdogLocked()
	m.mu.Unlock()

	m.log.Debug().Str("email", ps.User.Email).Msg("session restored, reconciling with server")

	// No access token survives a restart; CheckAuth takes the stale-token
	// branch and attempts a refresh, soft-failing on error.
	return m.CheckAuth(ctx)
}

// Login performs one credential exchange. On success the session is
// established and the navigation hint returned; on any failure no session
// state is touched.
func (m *Manager) Login(ctx context.Context, email, pass string) (*models.User, string, error) {
	m.mu.Lock()
	if m.state == StateAuthenticating {
		m.mu.Unlock()
		return nil, "", ErrAuthInProgress
	}
	prev := m.state
	m.state = StateAuthenticating
	m.mu.Unlock()

	result, err := m.client.Login(ctx, email, pass)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = prev
		return nil, "", err
	}

	m.establishLocked(result.User, result.AccessToken, result.ExpiresIn)
	m.log.Info().Str("email", result.User.Email).Str("role", string(result.User.Role)).Msg("logged in")

	return result.User, redirectPath(result.User), nil
}

// Register creates an account and establishes the session in one exchange,
// with the same no-partial-session guarantee as Login. The password is
// checked against the local policy first to fail fast.
func (m *Manager) Register(ctx context.Context, reg api.Registration) (*models.User, string, error) {
	if err := password.Validate(reg.Password); err != nil {
		return nil, "", err
	}

	m.mu.Lock()
	if m.state == StateAuthenticating {
		m.mu.Unlock()
		return nil, "", ErrAuthInProgress
	}
	prev := m.state
	m.state = StateAuthenticating
	m.mu.Unlock()

	result, err := m.client.Register(ctx, reg)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = prev
		return nil, "", err
	}

	m.establishLocked(result.User, result.AccessToken, result.ExpiresIn)
	m.log.Info().Str("email", result.User.Email).Msg("registered")

	return result.User, redirectPath(result.User), nil
}

func redirectPath(u *models.User) string {
	if u.IsAdmin() {
		return AdminDashboardPath
	}
	return HomePath
}

// establishLocked installs a fresh session: previous timers are released
// first so a re-login can never leak a duplicate timer.
func (m *Manager) establishLocked(u *models.User, accessToken string, expiresIn int) {
	m.disposeLocked()

	m.user = u
	m.token = models.TokenPair{
		AccessToken: accessToken,
		ExpiresAt:   resolveExpiry(accessToken, expiresIn),
	}
	m.sessionStart = time.Now()
	m.lastRefresh = time.Time{}
	m.lastChecked = time.Time{}
	m.refreshAttempts = 0
	m.notifyExpired = &sync.Once{}
	m.spacing = rate.NewLimiter(rate.Every(m.cfg.RefreshSpacing), 1)
	m.retryBackoff = newRetryBackoff(m.cfg)
	m.state = StateAuthenticated

	m.persistLocked()
	m.armRefreshLocked()
	m.startWatchdogLocked()
}

// resolveExpiry prefers the token's own exp claim, falls back to the
// server-declared lifetime, then to the default.
func resolveExpiry(accessToken string, expiresIn int) time.Time {
	if accessToken != "" {
		if exp, err := tokenExpiry(accessToken); err == nil {
			return exp
		}
	}
	if expiresIn > 0 {
		return time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return time.Now().Add(defaultTokenLifetime)
}

// persistLocked writes the durable slice of the session. A write failure is
// logged and tolerated: the in-memory session stays usable.
func (m *Manager) persistLocked() {
	if m.store == nil || m.user == nil {
		return
	}
	err := m.store.Save(&store.PersistedSession{
		User:             m.user,
		SessionStartedAt: m.sessionStart,
		LastRefreshAt:    m.lastRefresh,
	})
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to persist session")
	}
}

// CheckAuth reconciles local belief with server truth. Safe to call
// concurrently with the scheduler: an in-flight refresh or a fresh recent
// check makes it a no-op. A failed refresh here is a soft-fail — a transient
// network fault must not evict a user.
func (m *Manager) CheckAuth(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return nil
	}
	if time.Since(m.lastChecked) < m.cfg.RecencyWindow {
		m.mu.Unlock()
		return nil
	}
	m.lastChecked = time.Now()
	token := m.token
	hasProfile := m.user != nil
	m.mu.Unlock()

	untilExpiry := time.Until(token.ExpiresAt)
	switch {
	case token.AccessToken == "" || untilExpiry < -m.cfg.GraceWindow:
		if !m.refresh(ctx) {
			m.log.Warn().Msg("stale token refresh failed, leaving session for this pass")
		}
	case untilExpiry <= m.cfg.PreventiveWindow:
		m.refresh(ctx)
	case !hasProfile:
		return m.fetchProfile(ctx)
	}
	return nil
}

// fetchProfile pulls the profile from the validate endpoint and caches it.
func (m *Manager) fetchProfile(ctx context.Context) error {
	m.mu.Lock()
	token := m.token.AccessToken
	m.mu.Unlock()

	user, err := m.client.Me(ctx, token)
	if err != nil {
		if errors.Is(err, api.ErrSessionExpired) {
			m.forceExpire("session expired")
		}
		return err
	}

	m.mu.Lock()
	if m.state == StateAuthenticated {
		m.user = user
		m.persistLocked()
	}
	m.mu.Unlock()
	return nil
}

// Do is the authenticated request wrapper: attaches the bearer credential,
// performs the request, and centralizes expired-session handling. A 401 the
// server flags as terminal clears the session exactly once and returns the
// api.ErrSessionExpired sentinel, which callers must not retry. Every other
// error passes through with the session intact.
func (m *Manager) Do(ctx context.Context, method, path string, body, out any) error {
	m.mu.Lock()
	token := m.token.AccessToken
	m.mu.Unlock()

	err := m.client.Do(ctx, method, path, token, body, out)
	if errors.Is(err, api.ErrSessionExpired) {
		m.forceExpire("session expired")
		return api.ErrSessionExpired
	}
	return err
}

// Logout notifies the server best-effort, then unconditionally clears local
// state. Cleanup runs even when the server call fails, and no expired
// notice is raised for a voluntary logout.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	token := m.token.AccessToken
	active := m.state != StateLoggedOut
	m.mu.Unlock()

	if active && token != "" {
		if err := m.client.Logout(ctx, token); err != nil {
			m.log.Warn().Err(err).Msg("server logout failed, proceeding with local cleanup")
		}
	}

	m.mu.Lock()
	m.state = StateExpiring
	m.disposeLocked()
	m.clearLocked()
	m.state = StateLoggedOut
	m.mu.Unlock()

	m.log.Info().Msg("logged out")
	return nil
}

// LogoutAll invalidates every session server-side. Requires the admin role;
// it does not replace Logout's local-cleanup guarantee.
func (m *Manager) LogoutAll(ctx context.Context) (*api.LogoutAllStats, error) {
	m.mu.Lock()
	token := m.token.AccessToken
	admin := m.user.IsAdmin()
	m.mu.Unlock()

	if !admin {
		return nil, api.ErrPermissionDenied
	}
	return m.client.LogoutAll(ctx, token)
}

// ForgotPassword triggers the reset-email dispatch. Stateless relative to
// the session.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	return m.client.ForgotPassword(ctx, email)
}

// ResetPassword validates the new credential against the local policy
// mirror before the round trip; the server remains the authority.
func (m *Manager) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if err := password.Validate(newPassword); err != nil {
		return err
	}
	return m.client.ResetPassword(ctx, resetToken, newPassword)
}

// forceExpire is the involuntary terminal transition: release timers, clear
// all state, fire the one-time expired notice. Concurrent callers collapse
// into a single cleanup.
func (m *Manager) forceExpire(reason string) {
	m.mu.Lock()
	if m.state == StateLoggedOut || m.state == StateExpiring {
		m.mu.Unlock()
		return
	}
	m.state = StateExpiring
	m.disposeLocked()
	m.clearLocked()
	once := m.notifyExpired
	handler := m.onExpired
	m.state = StateLoggedOut
	m.mu.Unlock()

	m.log.Info().Str("reason", reason).Msg("session expired")

	if once != nil && handler != nil {
		once.Do(func() { handler(reason) })
	}
}

// clearLocked wipes in-memory and persisted state together.
func (m *Manager) clearLocked() {
	m.user = nil
	m.token = models.TokenPair{}
	m.sessionStart = time.Time{}
	m.lastRefresh = time.Time{}
	m.lastChecked = time.Time{}
	m.refreshAttempts = 0
	if m.store != nil {
		if err := m.store.Clear(); err != nil {
			m.log.Warn().Err(err).Msg("failed to clear persisted session")
		}
	}
}
