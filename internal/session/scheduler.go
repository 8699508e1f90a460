package session

import (
	"context"
	"time"
)

// refresh performs one token refresh. Single-flight: a call overlapping an
// in-flight refresh, or arriving before the minimum spacing has elapsed,
// returns false immediately without a network call. refresh never returns an
// error — it resolves false on any failure so the scheduler's retry logic
// stays in one place.
func (m *Manager) refresh(ctx context.Context) bool {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return false
	}
	if !m.spacing.Allow() {
		m.mu.Unlock()
		m.log.Debug().Msg("refresh suppressed, minimum spacing not elapsed")
		return false
	}
	m.state = StateRefreshing
	m.mu.Unlock()

	result, err := m.client.Refresh(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Logout or forced expiry won the race while the exchange was in
	// flight; the new token must not resurrect the session.
	if m.state != StateRefreshing {
		return false
	}

	if err != nil {
		m.refreshAttempts++
		m.state = StateAuthenticated
		m.log.Warn().Err(err).Int("attempts", m.refreshAttempts).Msg("token refresh failed")
		return false
	}

	m.token.AccessToken = result.AccessToken
	m.token.ExpiresAt = resolveExpiry(result.AccessToken, result.ExpiresIn)
	m.refreshAttempts = 0
	m.lastRefresh = time.Now()
	m.retryBackoff = newRetryBackoff(m.cfg)
	m.state = StateAuthenticated

	m.persistLocked()
	m.armRefreshLocked()

	m.log.Debug().Time("expiresAt", m.token.ExpiresAt).Msg("token refreshed")
	return true
}

// armRefreshLocked schedules the next proactive refresh for
// max(MinRefreshDelay, timeUntilExpiry − PreventiveWindow), replacing any
// previously armed timer.
func (m *Manager) armRefreshLocked() {
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
	}

	delay := time.Until(m.token.ExpiresAt) - m.cfg.PreventiveWindow
	if delay < m.cfg.MinRefreshDelay {
		delay = m.cfg.MinRefreshDelay
	}

	m.nextRefreshAt = time.Now().Add(delay)
	m.refreshTimer = time.AfterFunc(delay, m.onRefreshTimer)

	m.log.Debug().Dur("delay", delay).Msg("refresh scheduled")
}

// onRefreshTimer runs when the scheduled refresh fires. A successful refresh
// re-arms the schedule itself; a failed one retries with backoff until the
// attempt budget is exhausted, at which point the session is forcibly
// expired.
func (m *Manager) onRefreshTimer() {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	if m.refreshAttempts >= m.cfg.MaxRefreshAttempts {
		m.mu.Unlock()
		m.forceExpire("session expired")
		return
	}
	m.mu.Unlock()

	if m.refresh(context.Background()) {
		return
	}

	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	if m.refreshAttempts >= m.cfg.MaxRefreshAttempts {
		m.mu.Unlock()
		m.forceExpire("session expired")
		return
	}
	delay := m.retryBackoff.NextBackOff()
	m.nextRefreshAt = time.Now().Add(delay)
	m.refreshTimer = time.AfterFunc(delay, m.onRefreshTimer)
	m.mu.Unlock()

	m.log.Debug().Dur("delay", delay).Msg("refresh retry scheduled")
}

// startWatchdogLocked launches the ceiling watchdog for the current session.
func (m *Manager) startWatchdogLocked() {
	if m.watchdogStop != nil {
		close(m.watchdogStop)
	}
	stop := make(chan struct{})
	m.watchdogStop = stop
	go m.watchdogLoop(stop)
}

// watchdogLoop enforces the absolute session ceiling. It is independent of
// and stricter than token refresh: even a session whose refreshes keep
// succeeding cannot outlive the ceiling.
func (m *Manager) watchdogLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(m.cfg.WatchdogPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			exceeded := !m.sessionStart.IsZero() &&
				time.Since(m.sessionStart) >= m.cfg.MaxSessionDuration
			m.mu.Unlock()
			if exceeded {
				m.forceExpire("session ceiling reached")
				return
			}
		case <-stop:
			return
		}
	}
}

// disposeLocked is the single disposer for the manager's timer resources.
// It runs on every terminal transition (logout, forced expiry) and before a
// new session is established, so no timer can fire for a dead session.
func (m *Manager) disposeLocked() {
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	m.nextRefreshAt = time.Time{}
	if m.watchdogStop != nil {
		close(m.watchdogStop)
		m.watchdogStop = nil
	}
}
