package session

// State is the session manager's lifecycle state. All transitions happen
// under the manager's lock; there are no independent boolean guards.
type State int

const (
	// StateLoggedOut means no session exists locally.
	StateLoggedOut State = iota

	// StateAuthenticating means a login or register exchange is in flight.
	StateAuthenticating

	// StateAuthenticated means a session is established and usable.
	StateAuthenticated

	// StateRefreshing means a token refresh is in flight. At most one
	// refresh runs at a time; a second call observing this state fails
	// fast instead of queueing.
	StateRefreshing

	// StateExpiring means terminal cleanup is running.
	StateExpiring
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	case StateExpiring:
		return "expiring"
	default:
		return "unknown"
	}
}
