package session

// State is the session lifecycle state
type State int

const (
	NoSession State = iota
	LoggingIn
	Registering
	Active
)

func (s State) String() string {
	switch s {
	case LoggingIn:
		return "logging_in"
	case Registering:
		return "registering"
	case Active:
		return "active"
	default:
		return "no_session"
	}
}

// Authenticating reports whether a login or registration is in flight
func (s State) Authenticating() bool {
	return s == LoggingIn || s == Registering
}
