package websocket

// SessionState is where a connection sits in its lifecycle
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session is the per-connection state the dispatcher works on. It is only
// touched from the goroutine that reads the connection, so it carries no
// lock.
type Session struct {
	conn   Conn
	userID uint
	state  SessionState
}

func NewSession(conn Conn) *Session {
	return &Session{conn: conn, state: StateUnauthenticated}
}

func (s *Session) Conn() Conn {
	return s.conn
}

// UserID returns the attached identity, if any
func (s *Session) UserID() (uint, bool) {
	return s.userID, s.state == StateAuthenticated
}

func (s *Session) State() SessionState {
	return s.state
}
