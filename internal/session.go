package internal

import "sync"

// SessionState is the login state of a Session.
type SessionState int

const (
	LoggedOut SessionState = iota
	LoggedIn
)

func (s SessionState) String() string {
	if s == LoggedIn {
		return "logged in"
	}
	return "logged out"
}

// Session holds the bearer token for the lifetime of the process. The token
// is kept in memory only and is forwarded verbatim; it is never validated.
type Session struct {
	mu       sync.RWMutex
	state    SessionState
	token    string
	onChange []func(SessionState)
}

// NewSession returns a logged-out session.
func NewSession() *Session {
	return &Session{}
}

// Login stores token and moves the session to LoggedIn. Any string is accepted,
// including the empty string.
func (s *Session) Login(token string) {
	s.mu.Lock()
	s.token = token
	s.state = LoggedIn
	hooks := s.onChange
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(LoggedIn)
	}
}

// Logout forgets the token and moves the session to LoggedOut.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.state = LoggedOut
	hooks := s.onChange
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(LoggedOut)
	}
}

// State returns the current login state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LoggedIn reports whether a token has been supplied.
func (s *Session) LoggedIn() bool {
	return s.State() == LoggedIn
}

// Token returns the current bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// OnChange registers fn to be called after every transition.
func (s *Session) OnChange(fn func(SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}
