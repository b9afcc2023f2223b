package wheel

import (
	"errors"
	"sync"
)

var (
	ErrSpinInProgress    = errors.New("a spin is already in progress")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrAlreadySpun       = errors.New("user has already spun")
)

type State int

const (
	StateIdle State = iota
	StateCodeVerified
	StateSpinning
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCodeVerified:
		return "code_verified"
	case StateSpinning:
		return "spinning"
	case StateResolved:
		return "resolved"
	}
	return "unknown"
}

// Session tracks one kiosk interaction:
//
//	Idle -> CodeVerified -> Spinning -> Resolved -> (Reset) Idle
type Session struct {
	mu      sync.Mutex
	state   State
	userID  string
	hasSpun bool
	prizeID string
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// PrizeID is the prize the session resolved to, if any.
func (s *Session) PrizeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prizeID
}

// VerifyCode binds the session to the user looked up by code.
func (s *Session) VerifyCode(userID string, hasSpun bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle, StateCodeVerified:
	case StateSpinning:
		return ErrSpinInProgress
	default:
		return ErrInvalidTransition
	}
	s.state = StateCodeVerified
	s.userID = userID
	s.hasSpun = hasSpun
	s.prizeID = ""
	return nil
}

// BeginSpin enters Spinning. Only one spin may run at a time and only for a
// user that has not spun yet.
func (s *Session) BeginSpin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateSpinning:
		return ErrSpinInProgress
	case StateCodeVerified:
		if s.hasSpun {
			return ErrAlreadySpun
		}
		s.state = StateSpinning
		return nil
	case StateResolved:
		return ErrAlreadySpun
	}
	return ErrInvalidTransition
}

// Resolve records the server-confirmed prize and leaves Spinning.
func (s *Session) Resolve(prizeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSpinning {
		return ErrInvalidTransition
	}
	s.state = StateResolved
	s.hasSpun = true
	s.prizeID = prizeID
	return nil
}

// Abort returns a spin that never reached the server to CodeVerified.
// alreadySpun marks the user spent when the server said so.
func (s *Session) Abort(alreadySpun bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSpinning {
		return ErrInvalidTransition
	}
	s.state = StateCodeVerified
	if alreadySpun {
		s.hasSpun = true
	}
	return nil
}

// Reset clears the session for the next attendee.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSpinning {
		return ErrSpinInProgress
	}
	s.state = StateIdle
	s.userID = ""
	s.hasSpun = false
	s.prizeID = ""
	return nil
}
