package wizard

import (
	"fmt"
	"sync"
)

// Token identifies the screen a submission started on.
// A token goes stale once the session moves to another step or is reset.
type Token struct {
	step       Step
	generation uint64
}

func (t Token) Step() Step {
	return t.step
}

// Session is the navigation state of one chat.
// Entering a step replaces the current entry; there is no back stack.
type Session struct {
	mu         sync.Mutex
	step       Step
	params     Params
	generation uint64
	inFlight   bool
}

// NewSession creates a session at the Login step
func NewSession() *Session {
	return &Session{step: StepLogin}
}

// Snapshot returns the current step and a copy of its params
func (s *Session) Snapshot() (Step, Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step, s.params
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Submitting reports whether a submission is in flight
func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// BeginSubmit marks a submission for step as in flight.
// At most one submission per step may be pending.
func (s *Session) BeginSubmit(step Step) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != step {
		return Token{}, fmt.Errorf("%w: at %s, submit for %s", ErrUnexpectedStep, s.step, step)
	}
	if s.inFlight {
		return Token{}, ErrSubmitInFlight
	}
	s.inFlight = true
	return Token{step: s.step, generation: s.generation}, nil
}

// EndSubmit releases the in-flight mark taken by t, if t is still current
func (s *Session) EndSubmit(t Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current(t) {
		s.inFlight = false
	}
}

// Active reports whether t still refers to the screen being shown
func (s *Session) Active(t Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(t)
}

func (s *Session) current(t Token) bool {
	return t.step == s.step && t.generation == s.generation
}

// Complete applies the transition for c if t is still current.
// A stale token yields applied=false and leaves the session untouched.
func (s *Session) Complete(t Token, c Completion) (next Step, params Params, applied bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(t) {
		return s.step, s.params, false, nil
	}

	next, params, err = Next(s.step, s.params, c)
	if err != nil {
		return s.step, s.params, false, err
	}

	s.step = next
	s.params = params
	s.generation++
	s.inFlight = false
	return next, params, true, nil
}

// Reset returns to Login and invalidates every outstanding token
func (s *Session) Reset() {
	s.Restore(StepLogin, Params{})
}

// Restore places the session at step with params, used when resuming from the local cache
func (s *Session) Restore(step Step, params Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
	s.params = params
	s.generation++
	s.inFlight = false
}

// Store keeps one session per chat
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the chat's session, creating it at Login if needed
func (st *Store) Get(chatID int64) *Session {
	st.mu.RLock()
	sess, ok := st.sessions[chatID]
	st.mu.RUnlock()
	if ok {
		return sess
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if sess, ok := st.sessions[chatID]; ok {
		return sess
	}
	sess = NewSession()
	st.sessions[chatID] = sess
	return sess
}

// Drop forgets the chat's session; the wizard state is discarded
func (st *Store) Drop(chatID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, chatID)
}
