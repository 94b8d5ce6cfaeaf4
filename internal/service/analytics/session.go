package analytics

import (
	"sync"

	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
)

// Session carries the source mode for one dashboard session. The mode is an
// explicit value threaded through every resolver call rather than package
// state, so independent sessions never cross-talk.
//
// Once a session enters fallback it stays there: a later successful primary
// probe must not silently revert the mode. Only an explicit Reset (user
// refresh) re-arms the primary source.
type Session struct {
	mu        sync.Mutex
	mode      domain.SourceMode
	observers []func(domain.SourceMode)
}

func NewSession() *Session {
	return &Session{mode: domain.SourcePrimary}
}

func (s *Session) Mode() domain.SourceMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// OnModeChange registers an observer for the primary-to-fallback transition,
// letting the caller surface degraded-mode warnings.
func (s *Session) OnModeChange(fn func(domain.SourceMode)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// enterFallback flips the session to the fallback source. Observers fire
// only on the first transition.
func (s *Session) enterFallback() {
	s.mu.Lock()
	if s.mode == domain.SourceFallback {
		s.mu.Unlock()
		return
	}
	s.mode = domain.SourceFallback
	observers := append([]func(domain.SourceMode){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(domain.SourceFallback)
	}
}

// Reset returns the session to the primary source. Called on explicit user
// refresh; nothing else reverts fallback.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = domain.SourcePrimary
}
