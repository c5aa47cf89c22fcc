package session

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidSessionState is returned for operations that require an
	// authenticated session, such as registering one without an identity.
	ErrInvalidSessionState = errors.New("session is not in a valid state for this operation")

	// ErrIdentityInUse is returned by Add when a live session already holds
	// the identity. Callers wanting the replacement policy use AddReplace.
	ErrIdentityInUse = errors.New("a session is already registered for this identity")
)

// Registry is the concurrency-safe map of authenticated identities to their
// live sessions. All mutation is internally synchronized; no caller ever
// holds a registry lock across I/O.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Add registers an authenticated session under its identity. It fails with
// ErrInvalidSessionState if the session has no identity bound and with
// ErrIdentityInUse if another live session holds the identity.
func (r *Registry) Add(s *Session) error {
	identity := s.Identity()
	if identity == "" {
		return fmt.Errorf("%w: session %s has no identity", ErrInvalidSessionState, s.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[identity]; ok {
		return fmt.Errorf("%w: %s", ErrIdentityInUse, identity)
	}

	r.sessions[identity] = s
	r.order = append(r.order, identity)
	return nil
}

// AddReplace registers an authenticated session under its identity,
// displacing any session previously registered for it. The displaced session
// (or nil) is returned so the caller can tear it down; the registry itself
// never closes connections.
func (r *Registry) AddReplace(s *Session) (*Session, error) {
	identity := s.Identity()
	if identity == "" {
		return nil, fmt.Errorf("%w: session %s has no identity", ErrInvalidSessionState, s.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	displaced := r.sessions[identity]
	r.sessions[identity] = s
	if displaced == nil {
		r.order = append(r.order, identity)
	}
	return displaced, nil
}

// Remove unregisters the session and reports whether it was registered. It
// is idempotent, and it only evicts the exact session passed in: a stale
// teardown racing a duplicate-login replacement can't remove the newer
// session for the same identity. Callers use the return value to decide
// whether identity-keyed state (like room membership) should be torn down.
func (r *Registry) Remove(s *Session) bool {
	identity := s.Identity()
	if identity == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[identity]
	if !ok || current.ID() != s.ID() {
		return false
	}

	delete(r.sessions, identity)
	for i, id := range r.order {
		if id == identity {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the live session for identity, or nil if there is none.
func (r *Registry) Get(identity string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[identity]
}

// Snapshot returns a stable copy of the registered identities in
// registration order. The copy is safe to iterate while the registry
// continues to mutate.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identities := make([]string, len(r.order))
	copy(identities, r.order)
	return identities
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
