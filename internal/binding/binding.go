// Package binding maps semantic roles to the gesture that triggers them.
package binding

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ayusman/mudra/internal/gesture"
)

// ErrUnknownRole is returned when a name does not denote a role.
var ErrUnknownRole = errors.New("unknown role")

// Role is an action slot a gesture can be bound to.
type Role string

const (
	MuteTrigger   Role = "mute"
	UnmuteTrigger Role = "unmute"
)

// roles lists roles in resolution precedence order.
var roles = []Role{MuteTrigger, UnmuteTrigger}

// Roles returns every role in precedence order.
func Roles() []Role {
	return append([]Role(nil), roles...)
}

// ParseRole accepts "mute", "mute_trigger", "mute-trigger" and the unmute
// equivalents, case-insensitively.
func ParseRole(s string) (Role, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimSuffix(strings.TrimSuffix(key, "_trigger"), "-trigger")
	switch Role(key) {
	case MuteTrigger:
		return MuteTrigger, nil
	case UnmuteTrigger:
		return UnmuteTrigger, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) valid() bool {
	return r == MuteTrigger || r == UnmuteTrigger
}

// Backend persists the binding document.
type Backend interface {
	// LoadDocument returns an empty Document when nothing was saved yet.
	LoadDocument() (Document, error)
	SaveDocument(doc Document) error
}

// Store holds at most one gesture per role. Every method is safe for
// concurrent use; a lookup never observes a half-applied edit.
type Store struct {
	mu       sync.RWMutex
	bindings map[Role]gesture.ID
	backend  Backend
	logger   *slog.Logger
}

// NewStore creates an empty store persisting through backend, which may be
// nil for an in-memory store.
func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		bindings: make(map[Role]gesture.ID),
		backend:  backend,
		logger:   logger,
	}
}

// Set binds role to id, replacing whatever the role held before.
func (s *Store) Set(role Role, id gesture.ID) error {
	if !role.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	if !id.Valid() {
		return fmt.Errorf("%w: %q", gesture.ErrUnknownGesture, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[role] = id
	return nil
}

// Clear removes the role's binding.
func (s *Store) Clear(role Role) error {
	if !role.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, role)
	return nil
}

// Get returns the gesture bound to role, or gesture.None.
func (s *Store) Get(role Role) gesture.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindings[role]
}

// Resolve returns the role a confirmed gesture triggers. Roles are checked
// in precedence order, so a gesture bound to both resolves to MuteTrigger.
func (s *Store) Resolve(id gesture.ID) (Role, bool) {
	if id == gesture.None {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, role := range roles {
		if s.bindings[role] == id {
			return role, true
		}
	}
	return "", false
}

// Document returns a snapshot of the bindings in persisted form.
func (s *Store) Document() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Document{
		MuteGesture:   s.bindings[MuteTrigger],
		UnmuteGesture: s.bindings[UnmuteTrigger],
	}
}

// Replace swaps in all bindings from doc at once. Invalid entries leave
// their role unbound.
func (s *Store) Replace(doc Document) {
	next := make(map[Role]gesture.ID, len(roles))
	for role, id := range doc.byRole() {
		if id.Valid() {
			next[role] = id
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings = next
}

// Save persists the current bindings.
func (s *Store) Save() error {
	if s.backend == nil {
		return nil
	}
	if err := s.backend.SaveDocument(s.Document()); err != nil {
		return fmt.Errorf("save bindings: %w", err)
	}
	s.logger.Info("gesture bindings saved")
	return nil
}

// Load replaces the bindings with the persisted ones. It never fails: a
// missing or corrupt document leaves every role unbound, and an unreadable
// entry leaves only its role unbound.
func (s *Store) Load() {
	if s.backend == nil {
		return
	}

	doc, err := s.backend.LoadDocument()
	if err != nil {
		s.logger.Warn("gesture bindings unreadable, using empty bindings", "error", err)
		s.Replace(Document{})
		return
	}

	for role, id := range doc.byRole() {
		if id != gesture.None && !id.Valid() {
			s.logger.Warn("ignoring unknown gesture in bindings", "role", role, "gesture", string(id))
		}
	}
	s.Replace(doc)
}
