package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/giygas/medicamente-cnas/explorer"
	"github.com/giygas/medicamente-cnas/interfaces"
	"github.com/giygas/medicamente-cnas/selection"
	"github.com/google/uuid"
)

// Compile-time check to ensure Sessions implements SessionStore
var _ interfaces.SessionStore = (*Sessions)(nil)

// ErrSessionNotFound is returned for an unknown or cleared session id.
var ErrSessionNotFound = errors.New("session not found")

// Sessions persists explorer state per session id.
// The selection, plans, notes and theme are also written under their own keys
// so they can be read without decoding the full state.
type Sessions struct {
	kv    KV
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessions wraps kv.
func NewSessions(kv KV) *Sessions {
	return &Sessions{kv: kv, locks: make(map[string]*sessionLock)}
}

// Create stores initial and returns a fresh random session id.
func (s *Sessions) Create(ctx context.Context, initial explorer.State) (string, error) {
	id := uuid.NewString()
	if err := s.Save(ctx, id, initial); err != nil {
		return "", err
	}
	return id, nil
}

// Load returns the state of a session.
func (s *Sessions) Load(ctx context.Context, id string) (explorer.State, error) {
	if _, err := uuid.Parse(id); err != nil {
		return explorer.State{}, ErrSessionNotFound
	}

	raw, err := s.kv.Get(ctx, id, KeyExplorerState)
	if errors.Is(err, ErrNotFound) {
		return explorer.State{}, ErrSessionNotFound
	}
	if err != nil {
		return explorer.State{}, err
	}

	var state explorer.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return explorer.State{}, fmt.Errorf("corrupt state for session %s: %w", id, err)
	}
	if state.Selection.Plans == nil {
		state.Selection.Plans = map[string]selection.Plan{}
	}
	return state, nil
}

// Save writes the full state and the per-concern keys in one transaction.
func (s *Sessions) Save(ctx context.Context, id string, state explorer.State) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	selectedJSON, err := json.Marshal(state.Selection.Items)
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}
	plansJSON, err := json.Marshal(state.Selection.Plans)
	if err != nil {
		return fmt.Errorf("failed to encode plans: %w", err)
	}

	return s.kv.SetMany(ctx, id, []Entry{
		{Key: KeyExplorerState, Value: stateJSON},
		{Key: KeySelectedProducts, Value: selectedJSON},
		{Key: KeyMedicinePlans, Value: plansJSON},
		{Key: KeyPatientNotes, Value: []byte(state.Notes.Patient)},
		{Key: KeyDoctorNotes, Value: []byte(state.Notes.Doctor)},
		{Key: KeyDarkMode, Value: []byte(strconv.FormatBool(state.DarkMode))},
	})
}

// Update loads a session, applies fn and saves the result while holding the session lock.
// Nothing is written when fn fails.
func (s *Sessions) Update(ctx context.Context, id string, fn func(explorer.State) (explorer.State, error)) (explorer.State, error) {
	unlock := s.lock(id)
	defer unlock()

	state, err := s.Load(ctx, id)
	if err != nil {
		return explorer.State{}, err
	}
	next, err := fn(state)
	if err != nil {
		return state, err
	}
	if err := s.Save(ctx, id, next); err != nil {
		return state, err
	}
	return next, nil
}

func (s *Sessions) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// Delete forgets a session entirely.
func (s *Sessions) Delete(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()
	return s.kv.Clear(ctx, id)
}

// Get reads one raw per-session key such as KeyPatientNotes.
func (s *Sessions) Get(ctx context.Context, id, key string) ([]byte, error) {
	return s.kv.Get(ctx, id, key)
}
