// Package session keeps the per-user state of the cleaning service: the
// latest run result and the undo/redo history of the grid it produced.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/hoover/internal/core"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 30 * time.Minute

// Session is one uploaded file and everything derived from it.
type Session struct {
	ID      string
	Created time.Time

	history *core.History

	mu       sync.RWMutex
	touched  time.Time
	result   *core.Result
	settings core.Settings
}

// View is a read-only snapshot of a session.
type View struct {
	ID         string             `json:"id"`
	FileName   string             `json:"fileName"`
	Created    time.Time          `json:"created"`
	LastAccess time.Time          `json:"lastAccess"`
	Settings   core.Settings      `json:"settings"`
	Structure  core.StructureInfo `json:"structure"`
	Report     core.QualityReport `json:"report"`
	Rows       int                `json:"rows"`
	History    []string           `json:"history"`
	Position   int                `json:"position"`
	CanUndo    bool               `json:"canUndo"`
	CanRedo    bool               `json:"canRedo"`
}

// History returns the session's snapshot log, which the pipeline records into.
func (s *Session) History() *core.History { return s.history }

// SetResult stores the outcome of the latest run.
func (s *Session) SetResult(res *core.Result, settings core.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = res
	s.settings = settings
}

// Result returns the latest run outcome, or nil before the first run.
func (s *Session) Result() *core.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Current returns a copy of the grid at the history position along with the
// structure detected for the session's file.
func (s *Session) Current() (core.Grid, core.StructureInfo, error) {
	e, ok := s.history.Current()
	if !ok {
		return nil, core.StructureInfo{}, core.ErrNoData
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var info core.StructureInfo
	if s.result != nil {
		info = s.result.Structure
	}
	return e.Snapshot, info, nil
}

// Undo steps the history back one entry.
func (s *Session) Undo() (core.HistoryEntry, error) {
	e, ok := s.history.Undo()
	if !ok {
		return core.HistoryEntry{}, ErrNothingToUndo
	}
	return e, nil
}

// Redo steps the history forward one entry.
func (s *Session) Redo() (core.HistoryEntry, error) {
	e, ok := s.history.Redo()
	if !ok {
		return core.HistoryEntry{}, ErrNothingToRedo
	}
	return e, nil
}

// View summarizes the session.
func (s *Session) View() View {
	s.mu.RLock()
	v := View{
		ID:         s.ID,
		Created:    s.Created,
		LastAccess: s.touched,
		Settings:   s.settings,
	}
	if s.result != nil {
		v.FileName = s.result.FileName
		v.Structure = s.result.Structure
		v.Report = s.result.Report
	}
	s.mu.RUnlock()

	if e, ok := s.history.Current(); ok {
		v.Rows = len(e.Snapshot)
	}
	v.History = s.history.Labels()
	v.Position = s.history.Position()
	v.CanUndo = s.history.CanUndo()
	v.CanRedo = s.history.CanRedo()
	return v
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.touched = now
	s.mu.Unlock()
}

func (s *Session) lastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.touched
}

// Manager owns every live session. It is safe for concurrent use.
type Manager struct {
	ttl          time.Duration
	historyLimit int
	now          func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager expiring sessions idle longer than ttl and
// keeping at most historyLimit snapshots per session.
func NewManager(ttl time.Duration, historyLimit int, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		ttl:          ttl,
		historyLimit: historyLimit,
		now:          time.Now,
		sessions:     make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts an empty session.
func (m *Manager) Create() *Session {
	now := m.now()
	s := &Session{
		ID:      uuid.NewString(),
		Created: now,
		touched: now,
		history: core.NewHistory(m.historyLimit),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns a live session and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || m.expired(s) {
		return nil, ErrNotFound
	}
	s.touch(m.now())
	return s, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// List returns views of every live session, newest first.
func (m *Manager) List() []View {
	m.mu.RLock()
	views := make([]View, 0, len(m.sessions))
	for _, s := range m.sessions {
		if !m.expired(s) {
			views = append(views, s.View())
		}
	}
	m.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool { return views[i].Created.After(views[j].Created) })
	return views
}

// Len returns the number of sessions held, expired or not.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) expired(s *Session) bool {
	return m.now().Sub(s.lastAccess()) > m.ttl
}
