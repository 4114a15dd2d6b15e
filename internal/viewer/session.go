package viewer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jamesrr39/goutil/logpkg"

	"github.com/joeblew999/plat-viewer/internal/legend"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/style"
)

// ErrSessionNotFound is returned for unknown or evicted sessions.
var ErrSessionNotFound = errors.New("session not found")

// DefaultMaxSessions bounds the number of live sessions.
const DefaultMaxSessions = 256

// Session is the legend of one open viewer page.
type Session struct {
	ID       string
	TileURL  string
	Style    style.MapStyle
	Legend   *legend.Legend
	Renderer *MapRenderer
	Bus      *service.EventBus
	Created  time.Time

	mu sync.Mutex
}

// Do runs fn with exclusive access to the session's legend.
func (s *Session) Do(fn func(l *legend.Legend) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.Legend)
}

// Publish sends changes to the session's subscribers.
func (s *Session) Publish(changes []legend.Change) {
	for _, c := range changes {
		s.Bus.Publish(service.Event{Session: s.ID, Action: string(c.Kind), Name: c.Name, Checked: c.Checked})
	}
}

// Manager owns the live sessions. The oldest session is evicted when a new
// one would exceed the capacity.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
	capacity int
	logger   *logpkg.Logger
}

// NewManager returns a manager holding at most capacity sessions.
// A capacity below one means DefaultMaxSessions.
func NewManager(logger *logpkg.Logger, capacity int) *Manager {
	if capacity < 1 {
		capacity = DefaultMaxSessions
	}
	return &Manager{
		sessions: make(map[string]*Session),
		capacity: capacity,
		logger:   logger,
	}
}

// Create starts a session for a fully loaded style document.
func (m *Manager) Create(doc *style.Document, tileURL string, vector map[string]style.Source) (*Session, error) {
	if doc == nil {
		return nil, fmt.Errorf("creating session: %w", style.ErrNoLayers)
	}
	for _, id := range style.DuplicateIDs(doc.Layers) {
		m.logger.Warn("layer id %q is declared more than once", id)
	}

	ms := style.Build(doc, vector)
	r := NewMapRenderer(ms)
	s := &Session{
		ID:       uuid.NewString(),
		TileURL:  tileURL,
		Style:    ms,
		Legend:   legend.New(legend.BuildDocument(doc), r),
		Renderer: r,
		Bus:      service.NewEventBus(),
		Created:  time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.order) >= m.capacity {
		m.removeLocked(m.order[0])
	}
	m.sessions[s.ID] = s
	m.order = append(m.order, s.ID)
	m.logger.Debug("session %s created (%d live)", s.ID, len(m.order))
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Remove ends a session and closes its event subscribers.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) removeLocked(id string) {
	s, ok := m.sessions[id]
	if !ok {
		return
	}
	delete(m.sessions, id)
	for i, sid := range m.order {
		if sid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	s.Bus.Close()
}
