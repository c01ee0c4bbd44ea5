package transcript

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrNoSession is returned when an operation needs a session and none is
// open.
var ErrNoSession = errors.New("no active chat session")

// SessionAPI is the slice of the backend the session manager needs.
type SessionAPI interface {
	GetOrCreateSession(ctx context.Context, userID int64) (*Session, error)
	EndSession(ctx context.Context, sessionID int64) error
}

// SessionManager owns the session identity. The server is authoritative: a
// send response naming a different session id wins over whatever was opened
// locally, and the manager is the only place that id is updated.
type SessionManager struct {
	mu      sync.Mutex
	api     SessionAPI
	log     *slog.Logger
	userID  int64
	current *Session
}

// NewSessionManager creates a manager for the given user.
func NewSessionManager(api SessionAPI, userID int64, log *slog.Logger) *SessionManager {
	if log == nil {
		log = slog.Default()
	}
	return &SessionManager{api: api, userID: userID, log: log}
}

// Open returns the current session, asking the server to create or reuse one
// on first call.
func (m *SessionManager) Open(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return m.current, nil
	}

	sess, err := m.api.GetOrCreateSession(ctx, m.userID)
	if err != nil {
		return nil, err
	}
	m.current = sess
	m.log.Debug("session opened", "session_id", sess.ID, "user_id", m.userID)
	return sess, nil
}

// TakeSeed returns the messages the server embedded in the session payload.
// The batch is handed out once; later calls return nil so a refresh always
// refetches from the history endpoint.
func (m *SessionManager) TakeSeed() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || len(m.current.Messages) == 0 {
		return nil
	}
	seed := m.current.Messages
	m.current.Messages = nil
	return seed
}

// Adopt records a server-issued session id, replacing the current one if it
// differs.
func (m *SessionManager) Adopt(id int64) {
	if id == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		m.current = &Session{ID: id, UserID: m.userID}
		return
	}
	if m.current.ID != id {
		m.log.Debug("session id reassigned by server", "old", m.current.ID, "new", id)
		m.current.ID = id
	}
}

// Current returns the open session id, or ErrNoSession.
func (m *SessionManager) Current() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return 0, ErrNoSession
	}
	return m.current.ID, nil
}

// Reset closes the current session. The server-side end is best effort; a
// failure there never blocks starting over locally.
func (m *SessionManager) Reset(ctx context.Context) {
	m.mu.Lock()
	sess := m.current
	m.current = nil
	m.mu.Unlock()

	if sess == nil {
		return
	}
	if err := m.api.EndSession(ctx, sess.ID); err != nil {
		m.log.Warn("end session failed", "session_id", sess.ID, "error", err)
	}
}
