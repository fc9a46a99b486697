package core

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SessionManager tracks live sessions by session ID and channel ID. Sessions
// remove themselves once they reach their terminal state, so the registry
// only ever holds calls that are still up.
type SessionManager struct {
	mu        sync.Mutex
	byID      map[string]*Session
	byChannel map[string]string
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		byID:      map[string]*Session{},
		byChannel: map[string]string{},
	}
}

func (m *SessionManager) add(session *Session) {
	if m == nil || session == nil {
		return
	}
	m.mu.Lock()
	m.byID[session.ID()] = session
	if channelID := strings.TrimSpace(session.ChannelID()); channelID != "" {
		m.byChannel[channelID] = session.ID()
	}
	m.mu.Unlock()

	go func() {
		<-session.Done()
		m.remove(session.ID())
	}()
}

func (m *SessionManager) remove(id string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.byID[id]
	if !ok {
		return
	}
	delete(m.byID, id)
	if channelID := strings.TrimSpace(session.ChannelID()); channelID != "" {
		if m.byChannel[channelID] == id {
			delete(m.byChannel, channelID)
		}
	}
}

// Get returns the live session with the given ID.
func (m *SessionManager) Get(id string) (*Session, bool) {
	if m == nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.byID[strings.TrimSpace(id)]
	return session, ok
}

// GetByChannel returns the live session bound to the given channel ID.
func (m *SessionManager) GetByChannel(channelID string) (*Session, bool) {
	if m == nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byChannel[strings.TrimSpace(channelID)]
	if !ok {
		return nil, false
	}
	session, ok := m.byID[id]
	return session, ok
}

// Snapshots returns a view of every live session.
func (m *SessionManager) Snapshots() []SessionSnapshot {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.byID))
	for _, session := range m.byID {
		sessions = append(sessions, session)
	}
	m.mu.Unlock()

	out := make([]SessionSnapshot, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, session.Snapshot())
	}
	return out
}

// Len reports how many sessions are live.
func (m *SessionManager) Len() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func newSessionID() string {
	return uuid.NewString()
}
