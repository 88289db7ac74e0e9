package telegram

import "sync"

type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingQuestion
	StateAwaitingSettingValue
	StateAwaitingFreeUserAdd
	StateAwaitingFreeUserRemove
)

type Session struct {
	State SessionState
	// LastReference is the passage the user looked up most recently; the
	// explain button acts on it.
	LastReference string
	// PendingSetting is the settings key awaiting a typed value.
	PendingSetting string
}

type StateManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewStateManager() *StateManager {
	return &StateManager{
		sessions: make(map[int64]*Session),
	}
}

func (m *StateManager) Get(chatID int64) *Session {
	m.mu.RLock()
	session, ok := m.sessions[chatID]
	m.mu.RUnlock()
	if ok {
		return session
	}
	return &Session{State: StateIdle}
}

func (m *StateManager) Set(chatID int64, session *Session) {
	m.mu.Lock()
	m.sessions[chatID] = session
	m.mu.Unlock()
}

func (m *StateManager) Reset(chatID int64) {
	m.Set(chatID, &Session{State: StateIdle})
}

// SetReference remembers the last looked-up passage without touching the
// rest of the session.
func (m *StateManager) SetReference(chatID int64, reference string) {
	m.mu.Lock()
	if session, ok := m.sessions[chatID]; ok {
		session.LastReference = reference
	} else {
		m.sessions[chatID] = &Session{State: StateIdle, LastReference: reference}
	}
	m.mu.Unlock()
}
