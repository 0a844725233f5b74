// session/session.go
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"

	"github.com/wfunc/killzone/models"
)

const maxErrLen = 127

// Session 客户端本地的控制状态
type Session struct {
	ID         string
	CreatedAt  time.Time
	LastActive time.Time

	phase     models.Phase
	rejoining bool
	connected bool
	lastErr   string
	mutex     deadlock.RWMutex
}

func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		LastActive: now,
		phase:      models.PhaseInit,
	}
}

func (s *Session) Phase() models.Phase {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.phase
}

func (s *Session) SetPhase(p models.Phase) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.phase = p
}

// Rejoining reports whether the next join should reuse the remembered name.
func (s *Session) Rejoining() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.rejoining
}

func (s *Session) SetRejoining(v bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.rejoining = v
}

func (s *Session) Connected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected
}

func (s *Session) SetConnected(v bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.connected = v
}

// Touch records a successful exchange with the server.
func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.LastActive = time.Now()
}

// Fail stores the human-readable error shown by the error screen.
func (s *Session) Fail(msg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastErr = models.Truncate(msg, maxErrLen)
}

func (s *Session) Err() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastErr
}
