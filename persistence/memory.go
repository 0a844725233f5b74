package persistence

import (
	"context"

	"github.com/sasha-s/go-deadlock"

	"github.com/wfunc/killzone/models"
)

const defaultMemoryCapacity = 1024

// MemoryJournal keeps the newest events in process memory.
type MemoryJournal struct {
	events   []models.SessionEvent
	capacity int
	mutex    deadlock.RWMutex
}

// NewMemoryJournal keeps at most capacity events; 0 picks a default.
func NewMemoryJournal(capacity int) *MemoryJournal {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryJournal{capacity: capacity}
}

func (m *MemoryJournal) Record(ctx context.Context, ev models.SessionEvent) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events = append(m.events, ev)
	if n := len(m.events) - m.capacity; n > 0 {
		m.events = append(m.events[:0], m.events[n:]...)
	}
	return nil
}

func (m *MemoryJournal) Recent(ctx context.Context, sessionID string, limit int) ([]models.SessionEvent, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var out []models.SessionEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if sessionID == "" || m.events[i].SessionID == sessionID {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

func (m *MemoryJournal) Close() error { return nil }
