package world

import "github.com/wfunc/killzone/models"

// PushMessages queues transient messages for the message line. The queue
// keeps the newest MaxMessages entries.
func (m *Model) PushMessages(msgs ...string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, s := range msgs {
		m.pushMessage(s)
	}
}

func (m *Model) pushMessage(s string) {
	if s == "" {
		return
	}
	m.messages = append(m.messages, message{text: models.Truncate(s, models.MaxMessageLen), ttl: m.messageTTL})
	if n := len(m.messages) - models.MaxMessages; n > 0 {
		m.messages = m.messages[n:]
	}
}

// CurrentMessage is the message being shown, or "".
func (m *Model) CurrentMessage() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if len(m.messages) == 0 {
		return ""
	}
	return m.messages[0].text
}

// AgeMessages advances the head message by n ticks and reports whether the
// shown text changed.
func (m *Model) AgeMessages(n int) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if len(m.messages) == 0 {
		return false
	}
	m.messages[0].ttl -= n
	if m.messages[0].ttl > 0 {
		return false
	}
	m.messages = m.messages[1:]
	return true
}

func (m *Model) ClearMessages() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.messages = nil
}
