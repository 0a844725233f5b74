// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// EventKind 会话日志事件类型
type EventKind string

const (
	EventJoin       EventKind = "join"
	EventRejoin     EventKind = "rejoin"
	EventDeath      EventKind = "death"
	EventDisconnect EventKind = "disconnect"
	EventQuit       EventKind = "quit"
)

// SessionEvent is one journal entry.
type SessionEvent struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       EventKind `json:"kind"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Detail     string    `json:"detail"`
	Ticks      uint32    `json:"ticks"`
	CreatedAt  time.Time `json:"created_at"`
}

// GormSessionEvent 会话日志表模型
type GormSessionEvent struct {
	gorm.Model
	EventID    string `gorm:"uniqueIndex;not null"`
	SessionID  string `gorm:"index;not null"`
	Kind       string `gorm:"not null"`
	PlayerID   string
	PlayerName string
	Detail     string
	Ticks      int64 `gorm:"default:0"`
}

func (GormSessionEvent) TableName() string {
	return "session_events"
}
