// persistence/interface.go
package persistence

import (
	"context"
	"fmt"

	"github.com/wfunc/killzone/config"
	"github.com/wfunc/killzone/models"
)

// Journal 会话日志接口
type Journal interface {
	Record(ctx context.Context, ev models.SessionEvent) error
	// Recent returns up to limit events of a session, newest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]models.SessionEvent, error)
	Close() error
}

// Journal drivers.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverGorm   = "gorm"
	DriverSQL    = "sql"
)

// 错误定义
var (
	ErrUnknownDriver = fmt.Errorf("unknown journal driver")
)

// Open builds the journal selected by cfg.Driver.
func Open(cfg config.JournalConfig) (Journal, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "", DriverNone:
		return NopJournal{}, nil
	case DriverMemory:
		return NewMemoryJournal(0), nil
	case DriverGorm:
		return NewGormJournal(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case DriverSQL:
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}

func dsn(host string, port int, user, password, dbname string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

// NopJournal discards events.
type NopJournal struct{}

func (NopJournal) Record(context.Context, models.SessionEvent) error { return nil }

func (NopJournal) Recent(context.Context, string, int) ([]models.SessionEvent, error) {
	return nil, nil
}

func (NopJournal) Close() error { return nil }
