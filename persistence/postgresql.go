// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/killzone/models"
)

// PostgreSQL 会话日志的 database/sql 实现，表结构与 GORM 版本兼容
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", dsn(host, port, user, password, dbname))
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS session_events (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            event_id TEXT NOT NULL,
            session_id TEXT NOT NULL,
            kind TEXT NOT NULL,
            player_id TEXT,
            player_name TEXT,
            detail TEXT,
            ticks BIGINT DEFAULT 0
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.ExecContext(ctx, `
        CREATE UNIQUE INDEX IF NOT EXISTS idx_session_events_event_id ON session_events(event_id);
        CREATE INDEX IF NOT EXISTS idx_session_events_session_id ON session_events(session_id);
    `)
	return err
}

// Record 保存一条事件
func (p *PostgreSQL) Record(ctx context.Context, ev models.SessionEvent) error {
	query := `
        INSERT INTO session_events (event_id, session_id, kind, player_id, player_name, detail, ticks, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        ON CONFLICT (event_id) DO NOTHING
    `
	_, err := p.db.ExecContext(ctx, query,
		ev.ID, ev.SessionID, string(ev.Kind), ev.PlayerID, ev.PlayerName, ev.Detail, int64(ev.Ticks), ev.CreatedAt)
	return err
}

// Recent 查询会话最近的事件
func (p *PostgreSQL) Recent(ctx context.Context, sessionID string, limit int) ([]models.SessionEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
        SELECT event_id, session_id, kind, player_id, player_name, detail, ticks, created_at
        FROM session_events
        WHERE deleted_at IS NULL AND ($1 = '' OR session_id = $1)
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `
	rows, err := p.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.SessionEvent
	for rows.Next() {
		var (
			ev                     models.SessionEvent
			kind                   string
			playerID, name, detail sql.NullString
			ticks                  int64
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &kind, &playerID, &name, &detail, &ticks, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Kind = models.EventKind(kind)
		ev.PlayerID, ev.PlayerName, ev.Detail = playerID.String, name.String, detail.String
		ev.Ticks = uint32(ticks)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
