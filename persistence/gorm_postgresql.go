// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	applog "github.com/wfunc/killzone/logger"
	"github.com/wfunc/killzone/models"
)

// GormJournal 使用GORM的PostgreSQL会话日志
type GormJournal struct {
	db *gorm.DB
}

// NewGormJournal 创建GORM PostgreSQL数据库连接
func NewGormJournal(host string, port int, user, password, dbname string) (*GormJournal, error) {
	// GORM日志写入应用日志文件，终端归显示层所有
	gormLogger := gormlogger.New(
		zap.NewStdLog(applog.Log.Desugar()),
		gormlogger.Config{
			SlowThreshold: time.Second,       // 慢SQL阈值
			LogLevel:      gormlogger.Silent, // 日志级别
			Colorful:      false,             // 禁用彩色打印
		},
	)

	db, err := gorm.Open(postgres.Open(dsn(host, port, user, password, dbname)), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池，客户端只有一个写入者
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormSessionEvent{}); err != nil {
		return nil, err
	}

	return &GormJournal{db: db}, nil
}

func toGorm(ev models.SessionEvent) models.GormSessionEvent {
	row := models.GormSessionEvent{
		EventID:    ev.ID,
		SessionID:  ev.SessionID,
		Kind:       string(ev.Kind),
		PlayerID:   ev.PlayerID,
		PlayerName: ev.PlayerName,
		Detail:     ev.Detail,
		Ticks:      int64(ev.Ticks),
	}
	row.CreatedAt = ev.CreatedAt
	return row
}

func fromGorm(row models.GormSessionEvent) models.SessionEvent {
	return models.SessionEvent{
		ID:         row.EventID,
		SessionID:  row.SessionID,
		Kind:       models.EventKind(row.Kind),
		PlayerID:   row.PlayerID,
		PlayerName: row.PlayerName,
		Detail:     row.Detail,
		Ticks:      uint32(row.Ticks),
		CreatedAt:  row.CreatedAt,
	}
}

// Record 保存一条事件
func (p *GormJournal) Record(ctx context.Context, ev models.SessionEvent) error {
	row := toGorm(ev)
	return p.db.WithContext(ctx).Create(&row).Error
}

// Recent 查询会话最近的事件
func (p *GormJournal) Recent(ctx context.Context, sessionID string, limit int) ([]models.SessionEvent, error) {
	var rows []models.GormSessionEvent
	q := p.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]models.SessionEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, fromGorm(row))
	}
	return events, nil
}

// Close 关闭数据库连接
func (p *GormJournal) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
