package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Remote 包装主远端结构化存储的连接。所有调用都由调用方通过 Context 约束
// 超时；远端不可用从不导致进程退出，上层会降级到本地快照缓存。
type Remote struct {
	db      *gorm.DB
	timeout time.Duration
}

// OpenRemote 按驱动类型建立远端连接。dsn 为空时返回 nil（纯缓存模式）。
func OpenRemote(driver, dsn string, timeout time.Duration) (*Remote, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, nil
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}

	return NewRemote(gdb, timeout), nil
}

// NewRemote 基于已有连接构造 Remote，主要用于测试注入。
func NewRemote(gdb *gorm.DB, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Remote{db: gdb, timeout: timeout}
}

// Migrate 为全部核心模型执行自动迁移。
func (r *Remote) Migrate() error {
	if r == nil || r.db == nil {
		return errors.New("remote store is not configured")
	}
	return r.db.AutoMigrate(
		&User{},
		&Video{},
		&GalleryItem{},
		&FAQ{},
		&Partner{},
		&SiteSetting{},
		&VisitorSession{},
		&VideoView{},
		&ExclusionRule{},
		&CachedLocation{},
	)
}

// Ping 检查远端存储当前是否可达。
func (r *Remote) Ping(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("remote store is not configured")
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	bounded, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return sqlDB.PingContext(bounded)
}

// Session 返回绑定了超时 Context 的查询句柄，cancel 必须由调用方执行。
func (r *Remote) Session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	bounded, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(bounded), cancel
}
