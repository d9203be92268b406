package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/goldenline/internal/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// gormLogger sends gorm's messages to zap at matching levels: failed
// statements at error, slow ones at warn, and every statement at info when
// the level is Info (DB_DEBUG).
type gormLogger struct {
	log           *logger.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.log.Info(fmt.Sprintf(msg, args...), "source", utils.FileWithLineNum())
	}
}

func (g *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.log.Warn(fmt.Sprintf(msg, args...), "source", utils.FileWithLineNum())
	}
}

func (g *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.log.Error(fmt.Sprintf(msg, args...), "source", utils.FileWithLineNum())
	}
}

func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		g.log.Error("sql failed", "error", err, "sql", sql, "rows", rows,
			"duration_ms", elapsed.Milliseconds(), "source", utils.FileWithLineNum())
	case g.slowThreshold > 0 && elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.log.Warn("slow sql", "sql", sql, "rows", rows, "threshold_ms", g.slowThreshold.Milliseconds(),
			"duration_ms", elapsed.Milliseconds(), "source", utils.FileWithLineNum())
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.log.Info("sql", "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds())
	}
}
