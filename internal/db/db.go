// Package db opens the record store and keeps its schema up to date.
package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/goldenline/internal/config"
	"github.com/diewo77/goldenline/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database. Postgres is retried a few
// times to give the server time to start.
func Open(cfg config.DatabaseConfig, log *logger.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: newGormLogger(log, cfg.Debug)}

	switch cfg.Driver {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(SQLiteDSN(cfg.SQLitePath)), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return db, nil
	case "postgres", "":
		var db *gorm.DB
		var err error
		for i := 0; i < 5; i++ {
			db, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
			if err == nil {
				break
			}
			log.Warn("database connection failed, retrying", "attempt", i+1, "error", err)
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Exec("SELECT 1").Error; err != nil {
			return nil, fmt.Errorf("db ping failed: %w", err)
		}
		log.Info("database connected", "host", cfg.Host, "dbname", cfg.DBName)
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// SQLiteDSN enables foreign keys on a path or file: URI.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func newGormLogger(log *logger.Logger, debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return &gormLogger{log: log.With("component", "gorm"), level: level, slowThreshold: 500 * time.Millisecond}
}
