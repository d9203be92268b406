// Command goldenline runs the GoldenLine web application and its
// maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/diewo77/goldenline/auth"
	"github.com/diewo77/goldenline/internal/config"
	"github.com/diewo77/goldenline/internal/db"
	"github.com/diewo77/goldenline/internal/logger"
	"github.com/diewo77/goldenline/view"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "goldenline",
	Short: "GoldenLine basket analysis",
	Long: `GoldenLine collects household basket purchases and analyses them by
socio-professional category.

Configuration is read from the environment, optionally from a .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading the configuration")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every command needs: configuration, logger and store.
type env struct {
	cfg *config.Config
	log *logger.Logger
	db  *gorm.DB
}

func (e *env) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	e.log.Sync()
}

// bootstrap loads the configuration, builds the logger and opens the store.
func bootstrap() (*env, error) {
	// a missing .env file is fine
	_ = godotenv.Load(envFile)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.App.LogMode)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	auth.Configure(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	view.SetDevMode(cfg.App.Dev)

	gdb, err := db.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: gdb}, nil
}

// migrate brings the schema up to date and seeds permissions and groups.
func migrate(e *env) error {
	if e.cfg.App.SQLMigrations {
		if err := db.RunSQLMigrations(e.cfg.Database.URL()); err != nil {
			return err
		}
	} else if err := db.AutoMigrate(e.db); err != nil {
		return err
	}
	return db.SeedProfiles(e.db)
}
