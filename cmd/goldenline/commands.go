package main

import (
	"fmt"

	"github.com/diewo77/goldenline/internal/db"
	"github.com/diewo77/goldenline/internal/services"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and seed permissions and groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootstrap()
		if err != nil {
			return err
		}
		defer e.Close()
		if err := migrate(e); err != nil {
			return err
		}
		if e.cfg.App.SQLMigrations {
			versions, err := db.MigrationVersions()
			if err != nil {
				return err
			}
			e.log.Info("migrations completed", "sql", true, "versions", versions)
			return nil
		}
		e.log.Info("migrations completed", "sql", false)
		return nil
	},
}

var seedRows int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert random households and baskets",
	Long: `Insert random collection/client pairs.

Examples:
  goldenline seed --rows 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedRows < 0 {
			return fmt.Errorf("--rows must not be negative, got %d", seedRows)
		}
		e, err := bootstrap()
		if err != nil {
			return err
		}
		defer e.Close()
		gen := services.NewGenerator(services.NewRecordService(e.db), nil)
		n, err := gen.Seed(cmd.Context(), seedRows)
		e.log.Info("seed finished", "rows", n)
		return err
	},
}

var adminUsername, adminEmail, adminPassword string

var createAdminCmd = &cobra.Command{
	Use:   "createadmin",
	Short: "Create a superuser in the administrateurs group",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootstrap()
		if err != nil {
			return err
		}
		defer e.Close()
		u, err := services.NewUserService(e.db).CreateSuperuser(cmd.Context(), adminUsername, adminEmail, adminPassword)
		if err != nil {
			return fmt.Errorf("create superuser %q: %w", adminUsername, err)
		}
		e.log.Info("superuser created", "user_id", u.ID, "username", u.Username)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedRows, "rows", 100, "Number of households to insert")

	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "Username (letters and digits)")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Password")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("password")
}
