package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

const migrationsTable = "schema_migrations"

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "Apply or roll back the SQL migrations under db/migrations",
		Long: `Apply pending migrations (default), roll back the latest one with -r,
or move to a specific version with --to. --status prints what is applied.`,
	}
	migrateRollback bool
	migrateStatus   bool
	migrateTo       int64
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back instead of applying")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print migration status and exit")
	migrateCmd.Flags().Int64Var(&migrateTo, "to", 0, "target version; with -r rolls back down to it")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

// migrationCommand maps the CLI flags onto a goose command and its arguments.
func migrationCommand(rollback, status bool, to int64) (string, []string) {
	switch {
	case status:
		return "status", nil
	case rollback && to > 0:
		return "down-to", []string{fmt.Sprint(to)}
	case rollback:
		return "down", nil
	case to > 0:
		return "up-to", []string{fmt.Sprint(to)}
	default:
		return "up", nil
	}
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		log.Fatalf("goose: failed to open DB: %v\n", err)
	}
	defer db.Close()
	goose.SetTableName(migrationsTable)

	command, args := migrationCommand(migrateRollback, migrateStatus, migrateTo)
	if err := goose.RunContext(ctx, command, db, migrateDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
