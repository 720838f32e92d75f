package commands

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
)

// DbCmd groups database operations.
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the toonana database",
	Long: `Manage database operations.

Examples:
  toonana db migrate   # Apply pending schema migrations
  toonana db stats     # Show table counts and database info`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	// openApp migrates on open.
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("Database is up to date")
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	counts := map[string]int{}
	for _, table := range []string{"entries", "storyboards", "panels"} {
		var n int
		err := a.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}

	var version string
	if err := a.db.QueryRow(
		"SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1",
	).Scan(&version); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	fmt.Println("Database Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Database Path:  %s\n", a.cfg.Database.Path)
	fmt.Printf("Schema Version: %s\n", version)
	fmt.Printf("Entries:        %d\n", counts["entries"])
	fmt.Printf("Storyboards:    %d\n", counts["storyboards"])
	fmt.Printf("Panels:         %d\n", counts["panels"])
	return nil
}
