package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/fbmeta/database"
	"github.com/ridoystarlord/fbmeta/introspect"
)

var (
	healthConnString string
	healthTimeout    time.Duration
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity",
	Long: `Check if the database is accessible and count its user objects.

Examples:
  fbmeta health --connection-string "User=SYSDBA;Password=masterkey;Database=/data/app.fdb"
  fbmeta health --timeout 10s      # Set custom timeout
`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		connStr, err := connectionString(healthConnString)
		if err != nil {
			return err
		}

		if err := checkDatabaseHealth(cmd.Context(), connStr); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
		color.New(color.FgGreen, color.Bold).Println("✅ Database is healthy and accessible")
		return nil
	},
}

func checkDatabaseHealth(ctx context.Context, connStr string) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	db, err := database.Open(ctx, connStr)
	if err != nil {
		return err
	}
	defer db.Close()

	reader := introspect.NewReader(db)

	domains, err := reader.GetDomains(ctx)
	if err != nil {
		return err
	}
	tables, err := reader.GetTables(ctx)
	if err != nil {
		return err
	}
	procedures, err := reader.GetProcedures(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("📊 Found %d domains, %d tables, %d procedures\n", len(domains), len(tables), len(procedures))
	return nil
}

func init() {
	healthCmd.Flags().StringVar(&healthConnString, "connection-string", "", "Database connection string (defaults to $FIREBIRD_CONNECTION_STRING)")
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "Timeout for health check")
}
