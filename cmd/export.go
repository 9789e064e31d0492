package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/fbmeta/database"
	"github.com/ridoystarlord/fbmeta/generator"
	"github.com/ridoystarlord/fbmeta/introspect"
)

var (
	exportConnString string
	exportOutputDir  string
)

var exportCmd = &cobra.Command{
	Use:   "export-scripts",
	Short: "Export domains, tables and procedures as SQL scripts",
	Long: `Read the catalog of a live database and write domains.sql, tables.sql and
procedures.sql into output-dir. The scripts can be fed back to build-db.

Examples:
  fbmeta export-scripts --connection-string "User=SYSDBA;Password=masterkey;Database=/data/app.fdb" --output-dir ./scripts
  FIREBIRD_CONNECTION_STRING=SYSDBA:masterkey@localhost:3050//data/app.fdb fbmeta export-scripts --output-dir ./scripts
`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		connStr, err := connectionString(exportConnString)
		if err != nil {
			return err
		}
		if err := requireFlag("output-dir", exportOutputDir); err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := database.Open(ctx, connStr)
		if err != nil {
			return err
		}
		defer db.Close()

		summary, err := generator.Export(ctx, introspect.NewReader(db), exportOutputDir)
		for _, file := range summary.Files {
			fmt.Println("📝 Wrote", file)
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		color.New(color.FgGreen, color.Bold).Printf("✅ Exported %d domains, %d tables, %d procedures\n",
			summary.Domains, summary.Tables, summary.Procedures)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportConnString, "connection-string", "", "Database connection string (defaults to $FIREBIRD_CONNECTION_STRING)")
	exportCmd.Flags().StringVar(&exportOutputDir, "output-dir", "", "Directory the scripts are written to")
}
