package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/fbmeta/database"
	"github.com/ridoystarlord/fbmeta/loader"
	"github.com/ridoystarlord/fbmeta/runner"
)

var (
	updateConnString string
	updateScriptsDir string
	dryRunUpdate     bool
)

var updateCmd = &cobra.Command{
	Use:   "update-db",
	Short: "Apply scripts to an existing database, one statement at a time",
	Long: `Apply every statement of the scripts in scripts-dir to an existing database.
Each statement runs in its own transaction; a failing statement is rolled back
and reported, and the update continues with the next one.

Examples:
  fbmeta update-db --connection-string "User=SYSDBA;Password=masterkey;Database=/data/app.fdb" --scripts-dir ./scripts
  fbmeta update-db --scripts-dir ./scripts --dry-run
`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFlag("scripts-dir", updateScriptsDir); err != nil {
			return err
		}

		scripts, err := loader.LoadScripts(updateScriptsDir)
		if err != nil {
			return err
		}

		if dryRunUpdate {
			return previewScripts(cmd, scripts)
		}

		connStr, err := connectionString(updateConnString)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := database.Open(ctx, connStr)
		if err != nil {
			return err
		}
		defer db.Close()

		summary := runner.Update(ctx, db, scripts, reportResult)

		fmt.Println()
		if summary.Failed > 0 {
			color.New(color.FgYellow, color.Bold).Printf("⚠️  Update finished: %d applied, %d failed\n", summary.Applied, summary.Failed)
			return nil
		}
		color.New(color.FgGreen, color.Bold).Printf("✅ Update finished: %d applied\n", summary.Applied)
		return nil
	},
}

func reportResult(res runner.Result) {
	if res.OK() {
		color.New(color.FgGreen).Printf("✅ [%s] %s\n", res.Script, runner.FirstLine(res.Statement))
		return
	}
	color.New(color.FgRed).Printf("❌ [%s] %s\n", res.Script, runner.FirstLine(res.Statement))
	color.New(color.FgCyan).Printf("   📄 %v\n", res.Err)
}

func init() {
	updateCmd.Flags().StringVar(&updateConnString, "connection-string", "", "Database connection string (defaults to $FIREBIRD_CONNECTION_STRING)")
	updateCmd.Flags().StringVar(&updateScriptsDir, "scripts-dir", "", "Directory containing the .sql scripts")
	updateCmd.Flags().BoolVar(&dryRunUpdate, "dry-run", false, "Print the statements that would be executed without connecting")
}
