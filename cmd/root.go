package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/fbmeta/database"
	"github.com/ridoystarlord/fbmeta/loader"
	"github.com/ridoystarlord/fbmeta/utils"
)

// Exit codes
const (
	exitOK         = 0
	exitValidation = 1
	exitFailure    = -1
)

var errUsage = errors.New("usage error")

var rootCmd = &cobra.Command{
	Use:   "fbmeta",
	Short: "Build, export and update Firebird schemas from SQL scripts",
	Long: `fbmeta keeps a Firebird database and a directory of DDL scripts in sync.

Examples:

  fbmeta build-db --db-dir ./db --scripts-dir ./scripts
  fbmeta export-scripts --connection-string "User=SYSDBA;Password=masterkey;Database=/data/app.fdb" --output-dir ./scripts
  fbmeta update-db --connection-string "SYSDBA:masterkey@localhost:3050//data/app.fdb" --scripts-dir ./scripts
`,
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
		}
		cmd.Help()
		return fmt.Errorf("%w: no command given", errUsage)
	},
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println("❌", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage),
		errors.Is(err, loader.ErrScriptsDirNotFound),
		errors.Is(err, loader.ErrNoScripts),
		errors.Is(err, database.ErrInvalidConnectionString):
		return exitValidation
	default:
		return exitFailure
	}
}

func usageArgs(args cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := args(cmd, a); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return nil
	}
}

func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: --%s is required", errUsage, name)
	}
	return nil
}

// connectionString falls back to FIREBIRD_CONNECTION_STRING when the flag is
// empty.
func connectionString(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	utils.LoadEnv()
	if connStr := utils.GetConnectionString(); connStr != "" {
		return connStr, nil
	}
	return "", fmt.Errorf("%w: --connection-string is required (or set FIREBIRD_CONNECTION_STRING)", errUsage)
}

// Register subcommands
func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(initCmd)
}
