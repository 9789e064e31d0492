package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/fbmeta/config"
	"github.com/ridoystarlord/fbmeta/database"
	"github.com/ridoystarlord/fbmeta/loader"
	"github.com/ridoystarlord/fbmeta/runner"
)

var (
	buildDBDir      string
	buildScriptsDir string
	buildConfigFile string
	dryRunBuild     bool
)

var buildCmd = &cobra.Command{
	Use:   "build-db",
	Short: "Create a new database and run the scripts against it",
	Long: `Create <db-dir>/new_database.fdb (page size 4096, dialect 3, UTF8), replacing
any database a previous build left there, and execute every script in
scripts-dir: domains first, then tables, then procedures, then everything else.
The first failing statement aborts the build.

Examples:
  fbmeta build-db --db-dir ./db --scripts-dir ./scripts
  fbmeta build-db --db-dir ./db --scripts-dir ./scripts --dry-run
`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFlag("db-dir", buildDBDir); err != nil {
			return err
		}
		if err := requireFlag("scripts-dir", buildScriptsDir); err != nil {
			return err
		}

		scripts, err := loader.LoadScripts(buildScriptsDir)
		if err != nil {
			return err
		}

		if dryRunBuild {
			return previewScripts(cmd, scripts)
		}

		cfg, err := config.Load(buildConfigFile)
		if err != nil {
			return err
		}

		dbPath, replaced, err := prepareDatabaseFile(buildDBDir, cfg.DatabaseFile)
		if err != nil {
			return err
		}
		if replaced {
			color.New(color.FgYellow).Printf("⚠️  Replacing existing database %s\n", dbPath)
		}

		ctx := cmd.Context()
		db, err := database.Create(ctx, cfg.DSN(dbPath))
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Printf("🗄️  Created database %s\n", dbPath)

		executed, err := runner.Build(ctx, db, scripts)
		if err != nil {
			return fmt.Errorf("build aborted after %d statements: %w", executed, err)
		}

		color.New(color.FgGreen, color.Bold).Printf("✅ Database built: %d scripts, %d statements\n", len(scripts), executed)
		return nil
	},
}

// prepareDatabaseFile creates dir when absent and returns the absolute path
// of the database file inside it. A database left there by an earlier build
// is removed, so every build starts from an empty file.
func prepareDatabaseFile(dir, name string) (string, bool, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", false, fmt.Errorf("creating database directory: %w", err)
	}
	dbPath, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return "", false, fmt.Errorf("resolving database path: %w", err)
	}

	info, err := os.Stat(dbPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return dbPath, false, nil
	case err != nil:
		return "", false, fmt.Errorf("checking database file: %w", err)
	case info.IsDir():
		return "", false, fmt.Errorf("database path %s is a directory", dbPath)
	}

	if err := os.Remove(dbPath); err != nil {
		return "", false, fmt.Errorf("removing existing database: %w", err)
	}
	return dbPath, true, nil
}

// previewScripts backs --dry-run: it prints what would be executed.
func previewScripts(cmd *cobra.Command, scripts []loader.Script) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🔍 Dry run: nothing will be executed")

	total, err := runner.Preview(out, scripts)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}

	fmt.Fprintf(out, "\n📊 %d scripts, %d statements\n", len(scripts), total)
	return nil
}

func init() {
	buildCmd.Flags().StringVar(&buildDBDir, "db-dir", "", "Directory the new database file is created in")
	buildCmd.Flags().StringVar(&buildScriptsDir, "scripts-dir", "", "Directory containing the .sql scripts")
	buildCmd.Flags().StringVar(&buildConfigFile, "config", config.DefaultFile, "Connection settings file")
	buildCmd.Flags().BoolVar(&dryRunBuild, "dry-run", false, "Print the statements that would be executed without creating the database")
}
