package cmd

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/fbmeta/loader"
	"github.com/ridoystarlord/fbmeta/runner"
)

var statusScriptsDir string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the scripts in execution order",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFlag("scripts-dir", statusScriptsDir); err != nil {
			return err
		}

		scripts, err := loader.LoadScripts(statusScriptsDir)
		if err != nil {
			return err
		}

		showScripts(cmd, scripts)
		return nil
	},
}

func showScripts(cmd *cobra.Command, scripts []loader.Script) {
	out := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Fprintln(out, "📋 Execution order")
	fmt.Fprintln(out, strings.Repeat("=", 60))

	total := 0
	for i, s := range scripts {
		stmts := len(runner.SplitStatements(s.Source))
		total += stmts

		fmt.Fprintf(out, "%d. %-30s %-10s %3d statements  ", i+1, s.Name, s.Category, stmts)
		cyan.Fprintln(out, calculateChecksum(s.Source)[:12])
		if s.Category == loader.Unknown {
			yellow.Fprintln(out, "   ⚠️  no CREATE DOMAIN/TABLE/PROCEDURE found, runs last")
		}
	}

	fmt.Fprintln(out, strings.Repeat("-", 60))
	fmt.Fprintf(out, "📊 %d scripts, %d statements\n", len(scripts), total)
}

func calculateChecksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

func init() {
	statusCmd.Flags().StringVar(&statusScriptsDir, "scripts-dir", "", "Directory containing the .sql scripts")
}
