package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/fbmeta/config"
)

var initConfigFile string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample fbmeta.yaml with the default connection settings",
	Long: `Write a sample configuration file used by build-db.

Settings can be overridden with FIREBIRD_USER, FIREBIRD_PASSWORD, FIREBIRD_HOST,
FIREBIRD_PORT and FIREBIRD_CHARSET, either exported or placed in a .env file.

Examples:
  fbmeta init
  fbmeta init --config ./deploy/fbmeta.yaml
`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Default().Save(initConfigFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Created %s example file.\n", initConfigFile)
		fmt.Fprintln(cmd.OutOrStdout(), "🚀 Run 'fbmeta build-db --db-dir <dir> --scripts-dir <dir>' to create a database")
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initConfigFile, "config", config.DefaultFile, "Path of the file to create")
}
