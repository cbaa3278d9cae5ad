package cmd

import (
	"github.com/spf13/cobra"
)

var configCmdFlags *configFlags

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Config prints the configuration that train would use with the same
flags, as YAML. The output can be passed back with --config.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := configCmdFlags.resolve(cmd.Flags(), configPath)
		if err != nil {
			return err
		}
		out, err := c.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmdFlags = newConfigFlags(configCmd.Flags())
}
