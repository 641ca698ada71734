package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/vectorsync/configs"
)

// newInitCmd creates the init command.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long:  `Init writes an annotated ` + DefaultConfigFile + ` to the working directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(DefaultConfigFile); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", DefaultConfigFile)
			}
			if err := os.WriteFile(DefaultConfigFile, []byte(configs.ConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", DefaultConfigFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", DefaultConfigFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
