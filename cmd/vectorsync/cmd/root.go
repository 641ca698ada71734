// Package cmd provides the CLI commands for vectorsync.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/vectorsync/internal/config"
	"github.com/Aman-CERP/vectorsync/pkg/version"
)

// DefaultConfigFile is the config file looked up in the working
// directory when --config is not given.
const DefaultConfigFile = ".vectorsync.yaml"

var (
	configPath string
	debugMode  bool
)

// NewRootCmd creates the root command for the vectorsync CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vectorsync",
		Short: "Incremental indexing for vector stores",
		Long: `vectorsync indexes document sources into a vector store
incrementally: unchanged documents are skipped, changed ones replace
their previous chunks, and collections share storage through tags.

Run 'vectorsync init' to write a starter config, then
'vectorsync index --collection docs --path ./docs' to index.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("vectorsync version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: "+DefaultConfigFile+" if present)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCollectionsCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig resolves the effective configuration: the --config file if
// given, else ./.vectorsync.yaml if present, else built-in defaults.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path == "" {
		cfg := config.DefaultConfig()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
