package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsvensson/kamfmt/internal/config"
	"github.com/jsvensson/kamfmt/internal/lsp"
)

var version = "dev"

func main() {
	var (
		configPath string
		verbose    int
	)

	rootCmd := &cobra.Command{
		Use:          "kamailio-lsp",
		Short:        "Language server for Kamailio configuration files (stdio)",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.Config
			var err error
			if configPath != "" {
				cfg, err = config.Load(configPath)
			} else {
				cfg, err = config.Resolve(".")
			}
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			s, err := lsp.NewServer(version, cfg)
			if err != nil {
				return err
			}
			return s.Run(1 + verbose)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "path to kamfmt.hcl or kamfmt.toml (default: discovered)")
	rootCmd.Flags().CountVarP(&verbose, "verbose", "v", "increase log verbosity (repeatable)")
	// Editors commonly pass --stdio; stdio is the only transport.
	rootCmd.Flags().Bool("stdio", true, "communicate over stdin/stdout")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
