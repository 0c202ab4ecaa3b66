package main

import (
	"github.com/spf13/cobra"

	"github.com/jsvensson/kamfmt/internal/driver"
)

func newValidateCmd(flags *globalFlags) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "validate [paths...]",
		Short: "Check that blocks and #!ifdef conditionals are balanced",
		Long: `Check every configuration file for unbalanced braces and preprocessor
conditionals. Each failure is printed as path:line: message. The command exits
non-zero if any file is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				paths = []string{cfg.Dir}
			}
			files, err := driver.CollectFiles(cmd.Context(), paths, cfg.Files)
			if err != nil {
				return err
			}

			results, err := driver.ValidatePaths(cmd.Context(), files, jobs)
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					reportError(cmd.ErrOrStderr(), r.Path, r.Err)
					failed++
				}
			}
			if failed > 0 {
				return errReported
			}
			if flags.verbose > 0 {
				okStyle.Fprintf(cmd.OutOrStdout(), "%d files valid\n", len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files validated in parallel (default: number of CPUs)")
	return cmd
}
