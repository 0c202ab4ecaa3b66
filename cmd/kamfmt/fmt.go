package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jsvensson/kamfmt/internal/driver"
	"github.com/jsvensson/kamfmt/internal/format"
	"github.com/jsvensson/kamfmt/internal/validate"
)

type fmtOptions struct {
	check    bool
	stdout   bool
	output   string
	strategy string
	validate bool
	jobs     int
}

func newFmtCmd(flags *globalFlags) *cobra.Command {
	var opts fmtOptions

	cmd := &cobra.Command{
		Use:   "fmt [paths...]",
		Short: "Format Kamailio configuration files",
		Long: `Format configuration files in place and print the name of each file that
was modified. Directories are searched for files matching files.include in the
project config. Without arguments, the directory holding the project config
is formatted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, flags, &opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.check, "check", "c", false, "check if files are formatted (do not write changes)")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "print formatted content instead of writing files")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "report format (text|json)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "formatting strategy (rules|braces); overrides the project config")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "refuse to rewrite structurally invalid files")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "files formatted in parallel (default: number of CPUs)")

	return cmd
}

func runFmt(cmd *cobra.Command, flags *globalFlags, opts *fmtOptions, args []string) error {
	if opts.output != "text" && opts.output != "json" {
		return fmt.Errorf("invalid --output %q (valid: text, json)", opts.output)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	strategy := cfg.Format.Strategy
	if opts.strategy != "" {
		strategy = opts.strategy
	}
	formatter, err := format.ByName(strategy)
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

	results, err := driver.FormatPaths(cmd.Context(), files, driver.Options{
		Formatter: formatter,
		Check:     opts.check,
		Stdout:    opts.stdout,
		Validate:  opts.validate || cfg.Format.Validate,
		Jobs:      opts.jobs,
	})
	if err != nil {
		return err
	}

	if opts.output == "json" {
		err = writeFmtJSON(cmd.OutOrStdout(), results)
	} else {
		writeFmtText(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, opts.stdout)
	}
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != nil || (opts.check && r.Changed) {
			return errReported
		}
	}
	return nil
}

func writeFmtText(stdout, stderr io.Writer, results []driver.Result, printContent bool) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			reportError(stderr, r.Path, r.Err)
		case printContent:
			stdout.Write(r.Formatted)
		case r.Changed:
			changedStyle.Fprintln(stdout, r.Path)
		}
	}
}

// reportError prints path:line: message for structural errors and
// path: error otherwise.
func reportError(w io.Writer, path string, err error) {
	var verr *validate.Error
	if errors.As(err, &verr) && verr.Line > 0 {
		errorStyle.Fprintf(w, "%s:%d: ", path, verr.Line)
		fmt.Fprintln(w, verr.Msg)
		return
	}
	errorStyle.Fprintf(w, "%s: ", path)
	fmt.Fprintln(w, err)
}

type fmtReport struct {
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
	Line    int    `json:"line,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeFmtJSON(w io.Writer, results []driver.Result) error {
	reports := make([]fmtReport, 0, len(results))
	for _, r := range results {
		report := fmtReport{Path: r.Path, Changed: r.Changed}
		if r.Err != nil {
			report.Error = r.Err.Error()
			var verr *validate.Error
			if errors.As(r.Err, &verr) {
				report.Line = verr.Line
				report.Error = verr.Msg
			}
		}
		reports = append(reports, report)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
