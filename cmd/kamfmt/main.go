package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/term"

	"github.com/jsvensson/kamfmt/internal/config"
)

var version = "dev" // Injected at build time via ldflags

// errReported signals a failure whose details were already printed.
var errReported = errors.New("failures reported")

// globalFlags are shared by every subcommand.
type globalFlags struct {
	color   string
	config  string
	verbose int
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:           "kamfmt",
		Short:         "Format and validate Kamailio configuration files",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			commonlog.Configure(flags.verbose, nil)
			return configureColor(cmd.OutOrStdout(), flags.color)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.color, "color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().StringVar(&flags.config, "config", "", "path to kamfmt.hcl or kamfmt.toml (default: discovered)")
	rootCmd.PersistentFlags().CountVarP(&flags.verbose, "verbose", "v", "increase log verbosity (repeatable)")

	rootCmd.AddCommand(newFmtCmd(&flags))
	rootCmd.AddCommand(newValidateCmd(&flags))
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return rootCmd
}

// loadConfig returns the config named by --config, or the one discovered
// from the working directory.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	if flags.config != "" {
		return config.Load(flags.config)
	}
	return config.Resolve(".")
}

// configureColor enables colored output for "on", or for "auto" when w is a
// terminal.
func configureColor(w io.Writer, mode string) error {
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(w)
	default:
		return fmt.Errorf("invalid --color %q (valid: auto, on, off)", mode)
	}
	return nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var (
	changedStyle = color.New(color.FgYellow)
	errorStyle   = color.New(color.FgRed, color.Bold)
	okStyle      = color.New(color.FgGreen)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			errorStyle.Fprint(os.Stderr, "error: ")
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
