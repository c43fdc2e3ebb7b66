package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fwojciec/interpret/config"
	"github.com/fwojciec/interpret/logger"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const rootLongDesc string = `kubeinterp asks the dashboard backend to explain Kubernetes resources and
cluster issues, and shows the answer as it streams in.

Configuration is read from config.toml in the user config directory or the
working directory, then KUBEINTERP_* environment variables, then flags.

Examples:
  kubeinterp yaml --file deploy/web.yaml
  kubeinterp yaml --resource deployments.v1.apps --name web -n shop
  kubeinterp issues --limit 5
  kubeinterp replay --text testdata/answer.md`

const skipConfig = "skip-config"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	plain      bool

	cfg    *config.Config
	logger *slog.Logger
	// fileLogger writes only to log.file. It replaces logger while the
	// panel owns the terminal. Nil when no log file is configured.
	fileLogger *slog.Logger
	stdout io.Writer
	stderr io.Writer

	closers []io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "kubeinterp",
		Short:         "Streaming AI interpretation for Kubernetes",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.stdout = cmd.OutOrStdout()
			a.stderr = cmd.ErrOrStderr()
			if cmd.Annotations[skipConfig] == "true" {
				a.logger = logger.Nop()
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVar(&a.configPath, "config", "", "path to config.toml")
	fs.BoolVar(&a.plain, "plain", false, "print the interpretation as it arrives instead of opening the panel")
	for _, name := range []string{
		config.FlagServer,
		config.FlagToken,
		config.FlagLanguage,
		config.FlagEnabled,
		config.FlagMarkdown,
		config.FlagDebug,
		config.FlagJSONLogs,
		config.FlagLogFile,
		config.FlagMetricsListen,
		config.FlagKubeconfig,
	} {
		config.AddFlag(fs, name)
	}

	cmd.AddCommand(newYAMLCmd(a))
	cmd.AddCommand(newIssuesCmd(a))
	cmd.AddCommand(newReplayCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	log := logger.New(
		logger.WithWriter(a.stderr),
		logger.WithDebug(cfg.Log.Debug),
		logger.WithJSON(cfg.Log.JSON),
		logger.WithPretty(cfg.Log.Pretty),
	)
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.closers = append(a.closers, f)
		a.fileLogger = logger.New(
			logger.WithWriter(f),
			logger.WithJSON(true),
			logger.WithDebug(cfg.Log.Debug),
		)
		log = logger.Multi(log, a.fileLogger)
	}
	a.logger = log
	return nil
}

func (a *app) close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// panelLogger returns the logger to use while the panel is open.
func (a *app) panelLogger() *slog.Logger {
	if a.fileLogger != nil {
		return a.fileLogger
	}
	return logger.Nop()
}

// usePanel reports whether the interpretation panel should be opened.
func (a *app) usePanel() bool {
	if a.plain {
		return false
	}
	f, ok := a.stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
