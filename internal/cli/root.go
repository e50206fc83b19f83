// Package cli implements the cobra command tree for grim.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/grim/internal/config"
	"github.com/hupe1980/grim/internal/logging"
)

// Process exit codes.
const (
	ExitGeneric     = 1
	ExitUsage       = 2
	ExitLoad        = 3
	ExitInvalid     = 4
	ExitOmittedFail = 5
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return ExitGeneric
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "grim",
		Short: "Decide which symbols are omitted from a translated build",
		Long: `grim loads declarative omit and keep rules from rule directories and
archives and answers, for a set of compile-time properties, whether a type
or member is omitted from the translated output.

Rule resources live under META-INF/grim and end in .grim.json. Sources are
given as arguments or as a classpath (--classpath) of directories and
.jar/.zip archives.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}

			logger := logging.Setup(cfg)

			cmd.SetContext(commandContext(cmd.Context(), cfg, logger, cmd.Name()))

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("configFile", cfg.ConfigFile),
				slog.Int("properties", len(cfg.Properties)),
			)

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .grim.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.StringSlice("include", nil, "only load rule resources whose logical name matches (glob, ** aware)")
	pf.StringSlice("exclude", nil, "skip rule resources whose logical name matches (glob, ** aware)")
	pf.Int64("max-resource-size", config.DefaultMaxResourceSize, "maximum size of a single rule resource in bytes")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Err: err}
	})

	cmd.AddCommand(
		newVersionCommand(),
		newCheckCommand(),
		newRulesCommand(),
		newValidateCommand(),
		newDiffCommand(),
		newWatchCommand(),
		newCompletionCommand(),
	)

	return cmd
}

// commandContext carries cfg and a logger scoped to the running command.
func commandContext(ctx context.Context, cfg *config.Config, logger *slog.Logger, command string) context.Context {
	ctx = config.NewContext(ctx, cfg)
	ctx = logging.NewContext(ctx, logger)

	return logging.With(ctx, slog.String("command", command))
}
