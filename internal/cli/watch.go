package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/grim/internal/report"
	"github.com/hupe1980/grim/internal/resource"
	"github.com/hupe1980/grim/internal/watch"
)

type watchOptions struct {
	sourceOptions
	propertyOptions
	symbolOptions

	debounce time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [source...]",
		Short: "Re-evaluate symbols whenever rules change",
		Long: `Watch rule directories, archives, the symbols file and the properties
file, and re-run the evaluation when any of them changes. Each run reports
the number of rules, how many symbols are omitted and which decisions
changed since the previous run.

Load errors are reported and the watcher keeps running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args, opts)
		},
	}

	registerSourceFlags(cmd, &opts.sourceOptions)
	registerPropertyFlags(cmd, &opts.propertyOptions)
	registerSymbolFlags(cmd, &opts.symbolOptions)

	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "debounce interval for file changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, args []string, opts *watchOptions) error {
	refs, err := opts.refs(args)
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx, &opts.sourceOptions)
	if err != nil {
		return err
	}

	watchOpts := watch.Options{
		Debounce: opts.debounce,
		Logger:   p.logger,
		Out:      cmd.ErrOrStderr(),
	}

	for _, ref := range refs {
		typ, detectErr := resource.Detect(ref)
		if detectErr != nil {
			return &ExitError{Code: ExitLoad, Err: detectErr}
		}

		if typ == resource.SourceDirectory {
			watchOpts.Dirs = append(watchOpts.Dirs, ref)
		} else {
			watchOpts.Files = append(watchOpts.Files, ref)
		}
	}

	for _, f := range []string{opts.symbolsFile, opts.propertiesFile} {
		if f != "" {
			watchOpts.Files = append(watchOpts.Files, f)
		}
	}

	runFn := func(fnCtx context.Context) (*watch.RunResult, error) {
		props, err := opts.propertyOptions.resolve(p.cfg)
		if err != nil {
			return nil, err
		}

		symbols, err := opts.symbolOptions.resolve()
		if err != nil {
			return nil, err
		}

		set, err := p.load(fnCtx, refs)
		if err != nil {
			return nil, err
		}

		if err := p.writeMetrics(opts.metricsFile); err != nil {
			return nil, err
		}

		decisions := make(map[string]bool, len(symbols))
		for _, row := range report.Evaluate(set, props, symbols) {
			decisions[row.Symbol.String()] = row.Omitted
		}

		return &watch.RunResult{Rules: set.Len(), Decisions: decisions}, nil
	}

	return watch.Run(ctx, watchOpts, runFn)
}
