package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/grim/internal/config"
	"github.com/hupe1980/grim/internal/report"
)

type diffOptions struct {
	sourceOptions
	symbolOptions

	base       []string
	target     []string
	baseFile   string
	targetFile string
	context    int
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff [source...]",
		Short: "Compare decisions under two sets of compile-time properties",
		Long: `Evaluate the same symbols under a base and a target set of compile-time
properties and print a unified diff of the decisions. Both sets start from
the properties in the config file.`,
		Example: `  grim diff build/classes --symbols-file symbols.txt --base debug=false --target debug=true`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args, opts)
		},
	}

	registerSourceFlags(cmd, &opts.sourceOptions)
	registerSymbolFlags(cmd, &opts.symbolOptions)

	f := cmd.Flags()
	f.StringArrayVar(&opts.base, "base", nil, "base property (key=value), repeatable")
	f.StringArrayVar(&opts.target, "target", nil, "target property (key=value), repeatable")
	f.StringVar(&opts.baseFile, "base-file", "", "YAML or JSON file with base properties")
	f.StringVar(&opts.targetFile, "target-file", "", "YAML or JSON file with target properties")
	f.IntVar(&opts.context, "context", 3, "lines of context in the diff")

	return cmd
}

func runDiff(cmd *cobra.Command, args []string, opts *diffOptions) error {
	ctx := cmd.Context()

	refs, err := opts.refs(args)
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx, &opts.sourceOptions)
	if err != nil {
		return err
	}

	base, err := (&propertyOptions{properties: opts.base, propertiesFile: opts.baseFile}).resolve(p.cfg)
	if err != nil {
		return err
	}

	target, err := (&propertyOptions{properties: opts.target, propertiesFile: opts.targetFile}).resolve(p.cfg)
	if err != nil {
		return err
	}

	symbols, err := opts.symbolOptions.resolve()
	if err != nil {
		return err
	}

	set, err := p.load(ctx, refs)
	if err != nil {
		return err
	}

	if err := p.writeMetrics(opts.metricsFile); err != nil {
		return err
	}

	diffOpts := report.DefaultDiffOptions()
	diffOpts.Context = opts.context

	result, err := report.DiffDecisions(set, base, target, symbols, diffOpts)
	if err != nil {
		return &ExitError{Code: ExitGeneric, Err: fmt.Errorf("computing diff: %w", err)}
	}

	report.WriteDiff(cmd.OutOrStdout(), result, !config.FromContext(ctx).NoColor)

	return nil
}
