package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/grim/internal/report"
)

type checkOptions struct {
	sourceOptions
	propertyOptions
	symbolOptions

	format     string
	output     string
	failOnOmit bool
}

func newCheckCommand() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [source...]",
		Short: "Decide whether symbols are omitted",
		Long: `Load rules from the given sources and report, for each symbol, whether
it is omitted under the compile-time properties. A symbol is omitted when
some omit rule matches it and no keep rule does.

Symbols are written as a qualified type name, optionally followed by
#member. Returns exit code 5 with --fail-on-omit when any symbol is omitted.`,
		Example: `  grim check build/classes -s com.example.Foo -s 'com.example.Foo#debug'
  grim check -c 'lib/a.jar:lib/b.jar' --symbols-file symbols.txt -D debug=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	registerSourceFlags(cmd, &opts.sourceOptions)
	registerPropertyFlags(cmd, &opts.propertyOptions)
	registerSymbolFlags(cmd, &opts.symbolOptions)

	f := cmd.Flags()
	f.StringVar(&opts.format, "format", report.FormatTable, "output format: table, json, yaml")
	f.StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	f.BoolVar(&opts.failOnOmit, "fail-on-omit", false, "exit with code 5 when any symbol is omitted")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *checkOptions) error {
	ctx := cmd.Context()

	if err := report.ValidateFormat(opts.format); err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	refs, err := opts.refs(args)
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx, &opts.sourceOptions)
	if err != nil {
		return err
	}

	props, err := opts.propertyOptions.resolve(p.cfg)
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

	rows := report.Evaluate(set, props, symbols)

	out := report.NewOutput(opts.output, cmd.OutOrStdout(), p.logger)
	if err := out.Write(func(w io.Writer) error {
		return report.WriteDecisions(w, rows, opts.format)
	}); err != nil {
		return err
	}

	if n := report.CountOmitted(rows); opts.failOnOmit && n > 0 {
		return &ExitError{Code: ExitOmittedFail, Err: fmt.Errorf("%d of %d symbol(s) omitted", n, len(rows))}
	}

	return nil
}
