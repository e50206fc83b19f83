package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/grim/internal/report"
	"github.com/hupe1980/grim/internal/rules"
)

type rulesOptions struct {
	sourceOptions

	format   string
	output   string
	polarity string
	summary  bool
}

func newRulesCommand() *cobra.Command {
	opts := &rulesOptions{}

	cmd := &cobra.Command{
		Use:   "rules [source...]",
		Short: "List the rules loaded from the sources",
		Long: `Load rules from the given sources and list them in load order together
with the resource and record index each rule was declared at.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(cmd, args, opts)
		},
	}

	registerSourceFlags(cmd, &opts.sourceOptions)

	f := cmd.Flags()
	f.StringVar(&opts.format, "format", report.FormatTable, "output format: table, json, yaml")
	f.StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	f.StringVar(&opts.polarity, "polarity", "", "only list omit or keep rules")
	f.BoolVar(&opts.summary, "summary", false, "print rule counts per resource instead of the rules")

	return cmd
}

func runRules(cmd *cobra.Command, args []string, opts *rulesOptions) error {
	ctx := cmd.Context()

	if err := report.ValidateFormat(opts.format); err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	if err := validatePolarity(opts.polarity); err != nil {
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

	set, err := p.load(ctx, refs)
	if err != nil {
		return err
	}

	if err := p.writeMetrics(opts.metricsFile); err != nil {
		return err
	}

	var list []*rules.Rule

	switch opts.polarity {
	case "":
		list = set.Rules()
	case rules.Omit.String():
		list = set.OmitRules()
	case rules.Keep.String():
		list = set.KeepRules()
	}

	out := report.NewOutput(opts.output, cmd.OutOrStdout(), p.logger)

	if opts.summary {
		return out.Write(func(w io.Writer) error {
			for _, line := range report.SummarizeRules(list) {
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}

			return nil
		})
	}

	return out.Write(func(w io.Writer) error {
		return report.WriteRules(w, report.RuleRows(list), opts.format)
	})
}

func validatePolarity(polarity string) error {
	switch polarity {
	case "", rules.Omit.String(), rules.Keep.String():
		return nil
	default:
		return fmt.Errorf("invalid polarity %q: must be omit or keep", polarity)
	}
}
