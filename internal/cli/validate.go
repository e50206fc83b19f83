package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/grim/internal/resource"
)

func newValidateCommand() *cobra.Command {
	opts := &sourceOptions{}

	cmd := &cobra.Command{
		Use:   "validate [source...]",
		Short: "Validate every rule resource in the sources",
		Long: `Walk every rule resource in the given sources, decode it and compile
its patterns. Unlike the other commands validation continues past failures
and reports all of them.

Returns exit code 4 when any resource is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, opts)
		},
	}

	registerSourceFlags(cmd, opts)

	return cmd
}

func runValidate(cmd *cobra.Command, args []string, opts *sourceOptions) error {
	ctx := cmd.Context()

	refs, err := opts.refs(args)
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx, opts)
	if err != nil {
		return err
	}

	checked, validateErr := p.loader.ValidateClasspath(ctx, refs, p.cfg.MaxResourceSize)

	if err := p.writeMetrics(opts.metricsFile); err != nil {
		return err
	}

	if validateErr != nil {
		failures := resource.Failures(validateErr)
		for _, e := range failures {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  ✗ %v\n", e)
		}

		return &ExitError{Code: ExitInvalid, Err: fmt.Errorf("validation failed with %d error(s)", len(failures))}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Validation passed: %d rule(s) decoded.\n", checked)

	return nil
}
