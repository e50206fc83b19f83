package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/grim/internal/config"
	"github.com/hupe1980/grim/internal/filter"
	"github.com/hupe1980/grim/internal/logging"
	"github.com/hupe1980/grim/internal/metrics"
	"github.com/hupe1980/grim/internal/resource"
	"github.com/hupe1980/grim/internal/rules"
)

// pipeline carries the loader and its optional metrics collector.
type pipeline struct {
	cfg       *config.Config
	loader    *resource.Loader
	collector *metrics.Collector
	logger    *slog.Logger
}

// newPipeline builds a loader from the configuration in ctx.
func newPipeline(ctx context.Context, opts *sourceOptions) (*pipeline, error) {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	nameFilter, err := filter.New(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}

	loaderOpts := []resource.Option{
		resource.WithLogger(logger),
		resource.WithFilter(nameFilter.Func()),
	}

	p := &pipeline{cfg: cfg, logger: logger}

	if opts.metricsFile != "" {
		p.collector = metrics.NewCollector(prometheus.NewRegistry())
		loaderOpts = append(loaderOpts, resource.WithObserver(p.collector))
	}

	p.loader = resource.NewLoader(loaderOpts...)

	return p, nil
}

// load aggregates every source into one rule set.
func (p *pipeline) load(ctx context.Context, refs []string) (*rules.RuleSet, error) {
	loaded, err := p.loader.LoadClasspath(ctx, refs, p.cfg.MaxResourceSize)
	if err != nil {
		return nil, &ExitError{Code: ExitLoad, Err: err}
	}

	set := rules.NewRuleSet(loaded...)

	p.logger.Info("rules loaded",
		slog.Int("sources", len(refs)),
		slog.Int("omit", len(set.OmitRules())),
		slog.Int("keep", len(set.KeepRules())),
	)

	return set, nil
}

// writeMetrics writes the collected metrics when a metrics file was requested.
func (p *pipeline) writeMetrics(path string) error {
	if p.collector == nil || path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, p.collector.Registry()); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}

	return nil
}
