// Package grim provides a public Go API for loading symbol omission rules
// and deciding whether a type or member is omitted from a translated build.
//
// Rule resources are JSON arrays stored under META-INF/grim with the
// .grim.json suffix, in a directory tree, a jar/zip archive or any fs.FS.
//
// Basic usage:
//
//	set, err := grim.LoadFromDirectory(ctx, "build/classes")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if set.ShouldOmit(map[string]string{"debug": "false"}, "com.example.Foo", "trace") {
//	    // drop Foo.trace
//	}
//
// With options:
//
//	set, err := grim.LoadClasspath(ctx, "lib/a.jar:lib/b.jar",
//	    grim.WithExcludes("com.example.internal.**"),
//	    grim.WithLogger(logger),
//	    grim.WithMetrics(registry),
//	)
package grim

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/grim/internal/filter"
	"github.com/hupe1980/grim/internal/logging"
	"github.com/hupe1980/grim/internal/metrics"
	"github.com/hupe1980/grim/internal/resource"
	"github.com/hupe1980/grim/internal/rules"
)

// Rule model.
type (
	// Rule selects symbols by type and member pattern, optionally guarded by
	// a condition.
	Rule = rules.Rule
	// RuleOption configures a Rule built with NewRule.
	RuleOption = rules.RuleOption
	// RuleSet is an immutable, polarity-partitioned collection of rules.
	RuleSet = rules.RuleSet
	// Decision explains a ShouldOmit result.
	Decision = rules.Decision
	// Condition is a single property equality or inequality test.
	Condition = rules.Condition
	// Polarity is either Omit or Keep.
	Polarity = rules.Polarity
	// Namespace lists and opens rule resources.
	Namespace = resource.Namespace
)

// Rule polarities.
const (
	Omit = rules.Omit
	Keep = rules.Keep
)

// Error types.
type (
	PatternError            = rules.PatternError
	MalformedConditionError = rules.MalformedConditionError
	DecodeError             = rules.DecodeError
	ResourceFetchError      = resource.ResourceFetchError
	DiscoveryError          = resource.DiscoveryError
)

// Sentinel errors matched with errors.Is.
var (
	ErrInvalidPattern     = rules.ErrInvalidPattern
	ErrMalformedCondition = rules.ErrMalformedCondition
	ErrDecode             = rules.ErrDecode
	ErrResourceFetch      = resource.ErrResourceFetch
	ErrDiscovery          = resource.ErrDiscovery
)

// Rule construction.
var (
	NewRule       = rules.NewRule
	MustNewRule   = rules.MustNewRule
	NewCondition  = rules.NewCondition
	NewRuleSet    = rules.NewRuleSet
	WithMember    = rules.WithMember
	WithCondition = rules.WithCondition
	Decode        = rules.Decode
	RecordIndex   = rules.RecordIndex

	// NewFSNamespace exposes an fs.FS rooted above META-INF as a Namespace.
	NewFSNamespace = resource.NewFSNamespace
)

// Option configures loading.
type Option func(*options)

type options struct {
	accept   func(string) bool
	includes []string
	excludes []string
	logger   *slog.Logger
	registry *prometheus.Registry
	maxSize  int64
}

// WithFilter only loads resources whose logical name (for example
// "com.example.Foo") satisfies accept.
func WithFilter(accept func(logicalName string) bool) Option {
	return func(o *options) { o.accept = accept }
}

// WithIncludes only loads resources whose logical name matches one of the
// glob patterns. Dots separate segments and ** spans several.
func WithIncludes(patterns ...string) Option {
	return func(o *options) { o.includes = append(o.includes, patterns...) }
}

// WithExcludes skips resources whose logical name matches one of the glob
// patterns.
func WithExcludes(patterns ...string) Option {
	return func(o *options) { o.excludes = append(o.excludes, patterns...) }
}

// WithLogger sets the logger for per-resource diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics registers load metrics with registry.
func WithMetrics(registry *prometheus.Registry) Option {
	return func(o *options) { o.registry = registry }
}

// WithMaxResourceSize caps the size of a single rule resource in bytes.
func WithMaxResourceSize(n int64) Option {
	return func(o *options) { o.maxSize = n }
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:  logging.Discard(),
		maxSize: resource.DefaultMaxResourceSize,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *options) loader() (*resource.Loader, error) {
	nameFilter, err := filter.New(o.includes, o.excludes)
	if err != nil {
		return nil, err
	}

	loaderOpts := []resource.Option{
		resource.WithLogger(o.logger),
		resource.WithFilter(filter.All(o.accept, nameFilter.Func())),
	}

	if o.registry != nil {
		loaderOpts = append(loaderOpts, resource.WithObserver(metrics.NewCollector(o.registry)))
	}

	return resource.NewLoader(loaderOpts...), nil
}

// Load aggregates every rule resource in ns. The first failing resource
// aborts the load.
func Load(ctx context.Context, ns Namespace, opts ...Option) (*RuleSet, error) {
	l, err := newOptions(opts).loader()
	if err != nil {
		return nil, err
	}

	loaded, err := l.Load(ctx, ns)
	if err != nil {
		return nil, err
	}

	return rules.NewRuleSet(loaded...), nil
}

// Validate checks every rule resource in ns, continuing past failures. It
// returns the number of rules decoded and all failures joined.
func Validate(ctx context.Context, ns Namespace, opts ...Option) (int, error) {
	l, err := newOptions(opts).loader()
	if err != nil {
		return 0, err
	}

	return l.Validate(ctx, ns)
}

// LoadFromFS loads rules from an fs.FS rooted above META-INF.
func LoadFromFS(ctx context.Context, fsys fs.FS, opts ...Option) (*RuleSet, error) {
	o := newOptions(opts)

	return Load(ctx, resource.NewFSNamespace(fsys, o.maxSize), opts...)
}

// LoadFromDirectory loads rules from a directory containing META-INF/grim.
func LoadFromDirectory(ctx context.Context, dir string, opts ...Option) (*RuleSet, error) {
	ns, err := resource.NewDirectoryNamespace(dir, newOptions(opts).maxSize)
	if err != nil {
		return nil, err
	}

	return Load(ctx, ns, opts...)
}

// LoadFromArchive loads rules from a jar or zip archive.
func LoadFromArchive(ctx context.Context, path string, opts ...Option) (*RuleSet, error) {
	ns, err := resource.OpenArchive(path, newOptions(opts).maxSize)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ns.Close() }()

	return Load(ctx, ns, opts...)
}

// LoadClasspath loads rules from every directory and archive in a classpath
// string separated by the OS path list separator.
func LoadClasspath(ctx context.Context, classpath string, opts ...Option) (*RuleSet, error) {
	refs := resource.SplitClasspath(classpath)
	if len(refs) == 0 {
		return nil, fmt.Errorf("empty classpath")
	}

	o := newOptions(opts)

	l, err := o.loader()
	if err != nil {
		return nil, err
	}

	loaded, err := l.LoadClasspath(ctx, refs, o.maxSize)
	if err != nil {
		return nil, err
	}

	return rules.NewRuleSet(loaded...), nil
}
