package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/hupe1980/grim/internal/rules"
)

// Namespace layout of rule resources.
const (
	// RootSegment is the namespace root that is walked.
	RootSegment = "META-INF/grim"
	// Suffix marks a rule resource leaf.
	Suffix = ".grim.json"
)

// Sentinel errors for resource loading.
var (
	// ErrResourceFetch indicates an accepted resource could not be read.
	ErrResourceFetch = errors.New("resource fetch failed")
	// ErrDiscovery indicates a namespace segment could not be listed.
	ErrDiscovery = errors.New("resource discovery failed")
)

// ResourceFetchError reports a resource that discovery accepted but that
// could not be read.
type ResourceFetchError struct {
	Resource string
	Err      error
}

func (e *ResourceFetchError) Error() string {
	return fmt.Sprintf("failed to read rule resource %s: %v", e.Resource, e.Err)
}

func (e *ResourceFetchError) Unwrap() error { return e.Err }

// Is matches [ErrResourceFetch].
func (e *ResourceFetchError) Is(target error) bool { return target == ErrResourceFetch }

// DiscoveryError reports a namespace segment that could not be listed.
type DiscoveryError struct {
	Segment string
	Err     error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("failed to list rule namespace %s: %v", e.Segment, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Is matches [ErrDiscovery].
func (e *DiscoveryError) Is(target error) bool { return target == ErrDiscovery }

// Entry is a discovered rule resource.
type Entry struct {
	// ID is the resource identifier within its namespace.
	ID string
	// LogicalName is the dotted name derived from ID.
	LogicalName string
}

// Outcome classifies what happened to one discovered resource.
type Outcome string

const (
	// OutcomeLoaded is a resource that was fetched and decoded.
	OutcomeLoaded Outcome = "loaded"
	// OutcomeSkipped is a resource rejected by the name filter.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed is a resource that could not be fetched or decoded.
	OutcomeFailed Outcome = "failed"
)

// Observer receives loader events, typically to record metrics.
type Observer interface {
	ObserveResource(outcome Outcome)
	ObserveRules(loaded []*rules.Rule)
	ObserveLoad(elapsed time.Duration, err error)
}

// Option configures a [Loader].
type Option func(*Loader)

// WithFilter only loads resources whose logical name satisfies accept.
func WithFilter(accept func(logicalName string) bool) Option {
	return func(l *Loader) {
		l.accept = accept
	}
}

// WithLogger sets the logger used for per-resource diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver reports loader events to o.
func WithObserver(o Observer) Option {
	return func(l *Loader) {
		l.observer = o
	}
}

// Loader discovers rule resources in a namespace and decodes them.
type Loader struct {
	accept   func(string) bool
	logger   *slog.Logger
	observer Observer
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Discover walks the namespace from RootSegment and returns the accepted
// resources in walk order. Filtered resources are not returned.
func (l *Loader) Discover(ctx context.Context, ns Namespace) ([]Entry, error) {
	var entries []Entry
	if err := l.walk(ctx, ns, RootSegment, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// Load discovers, fetches and decodes every accepted resource. The first
// failure aborts the whole load and no rules are returned.
func (l *Loader) Load(ctx context.Context, ns Namespace) (loaded []*rules.Rule, err error) {
	start := time.Now()

	defer func() {
		if l.observer != nil {
			l.observer.ObserveLoad(time.Since(start), err)
		}
	}()

	entries, err := l.Discover(ctx, ns)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		decoded, err := l.loadEntry(ctx, ns, e)
		if err != nil {
			return nil, err
		}

		loaded = append(loaded, decoded...)
	}

	return loaded, nil
}

// Validate loads every accepted resource, continuing past failures, and
// returns the number of rules decoded together with all failures joined.
func (l *Loader) Validate(ctx context.Context, ns Namespace) (int, error) {
	entries, err := l.Discover(ctx, ns)
	if err != nil {
		return 0, err
	}

	var (
		count int
		errs  []error
	)

	for _, e := range entries {
		decoded, err := l.loadEntry(ctx, ns, e)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return count, ctxErr
			}

			errs = append(errs, err)

			continue
		}

		count += len(decoded)
	}

	return count, errors.Join(errs...)
}

func (l *Loader) loadEntry(ctx context.Context, ns Namespace, e Entry) ([]*rules.Rule, error) {
	data, err := ns.Open(ctx, e.ID)
	if err != nil {
		l.observeResource(OutcomeFailed)

		return nil, &ResourceFetchError{Resource: e.ID, Err: err}
	}

	decoded, err := rules.Decode(e.ID, data)
	if err != nil {
		l.observeResource(OutcomeFailed)

		return nil, err
	}

	l.observeResource(OutcomeLoaded)

	if l.observer != nil {
		l.observer.ObserveRules(decoded)
	}

	l.logger.Debug("loaded rule resource",
		slog.String("resource", e.ID),
		slog.String("logicalName", e.LogicalName),
		slog.Int("rules", len(decoded)),
	)

	return decoded, nil
}

// walk lists segment and collects leaves, recursing into identifier-named
// children.
func (l *Loader) walk(ctx context.Context, ns Namespace, segment string, entries *[]Entry) error {
	children, err := ns.List(ctx, segment)
	if err != nil {
		return &DiscoveryError{Segment: segment, Err: err}
	}

	for _, child := range children {
		id := segment + "/" + child

		if strings.HasSuffix(child, Suffix) {
			name := LogicalName(id)
			if l.accept != nil && !l.accept(name) {
				l.observeResource(OutcomeSkipped)
				l.logger.Debug("skipping filtered rule resource",
					slog.String("resource", id),
					slog.String("logicalName", name),
				)

				continue
			}

			*entries = append(*entries, Entry{ID: id, LogicalName: name})

			continue
		}

		if IsIdentifier(child) {
			if err := l.walk(ctx, ns, id, entries); err != nil {
				return err
			}
		}
	}

	return nil
}

func (l *Loader) observeResource(outcome Outcome) {
	if l.observer != nil {
		l.observer.ObserveResource(outcome)
	}
}

// LogicalName maps a resource identifier to its dotted logical name.
func LogicalName(id string) string {
	name := strings.TrimPrefix(id, RootSegment+"/")
	name = strings.TrimSuffix(name, Suffix)

	return strings.ReplaceAll(name, "/", ".")
}

// IsIdentifier reports whether name can be a namespace segment: a letter,
// '_' or '$' followed by letters, digits, '_' or '$'.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}

	return true
}
