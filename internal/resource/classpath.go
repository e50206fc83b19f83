package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/grim/internal/rules"
)

// LoadClasspath loads rules from each classpath entry in order. Entries are
// directories or jar/zip archives. Loading stops at the first failing entry.
func (l *Loader) LoadClasspath(ctx context.Context, refs []string, maxSize int64) ([]*rules.Rule, error) {
	var all []*rules.Rule

	for _, ref := range refs {
		loaded, err := l.loadRef(ctx, ref, maxSize)
		if err != nil {
			return nil, err
		}

		all = append(all, loaded...)
	}

	return all, nil
}

// ValidateClasspath validates every classpath entry and returns the total
// number of decoded rules with the failures of every entry joined. Each
// failure is prefixed with its classpath entry.
func (l *Loader) ValidateClasspath(ctx context.Context, refs []string, maxSize int64) (int, error) {
	var (
		total int
		errs  []error
	)

	for _, ref := range refs {
		src, err := Open(ref, maxSize)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		n, err := l.Validate(ctx, src.Namespace)
		_ = src.Close()

		total += n

		for _, e := range Failures(err) {
			errs = append(errs, fmt.Errorf("%s: %w", ref, e))
		}
	}

	return total, errors.Join(errs...)
}

// Failures splits an error returned by a validation into its individual
// failures. A nil error yields none.
func Failures(err error) []error {
	if err == nil {
		return nil
	}

	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}

	var out []error
	for _, e := range joined.Unwrap() {
		out = append(out, Failures(e)...)
	}

	return out
}

func (l *Loader) loadRef(ctx context.Context, ref string, maxSize int64) ([]*rules.Rule, error) {
	src, err := Open(ref, maxSize)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	loaded, err := l.Load(ctx, src.Namespace)
	if err != nil {
		return nil, fmt.Errorf("loading rules from %s: %w", ref, err)
	}

	l.logger.Debug("loaded classpath entry",
		slog.String("ref", ref),
		slog.String("type", src.Type.String()),
		slog.Int("rules", len(loaded)),
	)

	return loaded, nil
}
