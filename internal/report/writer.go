package report

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// RenderFunc renders a report to w.
type RenderFunc func(w io.Writer) error

// Output sends rendered reports to stdout or to a file.
type Output struct {
	path   string
	stdout io.Writer
	logger *slog.Logger
}

// NewOutput writes to path, or to stdout when path is empty.
func NewOutput(path string, stdout io.Writer, logger *slog.Logger) *Output {
	if stdout == nil {
		stdout = os.Stdout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Output{path: path, stdout: stdout, logger: logger}
}

// Write renders the report. A file is only written once rendering succeeded,
// creating parent directories as needed.
func (o *Output) Write(render RenderFunc) error {
	if o.path == "" {
		return render(o.stdout)
	}

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}

	dir := filepath.Dir(o.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	if _, err := os.Stat(o.path); err == nil {
		o.logger.Warn("overwriting existing file", slog.String("path", o.path))
	}

	if err := os.WriteFile(o.path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // reports are not secret
		return fmt.Errorf("writing file %s: %w", o.path, err)
	}

	o.logger.Info("report written", slog.String("path", o.path), slog.Int("bytes", buf.Len()))

	return nil
}
