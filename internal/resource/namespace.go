package resource

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultMaxResourceSize is 16 MB.
const DefaultMaxResourceSize int64 = 16 * 1024 * 1024

// Namespace is the capability the loader discovers resources through.
type Namespace interface {
	// List returns the child names of a namespace segment. A segment that
	// does not exist, or is a leaf, has no children.
	List(ctx context.Context, segment string) ([]string, error)
	// Open returns the content of a resource.
	Open(ctx context.Context, id string) ([]byte, error)
}

// FSNamespace exposes an [fs.FS] as a [Namespace].
type FSNamespace struct {
	fsys    fs.FS
	maxSize int64
}

// NewFSNamespace wraps fsys. A non-positive maxSize uses DefaultMaxResourceSize.
func NewFSNamespace(fsys fs.FS, maxSize int64) *FSNamespace {
	if maxSize <= 0 {
		maxSize = DefaultMaxResourceSize
	}

	return &FSNamespace{fsys: fsys, maxSize: maxSize}
}

// List returns the names of the entries in segment.
func (n *FSNamespace) List(ctx context.Context, segment string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(n.fsys, segment)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		if info, statErr := fs.Stat(n.fsys, segment); statErr == nil && !info.IsDir() {
			return nil, nil
		}

		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	return names, nil
}

// Open reads one resource, refusing content larger than the size limit.
func (n *FSNamespace) Open(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := n.fsys.Open(id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, n.maxSize+1))
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > n.maxSize {
		return nil, fmt.Errorf("resource exceeds maximum size of %d bytes", n.maxSize)
	}

	return data, nil
}

// NewDirectoryNamespace exposes a classpath directory as a [Namespace].
func NewDirectoryNamespace(dir string, maxSize int64) (*FSNamespace, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("rules directory %q: %w", dir, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("rules reference %q is not a directory", dir)
	}

	return NewFSNamespace(os.DirFS(dir), maxSize), nil
}

// ArchiveNamespace exposes the entries of a jar or zip archive.
type ArchiveNamespace struct {
	*FSNamespace

	zr *zip.ReadCloser
}

// OpenArchive opens a jar or zip archive. The caller must Close it.
func OpenArchive(archivePath string, maxSize int64) (*ArchiveNamespace, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive %q: %w", archivePath, err)
	}

	return &ArchiveNamespace{
		FSNamespace: NewFSNamespace(zr, maxSize),
		zr:          zr,
	}, nil
}

// Close releases the archive.
func (a *ArchiveNamespace) Close() error {
	return a.zr.Close()
}

// SourceType identifies the kind of classpath entry.
type SourceType int

const (
	// SourceUnknown indicates the entry kind could not be determined.
	SourceUnknown SourceType = iota
	// SourceDirectory is a classpath directory.
	SourceDirectory
	// SourceArchive is a .jar or .zip archive.
	SourceArchive
)

// String returns a human-readable name for the source type.
func (s SourceType) String() string {
	switch s {
	case SourceDirectory:
		return "directory"
	case SourceArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// Detect classifies a classpath entry.
func Detect(ref string) (SourceType, error) {
	if ref == "" {
		return SourceUnknown, fmt.Errorf("empty rules reference")
	}

	switch strings.ToLower(path.Ext(ref)) {
	case ".jar", ".zip":
		return SourceArchive, nil
	}

	if info, err := os.Stat(ref); err == nil && info.IsDir() {
		return SourceDirectory, nil
	}

	return SourceUnknown, fmt.Errorf("cannot determine rules source type for %q", ref)
}

// Source is an opened classpath entry.
type Source struct {
	Ref       string
	Type      SourceType
	Namespace Namespace

	closer io.Closer
}

// Open detects the kind of ref and opens it.
func Open(ref string, maxSize int64) (*Source, error) {
	st, err := Detect(ref)
	if err != nil {
		return nil, err
	}

	src := &Source{Ref: ref, Type: st}

	switch st {
	case SourceDirectory:
		ns, err := NewDirectoryNamespace(ref, maxSize)
		if err != nil {
			return nil, err
		}

		src.Namespace = ns
	case SourceArchive:
		ns, err := OpenArchive(ref, maxSize)
		if err != nil {
			return nil, err
		}

		src.Namespace = ns
		src.closer = ns
	default:
		return nil, fmt.Errorf("unsupported rules source type: %s", st)
	}

	return src, nil
}

// Close releases any underlying archive.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer.Close()
}

// SplitClasspath splits a classpath string on the OS list separator,
// dropping empty entries.
func SplitClasspath(classpath string) []string {
	var refs []string

	for _, ref := range filepath.SplitList(classpath) {
		if ref = strings.TrimSpace(ref); ref != "" {
			refs = append(refs, ref)
		}
	}

	return refs
}
