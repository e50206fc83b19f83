package resource

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grim/internal/rules"
)

// Compile-time interface conformance checks.
var (
	_ Namespace = (*FSNamespace)(nil)
	_ Namespace = (*ArchiveNamespace)(nil)
)

// writeRulesDir creates a classpath directory with the given resources.
func writeRulesDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}

	return dir
}

// writeArchive creates a jar in dir with the given entries.
func writeArchive(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()

	archivePath := filepath.Join(dir, name)
	f, err := os.Create(archivePath)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for entry, content := range files {
		w, err := zw.Create(entry)
		require.NoError(t, err)

		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	return archivePath
}

func TestDirectoryNamespace_Load(t *testing.T) {
	dir := writeRulesDir(t, map[string]string{
		"META-INF/grim/com/example/Foo.grim.json": `[{"type": "^com\\.example\\.Foo$", "member": "^bar$"}]`,
		"com/example/Foo.class":                   "cafebabe",
	})

	ns, err := NewDirectoryNamespace(dir, 0)
	require.NoError(t, err)

	loaded, err := NewLoader().Load(context.Background(), ns)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.True(t, rules.NewRuleSet(loaded...).ShouldOmit(nil, "com.example.Foo", "bar"))
}

func TestDirectoryNamespace_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := NewDirectoryNamespace(file, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")

	_, err = NewDirectoryNamespace(filepath.Join(t.TempDir(), "missing"), 0)
	require.Error(t, err)
}

func TestArchiveNamespace_Load(t *testing.T) {
	archive := writeArchive(t, t.TempDir(), "lib.jar", map[string]string{
		"META-INF/MANIFEST.MF":                    "Manifest-Version: 1.0\n",
		"META-INF/grim/com/example/Foo.grim.json": `[{"type": "^com\\.example\\.Foo$"}]`,
		"META-INF/grim/com/example/Bar.grim.json": `[{"type": "^com\\.example\\.Bar$", "keep": true}]`,
	})

	ns, err := OpenArchive(archive, 0)
	require.NoError(t, err)

	t.Cleanup(func() { _ = ns.Close() })

	entries, err := NewLoader().Discover(context.Background(), ns)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "com.example.Bar", entries[0].LogicalName)
	assert.Equal(t, "com.example.Foo", entries[1].LogicalName)

	loaded, err := NewLoader().Load(context.Background(), ns)
	require.NoError(t, err)

	set := rules.NewRuleSet(loaded...)
	assert.Len(t, set.OmitRules(), 1)
	assert.Len(t, set.KeepRules(), 1)
}

func TestOpenArchive_Invalid(t *testing.T) {
	bogus := filepath.Join(t.TempDir(), "bogus.jar")
	require.NoError(t, os.WriteFile(bogus, []byte("not a zip"), 0o600))

	_, err := OpenArchive(bogus, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening archive")
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		ref     string
		want    SourceType
		wantErr string
	}{
		{dir, SourceDirectory, ""},
		{"lib/foo.jar", SourceArchive, ""},
		{"lib/FOO.ZIP", SourceArchive, ""},
		{"", SourceUnknown, "empty rules reference"},
		{filepath.Join(dir, "nope"), SourceUnknown, "cannot determine rules source type"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			st, err := Detect(tt.ref)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, st)
		})
	}
}

func TestSourceType_String(t *testing.T) {
	assert.Equal(t, "directory", SourceDirectory.String())
	assert.Equal(t, "archive", SourceArchive.String())
	assert.Equal(t, "unknown", SourceUnknown.String())
	assert.Equal(t, "unknown", SourceType(42).String())
}

func TestSplitClasspath(t *testing.T) {
	sep := string(os.PathListSeparator)
	cp := strings.Join([]string{"a", "", " b.jar ", "c"}, sep)

	assert.Equal(t, []string{"a", "b.jar", "c"}, SplitClasspath(cp))
	assert.Empty(t, SplitClasspath(""))
}

func TestLoader_LoadClasspath(t *testing.T) {
	tmp := t.TempDir()
	dir := writeRulesDir(t, map[string]string{
		"META-INF/grim/app/Main.grim.json": `[{"type": "^app\\.Main$", "member": "^debug$"}]`,
	})
	jar := writeArchive(t, tmp, "dep.jar", map[string]string{
		"META-INF/grim/dep/Util.grim.json": `[{"type": "^app\\.Main$", "member": "^debug$", "keep": true, "property": "debug", "operator": "EQ", "value": "true"}]`,
	})

	loaded, err := NewLoader().LoadClasspath(context.Background(), []string{dir, jar}, 0)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	set := rules.NewRuleSet(loaded...)
	assert.True(t, set.ShouldOmit(map[string]string{}, "app.Main", "debug"))
	assert.False(t, set.ShouldOmit(map[string]string{"debug": "true"}, "app.Main", "debug"))
}

func TestLoader_LoadClasspath_FailFast(t *testing.T) {
	good := writeRulesDir(t, map[string]string{
		"META-INF/grim/a/A.grim.json": `[{"type": "a"}]`,
	})
	bad := writeRulesDir(t, map[string]string{
		"META-INF/grim/b/B.grim.json": `[{"type": "b"}, {"type": "["}]`,
	})

	loaded, err := NewLoader().LoadClasspath(context.Background(), []string{good, bad}, 0)
	require.Error(t, err)
	assert.Nil(t, loaded)
	assert.Contains(t, err.Error(), bad)
	assert.Contains(t, err.Error(), "META-INF/grim/b/B.grim.json")
	assert.Contains(t, err.Error(), "index 1")
}

func TestLoader_ValidateClasspath(t *testing.T) {
	good := writeRulesDir(t, map[string]string{
		"META-INF/grim/a/A.grim.json": `[{"type": "a"}, {"type": "b"}]`,
	})
	bad := writeRulesDir(t, map[string]string{
		"META-INF/grim/b/B.grim.json": `[{"type": "b", "operator": "EQ"}]`,
	})

	count, err := NewLoader().ValidateClasspath(context.Background(), []string{good, bad, "missing.txt"}, 0)
	require.Error(t, err)
	assert.Equal(t, 2, count)
	assert.ErrorIs(t, err, rules.ErrMalformedCondition)
	assert.Contains(t, err.Error(), "cannot determine rules source type")
}

func TestFailures(t *testing.T) {
	assert.Nil(t, Failures(nil))

	single := errors.New("one")
	assert.Equal(t, []error{single}, Failures(single))

	a, b, c := errors.New("a"), errors.New("b"), errors.New("c")
	assert.Equal(t, []error{a, b, c}, Failures(errors.Join(a, errors.Join(b, c))))
}

func TestLoader_ValidateClasspath_PrefixesEachFailure(t *testing.T) {
	bad := writeRulesDir(t, map[string]string{
		"META-INF/grim/b/B.grim.json": `[{"type": "("}]`,
		"META-INF/grim/b/C.grim.json": `not json`,
	})

	_, err := NewLoader().ValidateClasspath(context.Background(), []string{bad}, 0)
	require.Error(t, err)

	failures := Failures(err)
	require.Len(t, failures, 2)

	for _, f := range failures {
		assert.True(t, strings.HasPrefix(f.Error(), bad+": "), f.Error())
	}
}
