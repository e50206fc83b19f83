// Package resource discovers and loads rule resources.
//
// Rule resources live below the [RootSegment] namespace and end in [Suffix].
// Nested segments mirror dotted qualified names, so the resource
// "META-INF/grim/com/example/Foo.grim.json" has the logical name
// "com.example.Foo".
//
// Discovery is expressed against the [Namespace] capability (list a segment,
// open a resource) so the backing store can be a directory tree, a jar/zip
// archive or any [io/fs.FS].
package resource
