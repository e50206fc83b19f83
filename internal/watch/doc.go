// Package watch re-evaluates rules whenever rule directories, archives or
// symbol and property files change. Rapid events are debounced into a single
// run and decision changes between runs are reported.
package watch
