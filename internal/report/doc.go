// Package report renders omit decisions and rule listings for the CLI.
//
// Decisions and rules can be written as an aligned table, JSON or YAML.
// [ComputeDiff] compares the decisions for the same symbols under two sets
// of compile-time properties as a unified diff.
package report
