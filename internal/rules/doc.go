// Package rules implements the omit/keep decision engine.
//
// A [Rule] pairs a type pattern, an optional member pattern and an optional
// [Condition] with a [Polarity]. A [RuleSet] aggregates rules and answers
// [RuleSet.ShouldOmit]: a symbol is omitted when at least one omit rule
// matches it and no keep rule does. Declaration order never affects the
// outcome.
//
// Rules are normally produced by [Decode] from a JSON rule resource:
//
//	[
//	  {"type": "^com\\.example\\.Foo$", "member": "^bar$"},
//	  {"type": "^com\\.example\\.Foo$", "member": "^bar$", "keep": true,
//	   "property": "example.debug", "operator": "EQ", "value": "true"}
//	]
//
// Every type in this package is immutable once constructed and safe for
// concurrent use.
package rules
