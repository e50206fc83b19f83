// Package filter selects rule resources by logical name.
//
// Logical names are dotted ("com.example.Foo"). Patterns use the same dotted
// form with doublestar semantics applied per segment: "*" matches within one
// segment and "**" spans segments, so "com.example.**" selects every
// resource below com.example while "com.example.*" selects only its direct
// members.
package filter
