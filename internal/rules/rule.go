package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Polarity selects whether a matching rule omits or keeps a symbol.
type Polarity int

const (
	// Omit marks matching symbols for removal.
	Omit Polarity = iota
	// Keep vetoes the removal of matching symbols.
	Keep
)

// String returns "omit" or "keep".
func (p Polarity) String() string {
	if p == Keep {
		return "keep"
	}

	return "omit"
}

// Origin locates the resource record a rule was decoded from.
type Origin struct {
	// Resource is the identifier of the rule resource.
	Resource string
	// Index is the 0-based position of the record in the resource.
	Index int
}

// String returns "resource[index]", or an empty string for in-memory rules.
func (o Origin) String() string {
	if o.Resource == "" {
		return ""
	}

	return fmt.Sprintf("%s[%d]", o.Resource, o.Index)
}

// Rule selects symbols by type and member name, optionally guarded by a
// condition over compile-time properties.
type Rule struct {
	polarity      Polarity
	typeSource    string
	typePattern   *regexp.Regexp
	memberSource  string
	memberPattern *regexp.Regexp
	condition     *Condition
	origin        Origin
}

// RuleOption configures optional parts of a [Rule].
type RuleOption func(*ruleOptions)

type ruleOptions struct {
	member    *string
	condition *Condition
	origin    Origin
}

// WithMember restricts the rule to members whose name fully matches pattern.
func WithMember(pattern string) RuleOption {
	return func(o *ruleOptions) {
		o.member = &pattern
	}
}

// WithCondition guards the rule with c. A nil condition is ignored.
func WithCondition(c *Condition) RuleOption {
	return func(o *ruleOptions) {
		o.condition = c
	}
}

// WithOrigin records where the rule was declared.
func WithOrigin(resource string, index int) RuleOption {
	return func(o *ruleOptions) {
		o.origin = Origin{Resource: resource, Index: index}
	}
}

// NewRule compiles a rule. Patterns use RE2 syntax and must match the whole
// name. An invalid pattern is reported as a *[PatternError].
func NewRule(polarity Polarity, typePattern string, opts ...RuleOption) (*Rule, error) {
	var o ruleOptions
	for _, opt := range opts {
		opt(&o)
	}

	typeRe, err := compileFull(typePattern)
	if err != nil {
		return nil, &PatternError{
			Resource: o.origin.Resource,
			Index:    o.origin.Index,
			Field:    "type",
			Pattern:  typePattern,
			Err:      err,
		}
	}

	r := &Rule{
		polarity:    polarity,
		typeSource:  typePattern,
		typePattern: typeRe,
		condition:   o.condition,
		origin:      o.origin,
	}

	if o.member != nil {
		memberRe, err := compileFull(*o.member)
		if err != nil {
			return nil, &PatternError{
				Resource: o.origin.Resource,
				Index:    o.origin.Index,
				Field:    "member",
				Pattern:  *o.member,
				Err:      err,
			}
		}

		r.memberSource = *o.member
		r.memberPattern = memberRe
	}

	return r, nil
}

// MustNewRule is like [NewRule] but panics on an invalid pattern.
func MustNewRule(polarity Polarity, typePattern string, opts ...RuleOption) *Rule {
	r, err := NewRule(polarity, typePattern, opts...)
	if err != nil {
		panic(err)
	}

	return r
}

// Polarity returns whether the rule omits or keeps.
func (r *Rule) Polarity() Polarity { return r.polarity }

// IsOmit reports whether the rule marks symbols for omission.
func (r *Rule) IsOmit() bool { return r.polarity == Omit }

// IsKeep reports whether the rule vetoes omission.
func (r *Rule) IsKeep() bool { return r.polarity == Keep }

// TypePattern returns the type pattern source text.
func (r *Rule) TypePattern() string { return r.typeSource }

// MemberPattern returns the member pattern source text and whether one is set.
func (r *Rule) MemberPattern() (string, bool) {
	return r.memberSource, r.memberPattern != nil
}

// Condition returns the guard, or nil when the rule is unconditional.
func (r *Rule) Condition() *Condition { return r.condition }

// Origin returns where the rule was declared.
func (r *Rule) Origin() Origin { return r.origin }

// Matches reports whether the rule applies to the member of typeName under
// the given compile-time properties. memberName is empty for type-level
// decisions.
func (r *Rule) Matches(properties map[string]string, typeName, memberName string) bool {
	return r.typePattern.MatchString(typeName) &&
		(r.memberPattern == nil || r.memberPattern.MatchString(memberName)) &&
		(r.condition == nil || r.condition.Matches(properties))
}

// String returns a compact description used in logs and reports.
func (r *Rule) String() string {
	var b strings.Builder

	b.WriteString(r.polarity.String())
	b.WriteString(" type=")
	b.WriteString(r.typeSource)

	if r.memberPattern != nil {
		b.WriteString(" member=")
		b.WriteString(r.memberSource)
	}

	if r.condition != nil {
		b.WriteString(" if ")
		b.WriteString(r.condition.String())
	}

	return b.String()
}

// compileFull compiles pattern so that it only matches entire inputs.
// The raw pattern is checked first so that unbalanced groups cannot pair up
// with the anchoring group.
func compileFull(pattern string) (*regexp.Regexp, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, err
	}

	return regexp.Compile(`^(?:` + pattern + `)$`)
}
