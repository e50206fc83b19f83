package rules

// RuleSet is an immutable collection of rules partitioned by polarity.
type RuleSet struct {
	rules     []*Rule
	omitRules []*Rule
	keepRules []*Rule
}

// Decision is the outcome of [RuleSet.Explain].
type Decision struct {
	// Omitted is the final decision.
	Omitted bool
	// OmitRule is the first omit rule that matched, nil when none did.
	OmitRule *Rule
	// KeepRule is the first keep rule that matched. It is only evaluated
	// when OmitRule is set.
	KeepRule *Rule
}

// NewRuleSet partitions rules by polarity, preserving relative order.
// Nil entries are skipped.
func NewRuleSet(rules ...*Rule) *RuleSet {
	s := &RuleSet{
		rules: make([]*Rule, 0, len(rules)),
	}

	for _, r := range rules {
		if r == nil {
			continue
		}

		s.rules = append(s.rules, r)

		if r.IsKeep() {
			s.keepRules = append(s.keepRules, r)
		} else {
			s.omitRules = append(s.omitRules, r)
		}
	}

	return s
}

// Rules returns every rule in ingestion order.
func (s *RuleSet) Rules() []*Rule { return clone(s.rules) }

// OmitRules returns the omit rules in ingestion order.
func (s *RuleSet) OmitRules() []*Rule { return clone(s.omitRules) }

// KeepRules returns the keep rules in ingestion order.
func (s *RuleSet) KeepRules() []*Rule { return clone(s.keepRules) }

// Len returns the total number of rules.
func (s *RuleSet) Len() int { return len(s.rules) }

// ShouldOmit reports whether the symbol should be omitted under the given
// compile-time properties. memberName is empty for type-level decisions.
//
// A symbol is omitted when some omit rule matches and no keep rule matches.
func (s *RuleSet) ShouldOmit(properties map[string]string, typeName, memberName string) bool {
	return s.Explain(properties, typeName, memberName).Omitted
}

// Explain is [RuleSet.ShouldOmit] with the rules that drove the decision.
func (s *RuleSet) Explain(properties map[string]string, typeName, memberName string) Decision {
	var d Decision

	d.OmitRule = firstMatch(s.omitRules, properties, typeName, memberName)
	if d.OmitRule == nil {
		return d
	}

	d.KeepRule = firstMatch(s.keepRules, properties, typeName, memberName)
	d.Omitted = d.KeepRule == nil

	return d
}

func firstMatch(rules []*Rule, properties map[string]string, typeName, memberName string) *Rule {
	for _, r := range rules {
		if r.Matches(properties, typeName, memberName) {
			return r
		}
	}

	return nil
}

func clone(rules []*Rule) []*Rule {
	out := make([]*Rule, len(rules))
	copy(out, rules)

	return out
}
