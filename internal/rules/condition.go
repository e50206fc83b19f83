package rules

import "fmt"

// Operator is the equality polarity of a [Condition].
type Operator string

const (
	// OperatorEQ requires the property to equal the value.
	OperatorEQ Operator = "EQ"
	// OperatorNEQ requires the property to differ from the value.
	OperatorNEQ Operator = "NEQ"
)

// ParseOperator converts the wire form of an operator.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case OperatorEQ, OperatorNEQ:
		return Operator(s), nil
	default:
		return "", fmt.Errorf("unknown operator %q: must be one of EQ, NEQ", s)
	}
}

// Condition guards a rule with a single compile-time property test.
//
// A property absent from the context is unequal to every literal, including
// the empty string.
type Condition struct {
	property string
	value    string
	equals   bool
}

// NewCondition creates a condition that holds when the compile-time property
// equals value (equals=true) or differs from it (equals=false).
func NewCondition(property, value string, equals bool) *Condition {
	return &Condition{property: property, value: value, equals: equals}
}

// Property returns the compile-time property name.
func (c *Condition) Property() string { return c.property }

// Value returns the literal the property is compared against.
func (c *Condition) Value() string { return c.value }

// Equals reports whether the condition expects equality.
func (c *Condition) Equals() bool { return c.equals }

// Operator returns the wire form of the comparison.
func (c *Condition) Operator() Operator {
	if c.equals {
		return OperatorEQ
	}

	return OperatorNEQ
}

// Matches evaluates the condition against the compile-time properties.
func (c *Condition) Matches(properties map[string]string) bool {
	actual, ok := properties[c.property]

	return c.equals == (ok && actual == c.value)
}

// String returns a readable form such as `debug == "true"`.
func (c *Condition) String() string {
	op := "=="
	if !c.equals {
		op = "!="
	}

	return fmt.Sprintf("%s %s %q", c.property, op, c.value)
}
