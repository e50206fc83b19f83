package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Record is the wire form of one rule in a rule resource.
type Record struct {
	Type     *string `json:"type"`
	Member   *string `json:"member,omitempty"`
	Keep     *bool   `json:"keep,omitempty"`
	Property *string `json:"property,omitempty"`
	Operator *string `json:"operator,omitempty"`
	Value    *string `json:"value,omitempty"`
}

// Decode parses a rule resource: a JSON array of records. Every failure
// names resource and, when it concerns a single record, that record's index.
func Decode(resource string, data []byte) ([]*Rule, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, &DecodeError{Resource: resource, Index: -1, Err: errors.New("expected a JSON array of rules, got null")}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &DecodeError{Resource: resource, Index: -1, Err: err}
	}

	out := make([]*Rule, 0, len(raw))
	for i, msg := range raw {
		rec, err := decodeRecord(msg)
		if err != nil {
			return nil, &DecodeError{Resource: resource, Index: i, Err: err}
		}

		r, err := rec.rule(resource, i)
		if err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, nil
}

// decodeRecord reads the record fields by exact key. Keys differing only in
// case are unknown fields and ignored.
func decodeRecord(msg json.RawMessage) (Record, error) {
	var (
		rec    Record
		fields map[string]json.RawMessage
	)

	if err := json.Unmarshal(msg, &fields); err != nil {
		return rec, err
	}

	targets := []struct {
		key string
		dst any
	}{
		{"type", &rec.Type},
		{"member", &rec.Member},
		{"keep", &rec.Keep},
		{"property", &rec.Property},
		{"operator", &rec.Operator},
		{"value", &rec.Value},
	}

	for _, f := range targets {
		raw, ok := fields[f.key]
		if !ok {
			continue
		}

		if err := json.Unmarshal(raw, f.dst); err != nil {
			return rec, fmt.Errorf("field %q: %w", f.key, err)
		}
	}

	return rec, nil
}

// Encode renders rules in the resource wire format.
func Encode(rules []*Rule) ([]byte, error) {
	records := make([]Record, len(rules))
	for i, r := range rules {
		records[i] = r.Record()
	}

	return json.MarshalIndent(records, "", "  ")
}

// Record returns the wire form of r.
func (r *Rule) Record() Record {
	typeSource := r.typeSource
	rec := Record{Type: &typeSource}

	if member, ok := r.MemberPattern(); ok {
		rec.Member = &member
	}

	if r.IsKeep() {
		keep := true
		rec.Keep = &keep
	}

	if c := r.condition; c != nil {
		property, value, op := c.property, c.value, string(c.Operator())
		rec.Property = &property
		rec.Value = &value
		rec.Operator = &op
	}

	return rec
}

// rule validates the record and compiles it.
func (rec Record) rule(resource string, index int) (*Rule, error) {
	if rec.Type == nil {
		return nil, &DecodeError{Resource: resource, Index: index, Err: errors.New(`missing required field "type"`)}
	}

	cond, err := rec.condition(resource, index)
	if err != nil {
		return nil, err
	}

	polarity := Omit
	if rec.Keep != nil && *rec.Keep {
		polarity = Keep
	}

	opts := []RuleOption{WithOrigin(resource, index), WithCondition(cond)}
	if rec.Member != nil {
		opts = append(opts, WithMember(*rec.Member))
	}

	return NewRule(polarity, *rec.Type, opts...)
}

// condition enforces that property, operator and value are all-or-nothing.
func (rec Record) condition(resource string, index int) (*Condition, error) {
	var missing []string

	if rec.Property == nil {
		missing = append(missing, "property")
	}

	if rec.Operator == nil {
		missing = append(missing, "operator")
	}

	if rec.Value == nil {
		missing = append(missing, "value")
	}

	switch len(missing) {
	case 3:
		return nil, nil
	case 0:
	default:
		return nil, &MalformedConditionError{Resource: resource, Index: index, Missing: missing}
	}

	op, err := ParseOperator(*rec.Operator)
	if err != nil {
		return nil, &DecodeError{Resource: resource, Index: index, Err: err}
	}

	return NewCondition(*rec.Property, *rec.Value, op == OperatorEQ), nil
}
