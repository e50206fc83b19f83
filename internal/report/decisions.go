package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/grim/internal/rules"
)

// Supported output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidateFormat rejects unknown output formats.
func ValidateFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be one of table, json, yaml", format)
	}
}

// DecisionRow is the rendered decision for one symbol.
type DecisionRow struct {
	Symbol   Symbol `json:"symbol" yaml:"symbol"`
	Omitted  bool   `json:"omitted" yaml:"omitted"`
	OmitRule string `json:"omitRule,omitempty" yaml:"omitRule,omitempty"`
	KeepRule string `json:"keepRule,omitempty" yaml:"keepRule,omitempty"`
}

// Evaluate decides every symbol against set.
func Evaluate(set *rules.RuleSet, properties map[string]string, symbols []Symbol) []DecisionRow {
	rows := make([]DecisionRow, 0, len(symbols))

	for _, sym := range symbols {
		d := set.Explain(properties, sym.Type, sym.Member)
		rows = append(rows, DecisionRow{
			Symbol:   sym,
			Omitted:  d.Omitted,
			OmitRule: describe(d.OmitRule),
			KeepRule: describe(d.KeepRule),
		})
	}

	return rows
}

// CountOmitted returns how many rows are omitted.
func CountOmitted(rows []DecisionRow) int {
	n := 0

	for _, r := range rows {
		if r.Omitted {
			n++
		}
	}

	return n
}

// WriteDecisions renders rows in the given format.
func WriteDecisions(w io.Writer, rows []DecisionRow, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatYAML:
		return writeYAML(w, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SYMBOL\tDECISION\tRULE")

	for _, r := range rows {
		decision, rule := "keep", ""

		switch {
		case r.Omitted:
			decision, rule = "omit", r.OmitRule
		case r.KeepRule != "":
			rule = r.KeepRule
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Symbol, decision, rule)
	}

	return tw.Flush()
}

// RuleRow is the rendered form of one rule.
type RuleRow struct {
	Polarity  string `json:"polarity" yaml:"polarity"`
	Type      string `json:"type" yaml:"type"`
	Member    string `json:"member,omitempty" yaml:"member,omitempty"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Origin    string `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// RuleRows converts rules for rendering, in the order given.
func RuleRows(list []*rules.Rule) []RuleRow {
	rows := make([]RuleRow, 0, len(list))

	for _, r := range list {
		row := RuleRow{
			Polarity: r.Polarity().String(),
			Type:     r.TypePattern(),
			Origin:   r.Origin().String(),
		}

		if member, ok := r.MemberPattern(); ok {
			row.Member = member
		}

		if c := r.Condition(); c != nil {
			row.Condition = c.String()
		}

		rows = append(rows, row)
	}

	return rows
}

// WriteRules renders rule rows in the given format.
func WriteRules(w io.Writer, rows []RuleRow, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatYAML:
		return writeYAML(w, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "POLARITY\tTYPE\tMEMBER\tCONDITION\tORIGIN")

	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.Polarity, r.Type, dash(r.Member), dash(r.Condition), dash(r.Origin))
	}

	return tw.Flush()
}

// SummarizeRules counts rules per origin resource, sorted by resource.
func SummarizeRules(list []*rules.Rule) []string {
	counts := make(map[string]int)
	for _, r := range list {
		counts[r.Origin().Resource]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		name := k
		if name == "" {
			name = "(in-memory)"
		}

		lines = append(lines, fmt.Sprintf("%s: %d rule(s)", name, counts[k]))
	}

	return lines
}

func describe(r *rules.Rule) string {
	if r == nil {
		return ""
	}

	if origin := r.Origin().String(); origin != "" {
		return r.String() + " (" + origin + ")"
	}

	return r.String()
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}

	return s
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}

	return enc.Close()
}
