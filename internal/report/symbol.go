package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Symbol names a type, or a member of a type, to decide on.
type Symbol struct {
	Type   string `json:"type" yaml:"type"`
	Member string `json:"member,omitempty" yaml:"member,omitempty"`
}

// String returns "Type" or "Type#member".
func (s Symbol) String() string {
	if s.Member == "" {
		return s.Type
	}

	return s.Type + "#" + s.Member
}

// ParseSymbol parses "Type" or "Type#member".
func ParseSymbol(raw string) (Symbol, error) {
	trimmed := strings.TrimSpace(raw)

	typeName, member, _ := strings.Cut(trimmed, "#")
	if typeName == "" {
		return Symbol{}, fmt.Errorf("invalid symbol %q: missing type name", raw)
	}

	return Symbol{Type: typeName, Member: member}, nil
}

// ReadSymbols parses one symbol per line. Blank lines and lines starting
// with "//" are ignored.
func ReadSymbols(r io.Reader) ([]Symbol, error) {
	var symbols []Symbol

	scanner := bufio.NewScanner(r)
	line := 0

	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}

		sym, err := ParseSymbol(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		symbols = append(symbols, sym)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading symbols: %w", err)
	}

	return symbols, nil
}
