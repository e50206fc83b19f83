package watch

import (
	"fmt"
	"sort"
	"strings"
)

// ChangeKind classifies a decision change between two runs.
type ChangeKind string

const (
	// NowOmitted marks a symbol that was kept and is now omitted.
	NowOmitted ChangeKind = "now omitted"
	// NowKept marks a symbol that was omitted and is now kept.
	NowKept ChangeKind = "now kept"
	// Added marks a symbol evaluated for the first time.
	Added ChangeKind = "added"
	// Removed marks a symbol no longer evaluated.
	Removed ChangeKind = "removed"
)

// DecisionChange describes how the decision for one symbol changed.
type DecisionChange struct {
	Symbol string
	Kind   ChangeKind
}

func (c DecisionChange) String() string {
	return fmt.Sprintf("%s: %s", c.Symbol, c.Kind)
}

// DecisionDiff compares two decision maps and returns the changes sorted by
// symbol.
func DecisionDiff(prev, curr map[string]bool) []DecisionChange {
	var changes []DecisionChange

	for sym, omitted := range curr {
		was, ok := prev[sym]

		switch {
		case !ok:
			changes = append(changes, DecisionChange{Symbol: sym, Kind: Added})
		case was && !omitted:
			changes = append(changes, DecisionChange{Symbol: sym, Kind: NowKept})
		case !was && omitted:
			changes = append(changes, DecisionChange{Symbol: sym, Kind: NowOmitted})
		}
	}

	for sym := range prev {
		if _, ok := curr[sym]; !ok {
			changes = append(changes, DecisionChange{Symbol: sym, Kind: Removed})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Symbol < changes[j].Symbol
	})

	return changes
}

// DecisionDiffSummary returns a one-line summary such as
// "1 now omitted, 2 now kept".
func DecisionDiffSummary(changes []DecisionChange) string {
	if len(changes) == 0 {
		return "no changes"
	}

	counts := make(map[ChangeKind]int)
	for _, c := range changes {
		counts[c.Kind]++
	}

	var parts []string

	for _, k := range []ChangeKind{NowOmitted, NowKept, Added, Removed} {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, k))
		}
	}

	return strings.Join(parts, ", ")
}
