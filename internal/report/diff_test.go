package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grim/internal/rules"
)

func TestComputeDiff_NoDifferences(t *testing.T) {
	doc := "keep a.B\nomit a.C\n"

	result, err := ComputeDiff(doc, doc, DefaultDiffOptions())
	require.NoError(t, err)
	assert.False(t, result.HasDifferences)
	assert.Empty(t, result.Unified)
	assert.Empty(t, result.Hunks)
}

func TestComputeDiff_WithDifferences(t *testing.T) {
	result, err := ComputeDiff("keep a.B\nomit a.C\n", "keep a.B\nkeep a.C\n", DefaultDiffOptions())
	require.NoError(t, err)

	assert.True(t, result.HasDifferences)
	assert.Equal(t, "base", result.OldLabel)
	assert.Equal(t, "target", result.NewLabel)
	assert.Contains(t, result.Unified, "--- base")
	assert.Contains(t, result.Unified, "+++ target")
	assert.Contains(t, result.Unified, "-omit a.C")
	assert.Contains(t, result.Unified, "+keep a.C")
	require.Len(t, result.Hunks, 1)
	assert.True(t, strings.HasPrefix(result.Hunks[0], "@@"))
}

func TestDiffDecisions(t *testing.T) {
	set := rules.NewRuleSet(
		rules.MustNewRule(rules.Omit, `app\.Debug.*`,
			rules.WithCondition(rules.NewCondition("debug", "true", false))),
		rules.MustNewRule(rules.Omit, `app\.Legacy`),
	)

	symbols := []Symbol{
		{Type: "app.DebugPanel"},
		{Type: "app.Legacy"},
		{Type: "app.Main"},
	}

	result, err := DiffDecisions(set,
		map[string]string{"debug": "false"},
		map[string]string{"debug": "true"},
		symbols, DefaultDiffOptions())
	require.NoError(t, err)

	assert.True(t, result.HasDifferences)
	assert.Equal(t, []Symbol{{Type: "app.DebugPanel"}}, result.Changed)
	assert.Contains(t, result.Unified, "-omit app.DebugPanel")
	assert.Contains(t, result.Unified, "+keep app.DebugPanel")
	assert.NotContains(t, result.Unified, "-omit app.Legacy")
}

func TestDiffDecisions_Identical(t *testing.T) {
	set := rules.NewRuleSet(rules.MustNewRule(rules.Omit, `app\..*`))
	props := map[string]string{"debug": "true"}

	result, err := DiffDecisions(set, props, props, []Symbol{{Type: "app.X"}}, DefaultDiffOptions())
	require.NoError(t, err)
	assert.False(t, result.HasDifferences)
	assert.Empty(t, result.Changed)
}

func TestWriteDiff(t *testing.T) {
	t.Run("no differences", func(t *testing.T) {
		var buf bytes.Buffer
		WriteDiff(&buf, &DiffResult{}, false)
		assert.Equal(t, "No differences found.\n", buf.String())
	})

	result, err := ComputeDiff("keep a\n", "omit a\n", DefaultDiffOptions())
	require.NoError(t, err)

	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		WriteDiff(&buf, result, false)
		assert.Contains(t, buf.String(), "-keep a\n")
		assert.True(t, strings.HasSuffix(buf.String(), "\n1 hunk(s), 0 symbol(s) changed\n"))
		assert.NotContains(t, buf.String(), "\033[")
	})

	t.Run("color", func(t *testing.T) {
		var buf bytes.Buffer
		WriteDiff(&buf, result, true)
		assert.Contains(t, buf.String(), "\033[31m-keep a\033[0m")
		assert.Contains(t, buf.String(), "\033[32m+omit a\033[0m")
		assert.Contains(t, buf.String(), "\033[36m@@")
	})
}
