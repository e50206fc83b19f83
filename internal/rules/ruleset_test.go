package rules

import (
	"regexp"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSet_Partition(t *testing.T) {
	o1 := MustNewRule(Omit, `a`)
	k1 := MustNewRule(Keep, `b`)
	o2 := MustNewRule(Omit, `c`)
	k2 := MustNewRule(Keep, `d`)

	s := NewRuleSet(o1, k1, nil, o2, k2)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []*Rule{o1, k1, o2, k2}, s.Rules())
	assert.Equal(t, []*Rule{o1, o2}, s.OmitRules())
	assert.Equal(t, []*Rule{k1, k2}, s.KeepRules())

	// Accessors hand out copies.
	omit := s.OmitRules()
	omit[0] = k1
	assert.Same(t, o1, s.OmitRules()[0])
}

func TestRuleSet_Empty(t *testing.T) {
	s := NewRuleSet()

	assert.False(t, s.ShouldOmit(nil, "pkg.Foo", ""))
	assert.False(t, s.ShouldOmit(map[string]string{"a": "b"}, "pkg.Foo", "bar"))
	assert.Empty(t, s.OmitRules())
	assert.Empty(t, s.KeepRules())
}

func TestRuleSet_ScenarioA(t *testing.T) {
	s := NewRuleSet(MustNewRule(Omit, `^pkg\.Foo$`, WithMember(`^bar$`)))
	ctx := map[string]string{}

	assert.True(t, s.ShouldOmit(ctx, "pkg.Foo", "bar"))
	assert.False(t, s.ShouldOmit(ctx, "pkg.Foo", "baz"))
}

func TestRuleSet_ScenarioB(t *testing.T) {
	s := NewRuleSet(
		MustNewRule(Omit, `^pkg\.Foo$`),
		MustNewRule(Keep, `^pkg\.Foo$`, WithMember(`^bar$`), WithCondition(NewCondition("flag", "true", true))),
	)

	assert.False(t, s.ShouldOmit(map[string]string{"flag": "true"}, "pkg.Foo", "bar"))
	assert.True(t, s.ShouldOmit(map[string]string{}, "pkg.Foo", "bar"))
	assert.True(t, s.ShouldOmit(map[string]string{"flag": "true"}, "pkg.Foo", "baz"))
}

func TestRuleSet_KeepAloneNeverOmits(t *testing.T) {
	s := NewRuleSet(MustNewRule(Keep, `.*`))

	assert.False(t, s.ShouldOmit(nil, "pkg.Foo", "bar"))
}

func TestRuleSet_OrderIndependent(t *testing.T) {
	omit := MustNewRule(Omit, `pkg\..*`)
	keep := MustNewRule(Keep, `pkg\.Foo`, WithMember(`keepMe`))

	for _, s := range []*RuleSet{NewRuleSet(omit, keep), NewRuleSet(keep, omit)} {
		assert.False(t, s.ShouldOmit(nil, "pkg.Foo", "keepMe"))
		assert.True(t, s.ShouldOmit(nil, "pkg.Foo", "other"))
		assert.True(t, s.ShouldOmit(nil, "pkg.Bar", "keepMe"))
	}
}

func TestRuleSet_Explain(t *testing.T) {
	omit := MustNewRule(Omit, `pkg\.Foo`)
	keep := MustNewRule(Keep, `pkg\.Foo`, WithMember(`bar`))
	s := NewRuleSet(omit, keep)

	d := s.Explain(nil, "pkg.Foo", "bar")
	assert.False(t, d.Omitted)
	assert.Same(t, omit, d.OmitRule)
	assert.Same(t, keep, d.KeepRule)

	d = s.Explain(nil, "pkg.Foo", "baz")
	assert.True(t, d.Omitted)
	assert.Same(t, omit, d.OmitRule)
	assert.Nil(t, d.KeepRule)

	d = s.Explain(nil, "pkg.Other", "bar")
	assert.False(t, d.Omitted)
	assert.Nil(t, d.OmitRule)
	assert.Nil(t, d.KeepRule, "keep rules are not consulted without an omit match")
}

func TestRuleSet_ConcurrentQueries(t *testing.T) {
	s := NewRuleSet(
		MustNewRule(Omit, `pkg\..*`),
		MustNewRule(Keep, `pkg\.Foo`, WithCondition(NewCondition("keep", "yes", true))),
	)
	props := map[string]string{"keep": "yes"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < 100; j++ {
				assert.False(t, s.ShouldOmit(props, "pkg.Foo", "x"))
				assert.True(t, s.ShouldOmit(props, "pkg.Bar", "x"))
			}
		}()
	}

	wg.Wait()
}

func TestRuleSet_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	typeNames := gen.Identifier().Map(func(s string) string { return "pkg." + s })
	members := gen.AlphaString()
	contexts := gen.MapOf(gen.Identifier(), gen.AlphaString())

	properties.Property("unconditioned omit matches every member in every context", prop.ForAll(
		func(typeName, member string, ctx map[string]string) bool {
			s := NewRuleSet(MustNewRule(Omit, regexp.QuoteMeta(typeName)))

			return s.ShouldOmit(ctx, typeName, member)
		},
		typeNames, members, contexts,
	))

	properties.Property("keep vetoes a co-matching omit", prop.ForAll(
		func(typeName, member string, ctx map[string]string) bool {
			pattern := regexp.QuoteMeta(typeName)
			memberPattern := regexp.QuoteMeta(member)
			s := NewRuleSet(
				MustNewRule(Omit, pattern, WithMember(memberPattern)),
				MustNewRule(Keep, pattern),
			)

			return !s.ShouldOmit(ctx, typeName, member)
		},
		typeNames, members, contexts,
	))

	properties.Property("without keep rules omission is any omit match", prop.ForAll(
		func(omitted []string, typeName, member string) bool {
			rules := make([]*Rule, 0, len(omitted))
			for _, name := range omitted {
				rules = append(rules, MustNewRule(Omit, regexp.QuoteMeta(name)))
			}

			s := NewRuleSet(rules...)

			anyMatch := false
			for _, r := range rules {
				anyMatch = anyMatch || r.Matches(nil, typeName, member)
			}

			return s.ShouldOmit(nil, typeName, member) == anyMatch
		},
		gen.SliceOf(typeNames), typeNames, members,
	))

	properties.Property("queries are idempotent", prop.ForAll(
		func(typeName, member string, ctx map[string]string) bool {
			s := NewRuleSet(
				MustNewRule(Omit, `pkg\.[a-m].*`),
				MustNewRule(Keep, `.*`, WithMember(`[A-Z].*`)),
			)

			first := s.ShouldOmit(ctx, typeName, member)

			return first == s.ShouldOmit(ctx, typeName, member) &&
				first == s.ShouldOmit(ctx, typeName, member)
		},
		typeNames, members, contexts,
	))

	properties.TestingRun(t)
}

func TestRuleSet_ZeroKeepEquivalence(t *testing.T) {
	s := NewRuleSet(
		MustNewRule(Omit, `a\..*`, WithMember(`x`)),
		MustNewRule(Omit, `b\.C`),
	)

	require.Empty(t, s.KeepRules())
	assert.True(t, s.ShouldOmit(nil, "a.Z", "x"))
	assert.False(t, s.ShouldOmit(nil, "a.Z", "y"))
	assert.True(t, s.ShouldOmit(nil, "b.C", "y"))
}
