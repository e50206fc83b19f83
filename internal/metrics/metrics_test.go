package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grim/internal/resource"
	"github.com/hupe1980/grim/internal/rules"
)

var _ resource.Observer = (*Collector)(nil)

func TestCollector_Observe(t *testing.T) {
	c := NewCollector(nil)

	c.ObserveResource(resource.OutcomeLoaded)
	c.ObserveResource(resource.OutcomeLoaded)
	c.ObserveResource(resource.OutcomeSkipped)
	c.ObserveRules([]*rules.Rule{
		rules.MustNewRule(rules.Omit, "a"),
		rules.MustNewRule(rules.Keep, "b"),
		rules.MustNewRule(rules.Omit, "c"),
	})
	c.ObserveLoad(10*time.Millisecond, nil)
	c.ObserveLoad(time.Millisecond, errors.New("boom"))

	assert.InDelta(t, 2, testutil.ToFloat64(c.resources.WithLabelValues("loaded")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.resources.WithLabelValues("skipped")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.rules.WithLabelValues("omit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.rules.WithLabelValues("keep")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.loads.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.loads.WithLabelValues("error")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(c.loadDuration))
}

func TestCollector_WithLoader(t *testing.T) {
	c := NewCollector(nil)
	fsys := fstest.MapFS{
		"META-INF/grim/a/A.grim.json": {Data: []byte(`[{"type": "a"}, {"type": "a", "keep": true}]`)},
		"META-INF/grim/b/B.grim.json": {Data: []byte(`[{"type": "b"}]`)},
	}

	l := resource.NewLoader(
		resource.WithObserver(c),
		resource.WithFilter(func(name string) bool { return name != "b.B" }),
	)

	_, err := l.Load(context.Background(), resource.NewFSNamespace(fsys, 0))
	require.NoError(t, err)

	expected := `
# HELP grim_resources_total Rule resources discovered, by outcome.
# TYPE grim_resources_total counter
grim_resources_total{outcome="loaded"} 1
grim_resources_total{outcome="skipped"} 1
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "grim_resources_total"))
	assert.InDelta(t, 1, testutil.ToFloat64(c.rules.WithLabelValues("keep")), 0)
}
