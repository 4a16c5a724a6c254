package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/philly/arch-blog/reader/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordLookup(true)
	c.RecordLookup(false)
	c.RecordLookup(false)
	c.RecordFetch(nil)
	c.RecordFetch(errors.New("boom"))
	c.RecordJoin()
	c.RecordDiscard("unsubscribed")
	c.RecordInvalidation()
	c.SetLiveEntries(3)
	c.RecordRequest("list_posts", 200, 15*time.Millisecond)
	c.RecordRequest("get_post", 0, time.Millisecond)
	c.RecordMutation(nil)

	series, err := testutil.GatherAndCount(reg, "monk_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 3.0, values["monk_cache_lookups_total"])
	assert.Equal(t, 2.0, values["monk_query_fetches_total"])
	assert.Equal(t, 1.0, values["monk_query_joined_total"])
	assert.Equal(t, 1.0, values["monk_query_discarded_total"])
	assert.Equal(t, 1.0, values["monk_query_invalidations_total"])
	assert.Equal(t, 3.0, values["monk_query_live_entries"])
	assert.Equal(t, 1.0, values["monk_mutations_total"])
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *metrics.Collector

	assert.NotPanics(t, func() {
		c.RecordLookup(true)
		c.RecordFetch(nil)
		c.RecordJoin()
		c.RecordDiscard("stale")
		c.RecordInvalidation()
		c.SetLiveEntries(1)
		c.RecordRequest("create_post", 201, time.Second)
		c.RecordMutation(errors.New("x"))
	})
}
