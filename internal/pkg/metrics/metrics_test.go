package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDBQuery_CountsSlowCalls(t *testing.T) {
	slow := dbSlowQueries.WithLabelValues("postgres", "update")
	before := testutil.ToFloat64(slow)

	RecordDBQuery("postgres", "update", 5*time.Millisecond)
	assert.Equal(t, before, testutil.ToFloat64(slow))

	RecordDBQuery("postgres", "update", 250*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(slow))
}

func TestRecordCacheLookup(t *testing.T) {
	RecordCacheLookup("prices", true)
	RecordCacheLookup("prices", false)
	RecordCacheLookup("prices", false)

	assert.GreaterOrEqual(t, testutil.ToFloat64(cacheLookups.WithLabelValues("prices", "hit")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(cacheLookups.WithLabelValues("prices", "miss")), 2.0)
}

func TestObservePool(t *testing.T) {
	ObservePool("test-pool", func() PoolStats {
		return PoolStats{Acquired: 3, Idle: 2, Total: 5, Max: 25}
	})
	t.Cleanup(func() {
		pools.mu.Lock()
		delete(pools.sources, "test-pool")
		pools.mu.Unlock()
	})

	expected := `
# HELP ledgerline_db_pool_connections Connection pool size by state
# TYPE ledgerline_db_pool_connections gauge
ledgerline_db_pool_connections{database="test-pool",state="acquired"} 3
ledgerline_db_pool_connections{database="test-pool",state="idle"} 2
ledgerline_db_pool_connections{database="test-pool",state="max"} 25
ledgerline_db_pool_connections{database="test-pool",state="total"} 5
`
	require.NoError(t, testutil.CollectAndCompare(pools, strings.NewReader(expected)))
}

func TestRecordPosting(t *testing.T) {
	credits := ledgerAmount.WithLabelValues("credit")
	before := testutil.ToFloat64(credits)

	RecordPosting("credit", "deposit", decimal.RequireFromString("125.50"))

	assert.InDelta(t, before+125.50, testutil.ToFloat64(credits), 0.0001)
}
