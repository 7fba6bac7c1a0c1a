package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()
	m.Inc("sla_sweeps")
	m.Add("sla_breached", 3)
	m.RecordRequest("/tickets", "GET", 200, time.Millisecond)
	m.RecordError("/tickets", "PATCH", "FORBIDDEN")

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap["counters"]["sla_sweeps"])
	assert.Equal(t, int64(3), snap["counters"]["sla_breached"])
	assert.Equal(t, int64(1), snap["requests"]["/tickets|GET|200"])
	assert.Equal(t, int64(1), snap["errors"]["/tickets|PATCH|FORBIDDEN"])
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Inc("x")
		m.RecordRequest("/", "GET", 200, 0)
		m.RecordError("/", "GET", "X")
	})
	assert.Empty(t, m.Snapshot()["counters"])
}
