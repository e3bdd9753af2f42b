package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()

	m := New("dejiryu", reg)
	m.RecordJobRun("ai_news", "ok", 150*time.Millisecond)
	m.RecordMessage("ai_news")
	m.RecordReminder()
	m.SetEventsTracked(2)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}

	assert.True(t, names["dejiryu_job_runs_total"])
	assert.True(t, names["dejiryu_job_duration_seconds"])
	assert.True(t, names["dejiryu_messages_sent_total"])
	assert.True(t, names["dejiryu_event_reminders_sent_total"])
	assert.True(t, names["dejiryu_events_tracked"])
}

func TestRecordJobRun_CountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("dejiryu", reg)

	m.RecordJobRun("interaction_report", "ok", time.Millisecond)
	m.RecordJobRun("interaction_report", "ok", time.Millisecond)
	m.RecordJobRun("interaction_report", "error", time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "dejiryu_job_runs_total" {
			continue
		}
		require.Len(t, mf.GetMetric(), 2)
		total := 0.0
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		assert.Equal(t, 3.0, total)
		return
	}
	t.Fatal("dejiryu_job_runs_total not found")
}
