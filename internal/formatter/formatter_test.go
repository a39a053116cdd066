package formatter

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/gymslot/internal/booking"
	"github.com/harunnryd/gymslot/internal/history"
	"github.com/harunnryd/gymslot/internal/scheduler"
	"github.com/harunnryd/gymslot/internal/slot"
	"github.com/harunnryd/gymslot/internal/trigger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFormatterFactory_Create(t *testing.T) {
	factory := NewFormatterFactory()

	tests := []struct {
		name    string
		format  OutputFormat
		wantErr bool
	}{
		{name: "table format", format: OutputFormatTable},
		{name: "json format", format: OutputFormatJSON},
		{name: "yaml format", format: OutputFormatYAML},
		{name: "invalid format", format: OutputFormat("invalid"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter, err := factory.Create(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, formatter)
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{input: "TABLE", want: OutputFormatTable},
		{input: "table", want: OutputFormatTable},
		{input: " json ", want: OutputFormatJSON},
		{input: "YAML", want: OutputFormatYAML},
		{input: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func sampleAttempts() []history.Attempt {
	return []history.Attempt{
		{
			RunID:      "01J0000000000000000000000A",
			SlotID:     "5",
			TimeRange:  "19:00-20:00",
			TargetDate: "11-MAR-2026",
			Outcome:    string(booking.KindSuccess),
			StatusCode: 201,
			Message:    "✅ Gym slot booked for 11-MAR-2026 at 19:00 (19:00-20:00).",
			CreatedAt:  time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC),
		},
		{
			RunID:      "01J0000000000000000000000B",
			TargetDate: "10-MAR-2026",
			Outcome:    history.OutcomeNoSelection,
			Message:    "🤷 No slot was selected for 10-MAR-2026, so no booking was made.",
			CreatedAt:  time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC),
		},
	}
}

func sampleReport() trigger.Report {
	return trigger.Report{
		RunID:      "01J0000000000000000000000C",
		SlotID:     "1",
		TimeRange:  "15:00-16:00",
		TargetDate: "11-MAR-2026",
		Selected:   true,
		Outcome:    booking.Outcome{
			Kind:       booking.KindRejected,
			Reason:     booking.ReasonWeeklyLimit,
			StatusCode: 409,
			Date:       "11-MAR-2026",
			TimeRange:  "15:00-16:00",
		},
		Message:  "⚠️ Booking for 11-MAR-2026 15:00-16:00 was rejected: weekly limit reached (status 409).",
		Notified: true,
		Cleared:  true,
	}
}

func TestTableFormatter_FormatSlots(t *testing.T) {
	output, err := NewTableFormatter().FormatSlots(slot.All(), "5")
	require.NoError(t, err)

	for _, e := range slot.All() {
		assert.Contains(t, output, e.TimeRange)
	}
	assert.Contains(t, output, "✓")
	assert.Equal(t, 1, strings.Count(output, "✓"))
}

func TestTableFormatter_Empty(t *testing.T) {
	f := NewTableFormatter()

	out, err := f.FormatSlots(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "No slots found", out)

	out, err = f.FormatAttempts(nil)
	require.NoError(t, err)
	assert.Equal(t, "No booking attempts recorded", out)

	out, err = f.FormatJobs(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "No jobs scheduled", out)
}

func TestTableFormatter_FormatAttempts(t *testing.T) {
	output, err := NewTableFormatter().FormatAttempts(sampleAttempts())
	require.NoError(t, err)

	assert.Contains(t, output, "11-MAR-2026")
	assert.Contains(t, output, "201")
	assert.Contains(t, output, history.OutcomeNoSelection)
}

func TestTableFormatter_FormatJobs(t *testing.T) {
	next := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	upcoming := []scheduler.Upcoming{
		{Name: scheduler.JobCollect, Spec: "0 12 * * *", Next: next},
		{Name: scheduler.JobExecute, Spec: "0 22 * * *", Next: next.Add(10 * time.Hour)},
	}
	runs := []scheduler.JobState{
		{Name: scheduler.JobExecute, LastStarted: next.Add(-14 * time.Hour), LastStatus: scheduler.StatusFailed, LastError: "status 409"},
	}

	output, err := NewTableFormatter().FormatJobs(upcoming, runs)
	require.NoError(t, err)

	assert.Contains(t, output, "0 12 * * *")
	assert.Contains(t, output, "2026-03-11 12:00")
	assert.Contains(t, output, "status 409")
}

func TestTableFormatter_FormatReport(t *testing.T) {
	output, err := NewTableFormatter().FormatReport(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, output, "15:00-16:00")
	assert.Contains(t, output, "weekly_limit")
	assert.Contains(t, output, "409")

	output, err = NewTableFormatter().FormatReport(trigger.Report{TargetDate: "11-MAR-2026", Cleared: true})
	require.NoError(t, err)
	assert.Contains(t, output, "none selected")
}

func TestJSONFormatter(t *testing.T) {
	f := NewJSONFormatter()

	out, err := f.FormatReport(sampleReport())
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "rejected", got["outcome"])
	assert.Equal(t, "weekly_limit", got["reason"])
	assert.EqualValues(t, 409, got["status_code"])
	assert.Contains(t, got["error"], "409")

	out, err = f.FormatSlots(slot.All(), "2")
	require.NoError(t, err)
	var slots []slotView
	require.NoError(t, json.Unmarshal([]byte(out), &slots))
	require.Len(t, slots, 6)
	assert.True(t, slots[1].Pending)
	assert.False(t, slots[0].Pending)
}

func TestYAMLFormatter(t *testing.T) {
	out, err := NewYAMLFormatter().FormatAttempts(sampleAttempts())
	require.NoError(t, err)

	var got []attemptView
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "19:00-20:00", got[0].TimeRange)
	assert.Equal(t, history.OutcomeNoSelection, got[1].Outcome)
}

func TestReportView_NoSelectionHasNoError(t *testing.T) {
	v := newReportView(trigger.Report{
		TargetDate: "11-MAR-2026",
		Outcome:    booking.Outcome{Kind: booking.KindTransportError, Cause: errors.New("ignored")},
	})
	assert.False(t, v.Selected)
	assert.Empty(t, v.Outcome)
	assert.Empty(t, v.Error)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "🏋️🏋️...", truncateString("🏋️🏋️🏋️🏋️🏋️", 7))
}
