package formatter

import (
	"encoding/json"

	"github.com/harunnryd/gymslot/internal/history"
	"github.com/harunnryd/gymslot/internal/scheduler"
	"github.com/harunnryd/gymslot/internal/slot"
	"github.com/harunnryd/gymslot/internal/trigger"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) marshal(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *JSONFormatter) FormatSlots(entries []slot.Entry, pending string) (string, error) {
	return f.marshal(slotViews(entries, pending))
}

func (f *JSONFormatter) FormatAttempts(attempts []history.Attempt) (string, error) {
	return f.marshal(attemptViews(attempts))
}

func (f *JSONFormatter) FormatJobs(upcoming []scheduler.Upcoming, runs []scheduler.JobState) (string, error) {
	return f.marshal(jobViews(upcoming, runs))
}

func (f *JSONFormatter) FormatReport(rep trigger.Report) (string, error) {
	return f.marshal(newReportView(rep))
}
