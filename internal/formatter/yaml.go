package formatter

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harunnryd/gymslot/internal/history"
	"github.com/harunnryd/gymslot/internal/scheduler"
	"github.com/harunnryd/gymslot/internal/slot"
	"github.com/harunnryd/gymslot/internal/trigger"
)

type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) marshal(v interface{}) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *YAMLFormatter) FormatSlots(entries []slot.Entry, pending string) (string, error) {
	return f.marshal(slotViews(entries, pending))
}

func (f *YAMLFormatter) FormatAttempts(attempts []history.Attempt) (string, error) {
	return f.marshal(attemptViews(attempts))
}

func (f *YAMLFormatter) FormatJobs(upcoming []scheduler.Upcoming, runs []scheduler.JobState) (string, error) {
	return f.marshal(jobViews(upcoming, runs))
}

func (f *YAMLFormatter) FormatReport(rep trigger.Report) (string, error) {
	return f.marshal(newReportView(rep))
}
