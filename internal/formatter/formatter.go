// Package formatter renders slots, attempts, jobs and run reports for the CLI.
package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/harunnryd/gymslot/internal/history"
	"github.com/harunnryd/gymslot/internal/scheduler"
	"github.com/harunnryd/gymslot/internal/slot"
	"github.com/harunnryd/gymslot/internal/trigger"
)

const rfc3339 = time.RFC3339

type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

type Formatter interface {
	FormatSlots(entries []slot.Entry, pending string) (string, error)
	FormatAttempts(attempts []history.Attempt) (string, error)
	FormatJobs(upcoming []scheduler.Upcoming, runs []scheduler.JobState) (string, error)
	FormatReport(rep trigger.Report) (string, error)
}

type FormatterFactory struct{}

func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

func (f *FormatterFactory) Create(format OutputFormat) (Formatter, error) {
	switch format {
	case OutputFormatTable:
		return NewTableFormatter(), nil
	case OutputFormatJSON:
		return NewJSONFormatter(), nil
	case OutputFormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, json, yaml)", format)
	}
}

func ParseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (supported: table, json, yaml)", s)
	}
}

// The structured formats marshal these views rather than the domain types, so
// field names stay stable and errors render as text.

type slotView struct {
	ID        string `json:"id" yaml:"id"`
	Label     string `json:"label" yaml:"label"`
	TimeRange string `json:"time_range" yaml:"time_range"`
	Pending   bool   `json:"pending" yaml:"pending"`
}

type attemptView struct {
	RunID      string `json:"run_id" yaml:"run_id"`
	CreatedAt  string `json:"created_at" yaml:"created_at"`
	TargetDate string `json:"target_date" yaml:"target_date"`
	SlotID     string `json:"slot_id,omitempty" yaml:"slot_id,omitempty"`
	TimeRange  string `json:"time_range,omitempty" yaml:"time_range,omitempty"`
	Outcome    string `json:"outcome" yaml:"outcome"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Message    string `json:"message" yaml:"message"`
}

type jobView struct {
	Name       string `json:"name" yaml:"name"`
	Schedule   string `json:"schedule" yaml:"schedule"`
	NextRun    string `json:"next_run" yaml:"next_run"`
	LastRun    string `json:"last_run,omitempty" yaml:"last_run,omitempty"`
	LastStatus string `json:"last_status,omitempty" yaml:"last_status,omitempty"`
	LastError  string `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}

type reportView struct {
	RunID      string `json:"run_id" yaml:"run_id"`
	TargetDate string `json:"target_date" yaml:"target_date"`
	Selected   bool   `json:"selected" yaml:"selected"`
	SlotID     string `json:"slot_id,omitempty" yaml:"slot_id,omitempty"`
	TimeRange  string `json:"time_range,omitempty" yaml:"time_range,omitempty"`
	Outcome    string `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	Message    string `json:"message" yaml:"message"`
	Notified   bool   `json:"notified" yaml:"notified"`
	Cleared    bool   `json:"cleared" yaml:"cleared"`
}

func slotViews(entries []slot.Entry, pending string) []slotView {
	out := make([]slotView, 0, len(entries))
	for _, e := range entries {
		out = append(out, slotView{ID: e.ID, Label: e.Label, TimeRange: e.TimeRange, Pending: e.ID == pending})
	}
	return out
}

func attemptViews(attempts []history.Attempt) []attemptView {
	out := make([]attemptView, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, attemptView{
			RunID:      a.RunID,
			CreatedAt:  a.CreatedAt.Format(rfc3339),
			TargetDate: a.TargetDate,
			SlotID:     a.SlotID,
			TimeRange:  a.TimeRange,
			Outcome:    a.Outcome,
			Reason:     a.Reason,
			StatusCode: a.StatusCode,
			Message:    a.Message,
		})
	}
	return out
}

func jobViews(upcoming []scheduler.Upcoming, runs []scheduler.JobState) []jobView {
	byName := make(map[string]scheduler.JobState, len(runs))
	for _, r := range runs {
		byName[r.Name] = r
	}

	out := make([]jobView, 0, len(upcoming))
	for _, u := range upcoming {
		v := jobView{Name: u.Name, Schedule: u.Spec, NextRun: u.Next.Format(rfc3339)}
		if r, ok := byName[u.Name]; ok && !r.LastStarted.IsZero() {
			v.LastRun = r.LastStarted.Format(rfc3339)
			v.LastStatus = string(r.LastStatus)
			v.LastError = r.LastError
		}
		out = append(out, v)
	}
	return out
}

func newReportView(rep trigger.Report) reportView {
	v := reportView{
		RunID:      rep.RunID,
		TargetDate: rep.TargetDate,
		Selected:   rep.Selected,
		Message:    rep.Message,
		Notified:   rep.Notified,
		Cleared:    rep.Cleared,
	}
	if rep.Selected {
		v.SlotID = rep.SlotID
		v.TimeRange = rep.TimeRange
		v.Outcome = string(rep.Outcome.Kind)
		v.Reason = string(rep.Outcome.Reason)
		v.StatusCode = rep.Outcome.StatusCode
	}
	if err := rep.Err(); err != nil {
		v.Error = err.Error()
	}
	return v
}
