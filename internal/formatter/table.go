package formatter

import (
	"fmt"
	"strconv"

	"github.com/harunnryd/gymslot/internal/history"
	"github.com/harunnryd/gymslot/internal/scheduler"
	"github.com/harunnryd/gymslot/internal/slot"
	"github.com/harunnryd/gymslot/internal/trigger"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

const timestampLayout = "2006-01-02 15:04"

type TableFormatter struct {
	headerStyle  lipgloss.Style
	cellStyle    lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
	markStyle    lipgloss.Style
}

func NewTableFormatter() *TableFormatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")
	green := lipgloss.Color("42")

	return &TableFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		cellStyle: lipgloss.NewStyle().
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
		markStyle: lipgloss.NewStyle().
			Foreground(green).
			Bold(true).
			Padding(0, 1),
	}
}

func (f *TableFormatter) striped(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers(headers...)
}

// FormatSlots lists the catalog, marking the pending choice when there is one.
func (f *TableFormatter) FormatSlots(entries []slot.Entry, pending string) (string, error) {
	if len(entries) == 0 {
		return "No slots found", nil
	}

	pendingRow := -1
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row == pendingRow:
				return f.markStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers("ID", "Slot", "Time Range", "Pending")

	for i, e := range entries {
		mark := ""
		if e.ID == pending {
			mark = "✓"
			pendingRow = i
		}
		t.Row(e.ID, e.Display(), e.TimeRange, mark)
	}

	return t.String(), nil
}

func (f *TableFormatter) FormatAttempts(attempts []history.Attempt) (string, error) {
	if len(attempts) == 0 {
		return "No booking attempts recorded", nil
	}

	t := f.striped("When", "Target", "Slot", "Outcome", "Status", "Message")
	for _, a := range attempts {
		status := ""
		if a.StatusCode != 0 {
			status = strconv.Itoa(a.StatusCode)
		}
		slotCol := a.TimeRange
		if slotCol == "" {
			slotCol = "-"
		}
		t.Row(
			a.CreatedAt.Local().Format(timestampLayout),
			a.TargetDate,
			slotCol,
			outcomeLabel(a.Outcome, a.Reason),
			status,
			truncateString(a.Message, 60),
		)
	}

	return t.String(), nil
}

func (f *TableFormatter) FormatJobs(upcoming []scheduler.Upcoming, runs []scheduler.JobState) (string, error) {
	if len(upcoming) == 0 {
		return "No jobs scheduled", nil
	}

	byName := make(map[string]scheduler.JobState, len(runs))
	for _, r := range runs {
		byName[r.Name] = r
	}

	t := f.striped("Job", "Schedule", "Next Run", "Last Run", "Last Status")
	for _, u := range upcoming {
		last, lastStatus := "-", "-"
		if r, ok := byName[u.Name]; ok && !r.LastStarted.IsZero() {
			last = r.LastStarted.Local().Format(timestampLayout)
			lastStatus = string(r.LastStatus)
			if r.LastError != "" {
				lastStatus += ": " + truncateString(r.LastError, 30)
			}
		}
		t.Row(u.Name, u.Spec, u.Next.Format(timestampLayout), last, lastStatus)
	}

	return t.String(), nil
}

// FormatReport renders one execution run as a two-column table.
func (f *TableFormatter) FormatReport(rep trigger.Report) (string, error) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return f.headerStyle
			}
			return f.cellStyle
		})

	t.Row("Run", rep.RunID)
	t.Row("Target Date", rep.TargetDate)
	if rep.Selected {
		t.Row("Slot", fmt.Sprintf("%s (%s)", rep.SlotID, rep.TimeRange))
		t.Row("Outcome", outcomeLabel(string(rep.Outcome.Kind), string(rep.Outcome.Reason)))
		if rep.Outcome.StatusCode != 0 {
			t.Row("Status", strconv.Itoa(rep.Outcome.StatusCode))
		}
	} else if rep.Failure != nil {
		t.Row("Slot", "unknown")
		t.Row("Error", truncateString(rep.Failure.Error(), 80))
	} else {
		t.Row("Slot", "none selected")
	}
	t.Row("Message", truncateString(rep.Message, 80))
	t.Row("Notified", yesNo(rep.Notified))
	t.Row("Choice Cleared", yesNo(rep.Cleared))

	return t.String(), nil
}

func outcomeLabel(outcome, reason string) string {
	if reason == "" {
		return outcome
	}
	return outcome + " (" + reason + ")"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
