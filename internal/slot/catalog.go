// Package slot holds the fixed catalog of bookable one-hour gym windows.
package slot

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/harunnryd/gymslot/internal/errors"
)

// SkipID is the pseudo-choice meaning "do not book tomorrow". It is not a catalog entry.
const SkipID = "skip"

type Entry struct {
	ID        string
	Label     string
	TimeRange string
	Icon      string
}

// Start returns the HH:MM start of the entry's time range.
func (e Entry) Start() string {
	start, _, _ := strings.Cut(e.TimeRange, "-")
	return start
}

func (e Entry) End() string {
	_, end, _ := strings.Cut(e.TimeRange, "-")
	return end
}

func (e Entry) Display() string {
	return e.Icon + " " + e.Label
}

var catalog = []Entry{
	{ID: "1", Label: "3:00 PM - 4:00 PM", TimeRange: "15:00-16:00", Icon: "🕒"},
	{ID: "2", Label: "4:00 PM - 5:00 PM", TimeRange: "16:00-17:00", Icon: "🕓"},
	{ID: "3", Label: "5:00 PM - 6:00 PM", TimeRange: "17:00-18:00", Icon: "🕔"},
	{ID: "4", Label: "6:00 PM - 7:00 PM", TimeRange: "18:00-19:00", Icon: "🕕"},
	{ID: "5", Label: "7:00 PM - 8:00 PM", TimeRange: "19:00-20:00", Icon: "🕖"},
	{ID: "6", Label: "8:00 PM - 9:00 PM", TimeRange: "20:00-21:00", Icon: "🕗"},
}

var byID = func() map[string]Entry {
	m := make(map[string]Entry, len(catalog))
	for _, e := range catalog {
		m[e.ID] = e
	}
	return m
}()

// All returns a copy of the catalog in id order.
func All() []Entry {
	out := make([]Entry, len(catalog))
	copy(out, catalog)
	return out
}

// Resolve looks up id. Unknown ids, including SkipID, return an error wrapping errors.ErrUnknownSlot.
func Resolve(id string) (Entry, error) {
	e, ok := byID[strings.TrimSpace(id)]
	if !ok {
		return Entry{}, errors.UnknownSlot(id)
	}
	return e, nil
}

func IsKnown(id string) bool {
	_, ok := byID[strings.TrimSpace(id)]
	return ok
}

var timeRangePattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)-([01]\d|2[0-3]):([0-5]\d)$`)

// ParseTimeRange splits an "HH:MM-HH:MM" range and requires start before end.
func ParseTimeRange(s string) (start, end string, err error) {
	if !timeRangePattern.MatchString(s) {
		return "", "", errors.InvalidInput(fmt.Sprintf("time range %q is not HH:MM-HH:MM", s))
	}
	start, end, _ = strings.Cut(s, "-")
	if start >= end {
		return "", "", errors.InvalidInput(fmt.Sprintf("time range %q ends before it starts", s))
	}
	return start, end, nil
}
