package model

import "time"

// RawSession is a single rendered session block as read off the timetable
// grid, one per session-bearing cell, before any merging. Immutable after
// extraction.
type RawSession struct {
	Name    string
	Teacher string

	// Day is the ISO weekday 1..7 (Monday = 1), taken from the cell's
	// column coordinate.
	Day int

	// Row is the period row of the cell. A session always spans the two
	// consecutive periods Row and Row+1.
	Row int

	// Weeks is the sorted set of term weeks the session occurs in. An
	// empty set means the week label could not be parsed; such sessions
	// never reach the calendar stage.
	Weeks []int

	// Position is "<building>\n<room>".
	Position string
}

// Sections returns the two-period range implied by the cell row.
func (s RawSession) Sections() SectionRange {
	return SectionRange{Start: s.Row, End: s.Row + 1}
}

// SectionRange is an inclusive range of consecutive periods. End is always
// Start+1 for sessions produced by extraction.
type SectionRange struct {
	Start int
	End   int
}

// CourseSession is a normalized session after merging co-located raw
// sessions. Read-only once merged.
type CourseSession struct {
	Name     string
	Teacher  string
	Day      int
	Sections SectionRange

	// Weeks is sorted ascending and non-empty for any session that is
	// eligible for calendar emission.
	Weeks []int

	// Position may hold several fragments: segments within one fragment
	// are newline-delimited, fragments from merged sessions are joined
	// with a double space.
	Position string
}

// RecurrencePattern classifies how a session recurs across term weeks.
type RecurrencePattern int

const (
	EveryWeek RecurrencePattern = iota
	OddWeeks
	EvenWeeks
)

// Interval is the recurrence interval in weeks: 1 for weekly sessions,
// 2 for odd-week and even-week sessions.
func (p RecurrencePattern) Interval() int {
	if p == EveryWeek {
		return 1
	}
	return 2
}

func (p RecurrencePattern) String() string {
	switch p {
	case OddWeeks:
		return "odd-weeks"
	case EvenWeeks:
		return "even-weeks"
	default:
		return "every-week"
	}
}

// RecurrenceSpec holds the derived recurrence data for one CourseSession.
// It is recomputed from the session's week set and the global anchor date
// (Monday of week 1) and never persisted on its own.
type RecurrenceSpec struct {
	Pattern RecurrencePattern

	// Irregular is set when the week set has mixed parity and is not one
	// contiguous run, so an every-week rule bounded by min/max week would
	// cover dates that are not in the set. The original behavior is kept
	// but callers should surface a warning.
	Irregular bool

	StartWeek int
	EndWeek   int

	AnchorDate      time.Time
	FirstOccurrence time.Time

	// Until is one calendar day past the final week's occurrence, the
	// exclusive upper bound of the recurrence rule.
	Until time.Time

	// ExcludedDates are holiday occurrences, ascending, each at the
	// session's period-start clock time.
	ExcludedDates []time.Time
}
