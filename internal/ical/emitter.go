// Package ical serializes course sessions into a recurring-event calendar
// document: a fixed-offset VTIMEZONE header, one VEVENT per session with a
// weekly or biweekly RRULE, holiday EXDATEs and an optional VALARM, and a
// closing footer. Files are committed atomically after a parse-back
// validation pass.
package ical

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"coursecal/internal/holiday"
	"coursecal/internal/log"
	"coursecal/internal/model"
	"coursecal/internal/recur"
)

// Slot is the clock time of one period in compact HHMMSS form.
type Slot struct {
	Start string
	End   string
}

// ISO weekday abbreviations indexed by day-1.
var byDayCodes = [7]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// Options configures an Emitter. Zero fields get the defaults of the
// source institution's calendar.
type Options struct {
	TZID     string // e.g. "Asia/Shanghai"
	TZOffset string // standard offset, e.g. "+0800"
	TZName   string // e.g. "CST"

	CalendarName  string
	CalendarColor string

	// Periods maps period numbers to clock times. A session referencing a
	// period missing from this table aborts the run.
	Periods map[int]Slot

	// AlarmMinutes is the reminder lead time; 0 omits the VALARM block.
	AlarmMinutes int

	// Now is the CREATED/DTSTAMP timestamp, shared by every event in one
	// run. Zero means current time.
	Now time.Time

	// NewUID returns a fresh unique identifier per call. Nil means
	// random UUIDs.
	NewUID func() string
}

// Emitter writes calendar documents. Construct with New.
type Emitter struct {
	opts Options
}

func New(opts Options) *Emitter {
	if opts.TZID == "" {
		opts.TZID = "Asia/Shanghai"
	}
	if opts.TZOffset == "" {
		opts.TZOffset = "+0800"
	}
	if opts.TZName == "" {
		opts.TZName = "CST"
	}
	if opts.CalendarName == "" {
		opts.CalendarName = "课表"
	}
	if opts.CalendarColor == "" {
		opts.CalendarColor = "#FF2968"
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.NewUID == nil {
		opts.NewUID = uuid.NewString
	}
	return &Emitter{opts: opts}
}

// Calendar renders the whole document for the given sessions and returns
// it with the number of events emitted. Sessions with an empty week set
// are skipped (they cannot recur); an unknown period number is fatal for
// the run.
func (e *Emitter) Calendar(sessions []model.CourseSession, anchor time.Time, isHoliday holiday.Oracle) ([]byte, int, error) {
	var b strings.Builder
	e.writeHeader(&b)

	count := 0
	for _, s := range sessions {
		if len(s.Weeks) == 0 {
			log.Info("skipping session with no weeks", "course", s.Name)
			continue
		}

		spec, err := recur.Classify(s.Weeks, s.Day, anchor)
		if err != nil {
			return nil, 0, fmt.Errorf("ical: %s: %w", s.Name, err)
		}
		if spec.Irregular {
			log.Info("irregular week set, weekly rule will cover unlisted weeks",
				"course", s.Name, "weeks", fmt.Sprint(s.Weeks))
		}

		startSlot, endSlot, err := e.lookupSlots(s)
		if err != nil {
			return nil, 0, err
		}
		startClock, err := ParseClock(startSlot.Start)
		if err != nil {
			return nil, 0, fmt.Errorf("ical: %s: period %d: %w", s.Name, s.Sections.Start, err)
		}

		spec.ExcludedDates, err = recur.Exclusions(spec, startClock, isHoliday)
		if err != nil {
			return nil, 0, fmt.Errorf("ical: %s: %w", s.Name, err)
		}

		e.writeEvent(&b, s, spec, startSlot, endSlot)
		count++
	}

	b.WriteString("END:VCALENDAR\n")
	return []byte(b.String()), count, nil
}

func (e *Emitter) lookupSlots(s model.CourseSession) (Slot, Slot, error) {
	startSlot, ok := e.opts.Periods[s.Sections.Start]
	if !ok {
		return Slot{}, Slot{}, fmt.Errorf("ical: %s: period %d has no clock time", s.Name, s.Sections.Start)
	}
	endSlot, ok := e.opts.Periods[s.Sections.End]
	if !ok {
		return Slot{}, Slot{}, fmt.Errorf("ical: %s: period %d has no clock time", s.Name, s.Sections.End)
	}
	return startSlot, endSlot, nil
}

func (e *Emitter) writeHeader(b *strings.Builder) {
	o := e.opts
	b.WriteString("BEGIN:VCALENDAR\n")
	b.WriteString("VERSION:2.0\n")
	b.WriteString("X-WR-CALNAME:" + o.CalendarName + "\n")
	b.WriteString("X-APPLE-CALENDAR-COLOR:" + o.CalendarColor + "\n")
	b.WriteString("X-WR-TIMEZONE:" + o.TZID + "\n")
	b.WriteString("BEGIN:VTIMEZONE\n")
	b.WriteString("TZID:" + o.TZID + "\n")
	b.WriteString("X-LIC-LOCATION:" + o.TZID + "\n")
	b.WriteString("BEGIN:STANDARD\n")
	b.WriteString("TZOFFSETFROM:" + o.TZOffset + "\n")
	b.WriteString("TZOFFSETTO:" + o.TZOffset + "\n")
	b.WriteString("TZNAME:" + o.TZName + "\n")
	b.WriteString("DTSTART:19700101T000000\n")
	b.WriteString("END:STANDARD\n")
	b.WriteString("END:VTIMEZONE\n")
}

func (e *Emitter) writeEvent(b *strings.Builder, s model.CourseSession, spec model.RecurrenceSpec, startSlot, endSlot Slot) {
	o := e.opts
	stamp := o.Now.UTC().Format("20060102T150405Z")
	firstDate := spec.FirstOccurrence.Format("20060102")
	// The rule's exclusive bound carries no clock time; midnight plus a
	// literal Z, as consumers of the original format expect.
	until := spec.Until.Format("20060102") + "T000000Z"

	b.WriteString("BEGIN:VEVENT\n")
	b.WriteString("CREATED:" + stamp + "\n")
	b.WriteString("DTSTAMP:" + stamp + "\n")
	b.WriteString("SUMMARY:" + escapeText(s.Name) + "\n")
	b.WriteString("DESCRIPTION:教师：" + escapeText(s.Teacher) + "\n")
	b.WriteString("LOCATION:" + escapeText(s.Position) + "\n")
	b.WriteString("TZID:" + o.TZID + "\n")
	b.WriteString("SEQUENCE:0\n")
	b.WriteString("UID:" + o.NewUID() + "\n")

	if len(spec.ExcludedDates) > 0 {
		values := make([]string, len(spec.ExcludedDates))
		for i, ts := range spec.ExcludedDates {
			values[i] = ts.Format("20060102T150405")
		}
		b.WriteString("EXDATE;TZID=" + o.TZID + ":" + strings.Join(values, ",") + "\n")
	}

	rule := fmt.Sprintf("RRULE:FREQ=WEEKLY;UNTIL=%s;INTERVAL=%d", until, spec.Pattern.Interval())
	// BYDAY pins the weekday for biweekly rules; for weekly rules the
	// DTSTART weekday alone suffices.
	if spec.Pattern != model.EveryWeek {
		rule += ";BYDAY=" + byDayCodes[s.Day-1]
	}
	b.WriteString(rule + "\n")

	b.WriteString("DTSTART;TZID=" + o.TZID + ":" + firstDate + "T" + startSlot.Start + "\n")
	b.WriteString("DTEND;TZID=" + o.TZID + ":" + firstDate + "T" + endSlot.End + "\n")
	b.WriteString("X-APPLE-TRAVEL-ADVISORY-BEHAVIOR:AUTOMATIC\n")

	if o.AlarmMinutes > 0 {
		b.WriteString("BEGIN:VALARM\n")
		b.WriteString("ACTION:DISPLAY\n")
		b.WriteString("DESCRIPTION:This is an event reminder\n")
		b.WriteString(fmt.Sprintf("TRIGGER:-PT%dM\n", o.AlarmMinutes))
		b.WriteString("X-WR-ALARMUID:" + o.NewUID() + "\n")
		b.WriteString("UID:" + o.NewUID() + "\n")
		b.WriteString("END:VALARM\n")
	}

	b.WriteString("END:VEVENT\n")
}

// escapeText makes a value safe for an ICS TEXT property. Raw newlines are
// not representable, so merged multi-segment positions survive as \n
// escapes.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	return s
}

// ParseClock converts a compact HHMMSS clock string into an offset from
// midnight.
func ParseClock(hhmmss string) (time.Duration, error) {
	t, err := time.Parse("150405", hhmmss)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", hhmmss, err)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// DefaultFilename is the timestamped output name used when none is given.
func (e *Emitter) DefaultFilename() string {
	return "课表-" + e.opts.Now.UTC().Format("20060102T150405Z") + ".ics"
}
