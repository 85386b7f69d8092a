package recur

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"coursecal/internal/holiday"
	"coursecal/internal/model"
)

// Exclusions enumerates every occurrence date implied by spec (weeks of
// the wrong parity are never candidates for biweekly patterns) and returns
// a timestamp for each one that falls on a legal holiday, ascending. The
// timestamp is the occurrence date at startClock, the session's
// period-start time of day expressed as an offset from midnight.
func Exclusions(spec model.RecurrenceSpec, startClock time.Duration, isHoliday holiday.Oracle) ([]time.Time, error) {
	if isHoliday == nil {
		return nil, nil
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.WEEKLY,
		Interval: spec.Pattern.Interval(),
		Dtstart:  spec.FirstOccurrence,
		// Inclusive bound on the final week's occurrence; spec.Until is
		// one day past it.
		Until: spec.FirstOccurrence.AddDate(0, 0, 7*(spec.EndWeek-spec.StartWeek)),
	})
	if err != nil {
		return nil, fmt.Errorf("recur: build occurrence rule: %w", err)
	}

	var excluded []time.Time
	for _, date := range r.All() {
		if isHoliday(date) {
			excluded = append(excluded, date.Add(startClock))
		}
	}
	return excluded, nil
}
