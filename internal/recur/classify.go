// Package recur derives recurrence rules from week sets: parity
// classification, anchor-date arithmetic and holiday-aware exclusion
// generation.
package recur

import (
	"fmt"
	"slices"
	"time"

	"coursecal/internal/model"
)

// Classify derives the recurrence spec for a session occurring on weekday
// day (1..7, Monday = 1) during the given term weeks, against the anchor
// date (Monday of week 1). Exclusions are filled in separately.
//
// Week sets where every week is odd recur biweekly on odd weeks, all-even
// sets recur biweekly on even weeks, anything else falls back to weekly
// recurrence spanning min..max week.
func Classify(weeks []int, day int, anchor time.Time) (model.RecurrenceSpec, error) {
	if len(weeks) == 0 {
		return model.RecurrenceSpec{}, fmt.Errorf("recur: empty week set")
	}
	if day < 1 || day > 7 {
		return model.RecurrenceSpec{}, fmt.Errorf("recur: weekday %d out of range 1..7", day)
	}

	sorted := slices.Clone(weeks)
	slices.Sort(sorted)
	startWeek := sorted[0]
	endWeek := sorted[len(sorted)-1]

	allOdd, allEven := true, true
	for _, w := range sorted {
		if w%2 == 1 {
			allEven = false
		} else {
			allOdd = false
		}
	}

	pattern := model.EveryWeek
	switch {
	case allOdd:
		pattern = model.OddWeeks
	case allEven:
		pattern = model.EvenWeeks
	}

	// A weekly fallback bounded by min..max covers every week in between,
	// so a mixed-parity set with gaps gets occurrences it never asked for.
	irregular := pattern == model.EveryWeek && len(sorted) != endWeek-startWeek+1

	delta := 7*(startWeek-1) + (day - 1)
	// Biweekly patterns must start on a week of the right parity.
	if pattern == model.OddWeeks && startWeek%2 == 0 {
		delta += 7
	} else if pattern == model.EvenWeeks && startWeek%2 == 1 {
		delta += 7
	}

	first := anchor.AddDate(0, 0, delta)

	return model.RecurrenceSpec{
		Pattern:         pattern,
		Irregular:       irregular,
		StartWeek:       startWeek,
		EndWeek:         endWeek,
		AnchorDate:      anchor,
		FirstOccurrence: first,
		// One day past the final week's occurrence; the recurrence rule
		// treats it as an exclusive upper bound.
		Until: first.AddDate(0, 0, 7*(endWeek-startWeek)+1),
	}, nil
}
