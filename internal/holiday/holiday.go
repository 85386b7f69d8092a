// Package holiday defines the narrow holiday-lookup capability used when
// generating exclusion dates. The core never depends on a specific holiday
// dataset or jurisdiction; any date predicate can be plugged in.
package holiday

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Oracle reports whether a calendar date is a legal holiday. Only the
// year/month/day of the argument are significant.
type Oracle func(date time.Time) bool

// None is the empty oracle: no date is a holiday.
func None() Oracle {
	return func(time.Time) bool { return false }
}

const dateLayout = "2006-01-02"

// entry is one holiday span in the dataset file. To is optional; a single
// date needs only From.
type entry struct {
	Name string `yaml:"name"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type dataset struct {
	Holidays []entry `yaml:"holidays"`
}

// Load reads a YAML holiday dataset:
//
//	holidays:
//	  - name: 国庆节
//	    from: 2023-10-01
//	    to: 2023-10-06
//
// and returns an Oracle over the listed dates. Statutory holidays are
// government-declared and not computable, so they are data, swapped per
// region and term.
func Load(path string) (Oracle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var ds dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("holiday: parse %s: %w", path, err)
	}

	days := make(map[string]struct{})
	for _, h := range ds.Holidays {
		from, err := time.Parse(dateLayout, h.From)
		if err != nil {
			return nil, fmt.Errorf("holiday: %q has invalid from date %q: %w", h.Name, h.From, err)
		}
		to := from
		if h.To != "" {
			to, err = time.Parse(dateLayout, h.To)
			if err != nil {
				return nil, fmt.Errorf("holiday: %q has invalid to date %q: %w", h.Name, h.To, err)
			}
		}
		if to.Before(from) {
			return nil, fmt.Errorf("holiday: %q ends (%s) before it starts (%s)", h.Name, h.To, h.From)
		}
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			days[d.Format("20060102")] = struct{}{}
		}
	}

	return FromDates(days), nil
}

// FromDates builds an Oracle from a set of YYYYMMDD-keyed dates.
func FromDates(days map[string]struct{}) Oracle {
	return func(date time.Time) bool {
		_, ok := days[date.Format("20060102")]
		return ok
	}
}
