// Package timetable turns the rendered timetable grid into normalized
// course sessions: extraction of one RawSession per session-bearing cell,
// followed by an order-preserving merge of co-located sessions.
package timetable

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"coursecal/internal/log"
	"coursecal/internal/model"
)

// Selectors of the labeled sub-fields inside one session cell.
const (
	cellSelector      = ".divOneClass"
	nameSelector      = ".spLUName"
	teacherSelector   = ".spTeacherName"
	weekInfoSelector  = ".spWeekInfo"
	buildingSelector  = ".spBuilding"
	classroomSelector = ".spClassroom"
)

// RewriteRule normalizes building-name fragments with a recognized prefix.
// Template receives the fragment with the prefix stripped via a single %s.
type RewriteRule struct {
	Prefix   string
	Template string
}

// DefaultRewriteRules covers the one prefix used by the source system.
func DefaultRewriteRules() []RewriteRule {
	return []RewriteRule{{Prefix: "济-", Template: "山东体育学院%s"}}
}

// Extractor converts session-bearing table cells into RawSession records.
// It is a pure transform over the provided document.
type Extractor struct {
	rules []RewriteRule
}

func NewExtractor(rules []RewriteRule) *Extractor {
	if rules == nil {
		rules = DefaultRewriteRules()
	}
	return &Extractor{rules: rules}
}

// ExtractHTML parses r as HTML and extracts all sessions from it.
func (e *Extractor) ExtractHTML(r io.Reader) ([]model.RawSession, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("timetable: parse html: %w", err)
	}
	return e.Extract(doc), nil
}

// Extract walks every session cell in the document and produces one
// RawSession per cell. Cells missing a required sub-field or carrying
// out-of-range coordinates are dropped with a log line; the rest of the
// table is still processed.
func (e *Extractor) Extract(doc *goquery.Document) []model.RawSession {
	var sessions []model.RawSession

	doc.Find(cellSelector).Each(func(i int, s *goquery.Selection) {
		raw, err := e.extractCell(s)
		if err != nil {
			log.Error("dropping session cell", err, "cell_index", i)
			return
		}
		sessions = append(sessions, raw)
	})

	return sessions
}

func (e *Extractor) extractCell(s *goquery.Selection) (model.RawSession, error) {
	td := s.Closest("td")
	rowAttr, ok := td.Attr("row")
	if !ok {
		return model.RawSession{}, fmt.Errorf("cell has no row attribute")
	}
	colAttr, ok := td.Attr("col")
	if !ok {
		return model.RawSession{}, fmt.Errorf("cell has no col attribute")
	}

	row, err := strconv.Atoi(strings.TrimSpace(rowAttr))
	if err != nil {
		return model.RawSession{}, fmt.Errorf("bad row attribute %q: %w", rowAttr, err)
	}
	day, err := strconv.Atoi(strings.TrimSpace(colAttr))
	if err != nil {
		return model.RawSession{}, fmt.Errorf("bad col attribute %q: %w", colAttr, err)
	}

	// A session spans periods row..row+1 and the clock table defines
	// periods 1..10 only, so row 10 would imply an end period with no
	// clock time. Reject it here instead of guessing one later.
	if row < 1 || row > 9 {
		return model.RawSession{}, fmt.Errorf("period row %d out of range 1..9", row)
	}
	if day < 1 || day > 7 {
		return model.RawSession{}, fmt.Errorf("weekday column %d out of range 1..7", day)
	}

	name, err := requiredField(s, nameSelector)
	if err != nil {
		return model.RawSession{}, err
	}
	teacher, err := requiredField(s, teacherSelector)
	if err != nil {
		return model.RawSession{}, err
	}
	weekLabel, err := requiredField(s, weekInfoSelector)
	if err != nil {
		return model.RawSession{}, err
	}
	building, err := requiredField(s, buildingSelector)
	if err != nil {
		return model.RawSession{}, err
	}
	classroom, err := requiredField(s, classroomSelector)
	if err != nil {
		return model.RawSession{}, err
	}

	weeks := ParseWeekLabel(weekLabel)
	if len(weeks) == 0 {
		// Recoverable: the session is kept in the structured views but a
		// session with no weeks cannot recur, so the calendar stage skips it.
		log.Info("unparseable week label, session will not recur",
			"course", name, "label", weekLabel)
	}

	return model.RawSession{
		Name:     name,
		Teacher:  teacher,
		Day:      day,
		Row:      row,
		Weeks:    weeks,
		Position: e.RewriteBuilding(building) + "\n" + classroom,
	}, nil
}

func requiredField(s *goquery.Selection, selector string) (string, error) {
	sel := s.Find(selector)
	if sel.Length() == 0 {
		return "", fmt.Errorf("cell is missing %s", selector)
	}
	return strings.TrimSpace(sel.First().Text()), nil
}

// RewriteBuilding applies the ordered rewrite rules, first match wins; a
// name with no recognized prefix passes through unchanged.
func (e *Extractor) RewriteBuilding(name string) string {
	for _, r := range e.rules {
		if strings.HasPrefix(name, r.Prefix) {
			return fmt.Sprintf(r.Template, strings.TrimPrefix(name, r.Prefix))
		}
	}
	return name
}

// ParseWeekLabel parses a week-range label of the form "<a>-<b>周"
// (inclusive) or "<n>周" (single week). Malformed labels yield an empty
// set.
func ParseWeekLabel(label string) []int {
	s := strings.ReplaceAll(strings.TrimSpace(label), "周", "")
	if a, b, found := strings.Cut(s, "-"); found {
		start, err1 := strconv.Atoi(strings.TrimSpace(a))
		end, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 != nil || err2 != nil || end < start {
			return nil
		}
		weeks := make([]int, 0, end-start+1)
		for w := start; w <= end; w++ {
			weeks = append(weeks, w)
		}
		return weeks
	}
	w, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return []int{w}
}
