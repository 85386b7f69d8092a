package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"coursecal/internal/model"
)

// Record is one course in the structured interchange form, the sole input
// to calendar generation. The display labels are carried alongside the raw
// arrays so the file is readable on its own.
type Record struct {
	Name     string `json:"name"`
	Teacher  string `json:"teacher"`
	Time     string `json:"time"`
	Sections string `json:"sections"`
	Weeks    string `json:"weeks"`

	WeeksArray []int  `json:"weeks_array"`
	Position   string `json:"position"`
	Day        int    `json:"day"`

	SectionArray []int `json:"section_array"`
}

// Records projects the stored sessions into interchange form. Position
// newlines become dashes in this view.
func (r *Repository) Records() []Record {
	records := make([]Record, 0, len(r.sessions))
	for _, s := range r.sessions {
		records = append(records, Record{
			Name:         s.Name,
			Teacher:      s.Teacher,
			Time:         WeekdayName(s.Day),
			Sections:     SectionsLabel(s.Sections),
			Weeks:        WeeksLabel(s.Weeks),
			WeeksArray:   slices.Clone(s.Weeks),
			Position:     strings.ReplaceAll(s.Position, "\n", "-"),
			Day:          s.Day,
			SectionArray: []int{s.Sections.Start, s.Sections.End},
		})
	}
	return records
}

// Session converts a record back into the session form consumed by the
// recurrence and calendar stages.
func (rec Record) Session() (model.CourseSession, error) {
	if len(rec.SectionArray) != 2 {
		return model.CourseSession{}, fmt.Errorf("schedule: record %q has section_array of length %d, want 2", rec.Name, len(rec.SectionArray))
	}
	return model.CourseSession{
		Name:    rec.Name,
		Teacher: rec.Teacher,
		Day:     rec.Day,
		Sections: model.SectionRange{
			Start: rec.SectionArray[0],
			End:   rec.SectionArray[1],
		},
		Weeks:    rec.WeeksArray,
		Position: rec.Position,
	}, nil
}

// MarshalRecords renders records in the on-disk interchange encoding
// (4-space indented JSON, unescaped unicode, trailing newline). Kept as a
// separate step so round-trips are byte-stable.
func MarshalRecords(records []Record) ([]byte, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// WriteRecords writes the interchange file atomically (temp file + rename)
// so readers never observe a truncated record set.
func WriteRecords(path string, records []Record) error {
	data, err := MarshalRecords(records)
	if err != nil {
		return fmt.Errorf("schedule: encode records: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".coursecal-records-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ReadRecords loads an interchange file written by WriteRecords.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("schedule: parse %s: %w", path, err)
	}
	return records, nil
}
