package ical

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ics "github.com/arran4/golang-ical"

	"coursecal/internal/holiday"
	"coursecal/internal/log"
	"coursecal/internal/model"
)

// WriteFile renders the calendar for sessions and commits it to path. The
// document is validated by parsing it back before anything touches the
// target location, and the write itself goes through a temp file + rename,
// so a failed run never leaves a truncated or corrupt calendar behind.
func (e *Emitter) WriteFile(path string, sessions []model.CourseSession, anchor time.Time, isHoliday holiday.Oracle) error {
	data, count, err := e.Calendar(sessions, anchor, isHoliday)
	if err != nil {
		return err
	}

	if err := validate(data, count); err != nil {
		return fmt.Errorf("ical: generated document failed validation: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".coursecal-ics-*.tmp")
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
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	log.Info("calendar written", "path", path, "event_count", count)
	return nil
}

// validate parses the rendered document and checks the event count so a
// formatting regression is caught before the file is committed.
func validate(data []byte, wantEvents int) error {
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if got := len(cal.Events()); got != wantEvents {
		return fmt.Errorf("parsed %d events, emitted %d", got, wantEvents)
	}
	return nil
}
