package timetable

import (
	"slices"

	"coursecal/internal/model"
)

// Merge collapses raw sessions that share (weekday, section range, week
// set) into a single CourseSession, preserving first-seen order. A later
// duplicate appends its position to the earlier entry with a double-space
// separator and never reorders it.
//
// The scan is linear per session; a timetable holds a few dozen sessions
// at most, so the quadratic worst case is irrelevant.
func Merge(raw []model.RawSession) []model.CourseSession {
	var sessions []model.CourseSession

	for _, r := range raw {
		sections := r.Sections()

		merged := false
		for i := range sessions {
			if sessions[i].Day == r.Day &&
				sessions[i].Sections == sections &&
				slices.Equal(sessions[i].Weeks, r.Weeks) {
				sessions[i].Position += "  " + r.Position
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		sessions = append(sessions, model.CourseSession{
			Name:     r.Name,
			Teacher:  r.Teacher,
			Day:      r.Day,
			Sections: sections,
			Weeks:    slices.Clone(r.Weeks),
			Position: r.Position,
		})
	}

	return sessions
}
