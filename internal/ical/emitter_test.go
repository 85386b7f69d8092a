package ical

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecal/internal/holiday"
	"coursecal/internal/model"
)

var cst = time.FixedZone("CST", 8*3600)

var testAnchor = time.Date(2023, 9, 4, 0, 0, 0, 0, cst)

func testPeriods() map[int]Slot {
	return map[int]Slot{
		1: {Start: "080000", End: "084000"},
		2: {Start: "085000", End: "093000"},
		3: {Start: "100000", End: "104000"},
		4: {Start: "105000", End: "113000"},
	}
}

func sequentialUIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("uid-%04d", n)
	}
}

func testEmitter(alarmMinutes int) *Emitter {
	return New(Options{
		Periods:      testPeriods(),
		AlarmMinutes: alarmMinutes,
		Now:          time.Date(2023, 9, 1, 12, 0, 0, 0, time.UTC),
		NewUID:       sequentialUIDs(),
	})
}

func oddWeekSession() model.CourseSession {
	return model.CourseSession{
		Name: "高等数学", Teacher: "王老师", Day: 1,
		Sections: model.SectionRange{Start: 1, End: 2},
		Weeks:    []int{1, 3, 5},
		Position: "山东体育学院15号楼\n201",
	}
}

func TestCalendarOddWeekEvent(t *testing.T) {
	data, count, err := testEmitter(30).Calendar(
		[]model.CourseSession{oddWeekSession()}, testAnchor, holiday.None())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	doc := string(data)
	assert.Contains(t, doc, "X-WR-CALNAME:课表")
	assert.Contains(t, doc, "X-WR-TIMEZONE:Asia/Shanghai")
	assert.Contains(t, doc, "TZOFFSETTO:+0800")
	assert.Contains(t, doc, "CREATED:20230901T120000Z")
	assert.Contains(t, doc, "DTSTAMP:20230901T120000Z")
	assert.Contains(t, doc, "SUMMARY:高等数学")
	assert.Contains(t, doc, "DESCRIPTION:教师：王老师")
	assert.Contains(t, doc, "RRULE:FREQ=WEEKLY;UNTIL=20231003T000000Z;INTERVAL=2;BYDAY=MO")
	assert.Contains(t, doc, "DTSTART;TZID=Asia/Shanghai:20230904T080000")
	assert.Contains(t, doc, "DTEND;TZID=Asia/Shanghai:20230904T093000")
	assert.Contains(t, doc, "TRIGGER:-PT30M")
	// Newlines in the merged position survive as ICS \n escapes.
	assert.Contains(t, doc, `LOCATION:山东体育学院15号楼\n201`)
	assert.True(t, strings.HasSuffix(doc, "END:VCALENDAR\n"))
}

func TestCalendarEveryWeekOmitsByDay(t *testing.T) {
	s := oddWeekSession()
	s.Weeks = []int{1, 2, 3}
	s.Day = 3

	data, _, err := testEmitter(0).Calendar([]model.CourseSession{s}, testAnchor, holiday.None())
	require.NoError(t, err)

	doc := string(data)
	assert.Contains(t, doc, "RRULE:FREQ=WEEKLY;UNTIL=20230921T000000Z;INTERVAL=1\n")
	assert.NotContains(t, doc, "BYDAY")
}

func TestCalendarReminderToggle(t *testing.T) {
	sessions := []model.CourseSession{oddWeekSession()}

	withAlarm, _, err := testEmitter(30).Calendar(sessions, testAnchor, holiday.None())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(withAlarm), "BEGIN:VALARM"))
	assert.Contains(t, string(withAlarm), "TRIGGER:-PT30M")

	noAlarm, _, err := testEmitter(0).Calendar(sessions, testAnchor, holiday.None())
	require.NoError(t, err)
	assert.NotContains(t, string(noAlarm), "VALARM")
	assert.NotContains(t, string(noAlarm), "TRIGGER")
}

func TestCalendarHolidayExclusion(t *testing.T) {
	// Third occurrence of the odd-week Monday session is 2023-10-02.
	oracle := holiday.FromDates(map[string]struct{}{"20231002": {}})

	data, _, err := testEmitter(0).Calendar(
		[]model.CourseSession{oddWeekSession()}, testAnchor, oracle)
	require.NoError(t, err)

	assert.Contains(t, string(data), "EXDATE;TZID=Asia/Shanghai:20231002T080000\n")
}

func TestCalendarSkipsSessionsWithoutWeeks(t *testing.T) {
	s := oddWeekSession()
	s.Weeks = nil

	data, count, err := testEmitter(0).Calendar([]model.CourseSession{s}, testAnchor, holiday.None())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.NotContains(t, string(data), "BEGIN:VEVENT")
}

func TestCalendarUnknownPeriodIsFatal(t *testing.T) {
	s := oddWeekSession()
	s.Sections = model.SectionRange{Start: 4, End: 5} // 5 not in the test table

	_, _, err := testEmitter(0).Calendar([]model.CourseSession{s}, testAnchor, holiday.None())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "period 5")
}

func TestCalendarParsesBack(t *testing.T) {
	sessions := []model.CourseSession{
		oddWeekSession(),
		{
			Name: "大学英语", Teacher: "李老师", Day: 5,
			Sections: model.SectionRange{Start: 3, End: 4},
			Weeks:    []int{1, 2, 3, 4},
			Position: "综合楼-105",
		},
	}

	data, count, err := testEmitter(30).Calendar(sessions, testAnchor, holiday.None())
	require.NoError(t, err)
	require.Equal(t, 2, count)

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	summary := events[0].GetProperty(ics.ComponentPropertySummary)
	require.NotNil(t, summary)
	assert.Equal(t, "高等数学", summary.Value)
}

func TestWriteFileCommitsValidatedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ics")

	err := testEmitter(30).WriteFile(path,
		[]model.CourseSession{oddWeekSession()}, testAnchor, holiday.None())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN:VCALENDAR")
	assert.True(t, strings.HasSuffix(string(data), "END:VCALENDAR\n"))
}

func TestWriteFileLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ics")

	s := oddWeekSession()
	s.Sections = model.SectionRange{Start: 9, End: 10} // not in the test table

	err := testEmitter(0).WriteFile(path, []model.CourseSession{s}, testAnchor, holiday.None())
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no partial calendar may be left behind")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must be cleaned up")
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("080000")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, d)

	d, err = ParseClock("193000")
	require.NoError(t, err)
	assert.Equal(t, 19*time.Hour+30*time.Minute, d)

	_, err = ParseClock("1930")
	assert.Error(t, err)
}
