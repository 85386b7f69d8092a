// Package schedule holds the normalized course sessions between extraction
// and export, and projects them into the human-readable display form and
// the structured interchange form consumed by calendar generation. No
// business logic lives here beyond formatting.
package schedule

import (
	"fmt"
	"strings"

	"coursecal/internal/model"
)

var weekdayNames = [7]string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

// WeekdayName returns the Chinese weekday label for day 1..7, or a literal
// "星期N" fallback for out-of-range values.
func WeekdayName(day int) string {
	if day >= 1 && day <= 7 {
		return weekdayNames[day-1]
	}
	return fmt.Sprintf("星期%d", day)
}

// SectionsLabel renders a period range as "第1-2节".
func SectionsLabel(sections model.SectionRange) string {
	return fmt.Sprintf("第%d-%d节", sections.Start, sections.End)
}

// WeeksLabel renders a week set as "第1,3,5周".
func WeeksLabel(weeks []int) string {
	parts := make([]string, len(weeks))
	for i, w := range weeks {
		parts[i] = fmt.Sprint(w)
	}
	return "第" + strings.Join(parts, ",") + "周"
}

// Repository is the ordered container of merged course sessions.
type Repository struct {
	sessions []model.CourseSession
}

func New(sessions []model.CourseSession) *Repository {
	return &Repository{sessions: sessions}
}

func (r *Repository) Len() int { return len(r.sessions) }

// Sessions returns the sessions in first-seen order.
func (r *Repository) Sessions() []model.CourseSession { return r.sessions }

// DisplayText renders the full human-readable timetable block, one course
// per stanza.
func (r *Repository) DisplayText() string {
	var b strings.Builder
	b.WriteString("===== 课表信息 =====\n")

	for _, s := range r.sessions {
		b.WriteString("\n课程: " + s.Name + "\n")
		b.WriteString("教师: " + s.Teacher + "\n")
		b.WriteString("时间: " + WeekdayName(s.Day) + " " + SectionsLabel(s.Sections) + "\n")
		b.WriteString("周次: " + WeeksLabel(s.Weeks) + "\n")
		b.WriteString("地点: " + s.Position + "\n")
	}

	b.WriteString("\n===================\n")
	return b.String()
}
