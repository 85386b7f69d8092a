package timetable

import (
	"slices"
	"strings"
	"testing"
)

const sampleCell = `
<table><tr>
<td row="1" col="1">
  <div class="divOneClass">
    <span class="spLUName">高等数学</span>
    <span class="spTeacherName">王老师</span>
    <span class="spWeekInfo">1-16周</span>
    <span class="spBuilding">济-15号楼</span>
    <span class="spClassroom">201</span>
  </div>
</td>
<td row="3" col="5">
  <div class="divOneClass">
    <span class="spLUName">大学英语</span>
    <span class="spTeacherName">李老师</span>
    <span class="spWeekInfo">3周</span>
    <span class="spBuilding">综合楼</span>
    <span class="spClassroom">105</span>
  </div>
</td>
</tr></table>`

func TestExtract(t *testing.T) {
	sessions, err := NewExtractor(nil).ExtractHTML(strings.NewReader(sampleCell))
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	first := sessions[0]
	if first.Name != "高等数学" || first.Teacher != "王老师" {
		t.Fatalf("unexpected fields: %+v", first)
	}
	if first.Day != 1 || first.Row != 1 {
		t.Fatalf("unexpected coordinates: day=%d row=%d", first.Day, first.Row)
	}
	if got := first.Sections(); got.Start != 1 || got.End != 2 {
		t.Fatalf("unexpected sections: %+v", got)
	}
	if len(first.Weeks) != 16 || first.Weeks[0] != 1 || first.Weeks[15] != 16 {
		t.Fatalf("unexpected weeks: %v", first.Weeks)
	}
	if first.Position != "山东体育学院15号楼\n201" {
		t.Fatalf("unexpected position: %q", first.Position)
	}

	second := sessions[1]
	if second.Day != 5 || second.Row != 3 {
		t.Fatalf("unexpected coordinates: %+v", second)
	}
	if !slices.Equal(second.Weeks, []int{3}) {
		t.Fatalf("unexpected weeks: %v", second.Weeks)
	}
	if second.Position != "综合楼\n105" {
		t.Fatalf("building without a known prefix must pass through: %q", second.Position)
	}
}

func TestExtractDropsIncompleteCells(t *testing.T) {
	// Missing spTeacherName: the cell is dropped, the rest survives.
	html := `
<table><tr>
<td row="1" col="1">
  <div class="divOneClass">
    <span class="spLUName">体育</span>
    <span class="spWeekInfo">1-8周</span>
    <span class="spBuilding">馆</span>
    <span class="spClassroom">1</span>
  </div>
</td>
<td row="5" col="2">
  <div class="divOneClass">
    <span class="spLUName">物理</span>
    <span class="spTeacherName">张老师</span>
    <span class="spWeekInfo">1-8周</span>
    <span class="spBuilding">实验楼</span>
    <span class="spClassroom">302</span>
  </div>
</td>
</tr></table>`
	sessions, err := NewExtractor(nil).ExtractHTML(strings.NewReader(html))
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Name != "物理" {
		t.Fatalf("expected only the complete cell, got %+v", sessions)
	}
}

func TestExtractRejectsOutOfRangeRow(t *testing.T) {
	// Row 10 would imply an end period 11, which has no clock time.
	html := `
<table><tr><td row="10" col="1">
  <div class="divOneClass">
    <span class="spLUName">晚课</span>
    <span class="spTeacherName">赵老师</span>
    <span class="spWeekInfo">1-4周</span>
    <span class="spBuilding">楼</span>
    <span class="spClassroom">1</span>
  </div>
</td></tr></table>`
	sessions, err := NewExtractor(nil).ExtractHTML(strings.NewReader(html))
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("row 10 must be rejected, got %+v", sessions)
	}
}

func TestParseWeekLabel(t *testing.T) {
	cases := []struct {
		label string
		want  []int
	}{
		{"1-16周", rangeWeeks(1, 16)},
		{"2-4周", []int{2, 3, 4}},
		{"3周", []int{3}},
		{" 5周 ", []int{5}},
		{"5-3周", nil},
		{"周", nil},
		{"", nil},
		{"全周", nil},
	}
	for _, c := range cases {
		got := ParseWeekLabel(c.label)
		if !slices.Equal(got, c.want) {
			t.Errorf("ParseWeekLabel(%q) = %v, want %v", c.label, got, c.want)
		}
	}
}

func TestRewriteBuildingRuleOrder(t *testing.T) {
	e := NewExtractor([]RewriteRule{
		{Prefix: "济-", Template: "山东体育学院%s"},
		{Prefix: "济", Template: "不可达%s"},
	})
	if got := e.RewriteBuilding("济-15号楼"); got != "山东体育学院15号楼" {
		t.Fatalf("first matching rule must win, got %q", got)
	}
	if got := e.RewriteBuilding("主楼"); got != "主楼" {
		t.Fatalf("identity fallback broken, got %q", got)
	}
}

func rangeWeeks(a, b int) []int {
	var out []int
	for w := a; w <= b; w++ {
		out = append(out, w)
	}
	return out
}
