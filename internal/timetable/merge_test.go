package timetable

import (
	"testing"

	"coursecal/internal/model"
)

func raw(name, pos string, day, row int, weeks []int) model.RawSession {
	return model.RawSession{
		Name: name, Teacher: "老师", Day: day, Row: row,
		Weeks: weeks, Position: pos,
	}
}

func TestMergeCombinesCoLocatedSessions(t *testing.T) {
	sessions := Merge([]model.RawSession{
		raw("篮球", "场馆A\n1", 2, 5, []int{1, 2, 3}),
		raw("篮球", "场馆B\n2", 2, 5, []int{1, 2, 3}),
	})
	if len(sessions) != 1 {
		t.Fatalf("expected 1 merged session, got %d", len(sessions))
	}
	if sessions[0].Position != "场馆A\n1  场馆B\n2" {
		t.Fatalf("unexpected merged position: %q", sessions[0].Position)
	}
}

func TestMergeKeepsDistinctSessions(t *testing.T) {
	sessions := Merge([]model.RawSession{
		raw("a", "x", 1, 1, []int{1, 2}),
		raw("b", "y", 1, 1, []int{1, 3}), // same slot, different weeks
		raw("c", "z", 1, 3, []int{1, 2}), // different sections
		raw("d", "w", 2, 1, []int{1, 2}), // different weekday
	})
	if len(sessions) != 4 {
		t.Fatalf("expected 4 sessions, got %d", len(sessions))
	}
	// First-seen order is preserved.
	for i, want := range []string{"a", "b", "c", "d"} {
		if sessions[i].Name != want {
			t.Fatalf("order broken at %d: got %q want %q", i, sessions[i].Name, want)
		}
	}
}

func TestMergeIdempotence(t *testing.T) {
	base := []model.RawSession{
		raw("a", "pos-a", 1, 1, []int{1, 3, 5}),
		raw("b", "pos-b", 3, 7, []int{2, 4}),
	}
	once := Merge(base)

	doubled := append(append([]model.RawSession{}, base...), base...)
	twice := Merge(doubled)

	if len(twice) != len(once) {
		t.Fatalf("duplicated input changed session count: %d vs %d", len(twice), len(once))
	}
	for i := range once {
		want := len(once[i].Position)*2 + 2 // original + separator + original
		if len(twice[i].Position) != want {
			t.Fatalf("session %d: position length %d, want %d", i, len(twice[i].Position), want)
		}
	}
}
