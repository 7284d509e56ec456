package schedule

import (
	"testing"
	"time"
)

func TestParseWeekday(t *testing.T) {
	t.Parallel()
	tests := []struct {
		label string
		want  time.Weekday
		ok    bool
	}{
		{"Monday", time.Monday, true},
		{" sunday ", time.Sunday, true},
		{"月曜日", time.Monday, true},
		{"日曜日", time.Sunday, true},
		{"土曜日", time.Saturday, true},
		{"Mon", 0, false},
		{"Lundi", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseWeekday(tt.label)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("ParseWeekday(%q) = %v,%v want %v,%v", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDayMatches(t *testing.T) {
	t.Parallel()
	d := Day{DayOfWeek: "水曜日"}
	if !d.Matches(time.Wednesday) {
		t.Fatal("expected alias to match Wednesday")
	}
	if d.Matches(time.Thursday) {
		t.Fatal("alias must not match another weekday")
	}
	if (Day{DayOfWeek: "Someday"}).Matches(time.Monday) {
		t.Fatal("unknown label must never match")
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()
	got, err := ParseClock("09:30:15")
	if err != nil {
		t.Fatalf("ParseClock: %v", err)
	}
	if want := 9*time.Hour + 30*time.Minute + 15*time.Second; got != want {
		t.Fatalf("ParseClock = %v, want %v", got, want)
	}
	for _, bad := range []string{"9am", "25:00:00", "", "09:00", " 09:00:00", "09:00:00\n"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("ParseClock(%q) should fail", bad)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()
	s := &Schedule{Days: []Day{{DayOfWeek: "Monday", Tasks: []Task{{Title: "a"}}}}}
	c := s.Clone()
	c.Days[0].Tasks[0].Title = "changed"
	c.Days[0].DayOfWeek = "Tuesday"
	if s.Days[0].Tasks[0].Title != "a" || s.Days[0].DayOfWeek != "Monday" {
		t.Fatalf("clone shares state with original: %+v", s)
	}
}

func TestFingerprintIgnoresDetails(t *testing.T) {
	t.Parallel()
	a := Task{Title: "x", StartTime: "09:00:00", EndTime: "10:00:00", Details: "one"}
	b := a
	b.Details = "two"
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("details should not change the fingerprint")
	}
	b.StartTime = "09:01:00"
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("start time must change the fingerprint")
	}
}
