package alert

import (
	"testing"
	"time"

	"schedwatch/internal/schedule"
)

func at(hh, mm, ss int) time.Time {
	// 2026-10-12 is a Monday.
	return time.Date(2026, 10, 12, hh, mm, ss, 0, time.Local)
}

var meeting = schedule.Task{Title: "Team Meeting", StartTime: "09:00:00", EndTime: "10:00:00"}

func TestDecideFiresOnceInsideWindow(t *testing.T) {
	t.Parallel()
	st, fire := Decide(meeting, at(9, 30, 0), StateUnseen)
	if !fire || st != StateFired {
		t.Fatalf("09:30 first observation = %v,%v want fired,true", st, fire)
	}
	st, fire = Decide(meeting, at(9, 45, 0), st)
	if fire || st != StateFired {
		t.Fatalf("09:45 second observation = %v,%v want fired,false", st, fire)
	}
}

func TestDecideTable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		task     schedule.Task
		now      time.Time
		prev     State
		wantSt   State
		wantFire bool
	}{
		{name: "before window", task: meeting, now: at(8, 59, 59), prev: StateUnseen, wantSt: StateNotDue},
		{name: "at start", task: meeting, now: at(9, 0, 0), prev: StateNotDue, wantSt: StateFired, wantFire: true},
		{name: "at end", task: meeting, now: at(10, 0, 0), prev: StateNotDue, wantSt: StateFired, wantFire: true},
		{name: "missed window", task: meeting, now: at(10, 0, 1), prev: StateUnseen, wantSt: StateFired},
		{name: "fired moved to future", task: meeting, now: at(8, 0, 0), prev: StateFired, wantSt: StateNotDue},
		{name: "bad start", task: schedule.Task{StartTime: "9am", EndTime: "10:00:00"}, now: at(9, 30, 0), wantSt: StateNotDue},
		{name: "bad end", task: schedule.Task{StartTime: "09:00:00", EndTime: "later"}, now: at(9, 30, 0), wantSt: StateNotDue},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			st, fire := Decide(tt.task, tt.now, tt.prev)
			if st != tt.wantSt || fire != tt.wantFire {
				t.Fatalf("Decide = %v,%v want %v,%v", st, fire, tt.wantSt, tt.wantFire)
			}
		})
	}
}

func TestUnparsableStartNeverFires(t *testing.T) {
	t.Parallel()
	task := schedule.Task{Title: "broken", StartTime: "9am", EndTime: "23:59:59"}
	prev := StateUnseen
	for h := 0; h < 24; h++ {
		var fire bool
		prev, fire = Decide(task, at(h, 30, 0), prev)
		if fire {
			t.Fatalf("task with unparsable start fired at %02d:30", h)
		}
	}
}

func TestCarryKeepsUnchangedTasksOnly(t *testing.T) {
	t.Parallel()
	old := &schedule.Schedule{Days: []schedule.Day{{DayOfWeek: "Monday", Tasks: []schedule.Task{
		meeting,
		{Title: "Lunch", StartTime: "12:00:00", EndTime: "13:00:00"},
	}}}}
	cur := &schedule.Schedule{Days: []schedule.Day{{DayOfWeek: "Monday", Tasks: []schedule.Task{
		{Title: "Team Meeting", StartTime: "09:00:00", EndTime: "10:00:00", Details: "edited details"},
		{Title: "Lunch", StartTime: "12:30:00", EndTime: "13:00:00"},
	}}}}
	prev := Record{
		{Day: 0, Task: 0}: StateFired,
		{Day: 0, Task: 1}: StateFired,
		{Day: 3, Task: 0}: StateFired,
	}
	got := Carry(prev, old, cur)
	if got.Get(schedule.TaskKey{Day: 0, Task: 0}) != StateFired {
		t.Fatal("unchanged task should keep its state")
	}
	if got.Get(schedule.TaskKey{Day: 0, Task: 1}) != StateUnseen {
		t.Fatal("retimed task should start unseen")
	}
	if len(got) != 1 {
		t.Fatalf("stale keys carried over: %v", got)
	}
}
