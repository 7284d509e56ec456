// Package alert decides, task by task, whether the current moment should
// produce a notification.
//
// The decision is a pure function of the task, the wall clock and the
// previous lifecycle value recorded for the task's key. A task fires once
// when the clock first enters its window; being observed again while it is
// still due never fires again. A window first observed after it ended is
// marked fired silently so a late alert is never sent.
package alert

import (
	"time"

	"schedwatch/internal/schedule"
)

// State is the lifecycle value tracked per task key.
type State uint8

const (
	// StateUnseen is the zero value: the key has no entry yet.
	StateUnseen State = iota
	StateNotDue
	StateFired
)

func (s State) String() string {
	switch s {
	case StateNotDue:
		return "not_due"
	case StateFired:
		return "fired"
	default:
		return "unseen"
	}
}

// Decide returns the next state of a task and whether it should notify now.
// Start and end are parsed on every call.
func Decide(t schedule.Task, now time.Time, prev State) (next State, fire bool) {
	start, end, ok := t.TimeRange()
	if !ok {
		return StateNotDue, false
	}
	clock := schedule.ClockOf(now)
	if clock < start {
		return StateNotDue, false
	}
	if prev == StateFired {
		return StateFired, false
	}
	return StateFired, clock <= end
}
