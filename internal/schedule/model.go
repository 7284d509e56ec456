package schedule

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// Task is a single entry of a day. Times stay raw "HH:MM:SS" strings; they are
// parsed on every evaluation with ParseClock.
type Task struct {
	Title     string `json:"title"`
	Details   string `json:"details"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Fingerprint hashes the fields that decide when and what a task alerts.
func (t Task) Fingerprint() uint64 {
	h := fnv.New64a()
	for _, s := range []string{t.Title, t.StartTime, t.EndTime} {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

type Day struct {
	DayOfWeek string `json:"day_of_week"`
	Tasks     []Task `json:"tasks"`
}

// Schedule is the whole weekly document. A loaded Schedule is never mutated;
// reloads replace it.
type Schedule struct {
	Days []Day `json:"days"`
}

// TaskKey identifies a task by position inside one schedule generation.
type TaskKey struct {
	Day  int
	Task int
}

func (k TaskKey) String() string { return fmt.Sprintf("%d/%d", k.Day, k.Task) }

// Clone returns a deep copy that shares no slices with s.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	out := &Schedule{Days: make([]Day, len(s.Days))}
	for i, d := range s.Days {
		out.Days[i] = Day{
			DayOfWeek: d.DayOfWeek,
			Tasks:     append([]Task(nil), d.Tasks...),
		}
	}
	return out
}

// Task returns the task at k, if present.
func (s *Schedule) Task(k TaskKey) (Task, bool) {
	if s == nil || k.Day < 0 || k.Day >= len(s.Days) {
		return Task{}, false
	}
	tasks := s.Days[k.Day].Tasks
	if k.Task < 0 || k.Task >= len(tasks) {
		return Task{}, false
	}
	return tasks[k.Task], true
}

// TaskCount returns the number of tasks across all days.
func (s *Schedule) TaskCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, d := range s.Days {
		n += len(d.Tasks)
	}
	return n
}

// MarshalIndent is used by the check command and the viewer debug output.
func (s *Schedule) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
