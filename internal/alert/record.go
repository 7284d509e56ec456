package alert

import "schedwatch/internal/schedule"

// Record maps task keys of one schedule generation to their lifecycle value.
// It is not safe for concurrent use; the controller guards it.
type Record map[schedule.TaskKey]State

// Get returns the stored state, StateUnseen for unknown keys.
func (r Record) Get(k schedule.TaskKey) State { return r[k] }

// Set stores s for k.
func (r Record) Set(k schedule.TaskKey, s State) { r[k] = s }

// Carry builds the record for a new generation from the previous one.
// Only keys whose task fingerprint is identical in both schedules survive.
func Carry(prev Record, old, cur *schedule.Schedule) Record {
	out := Record{}
	for k, st := range prev {
		if st == StateUnseen {
			continue
		}
		ot, ok := old.Task(k)
		if !ok {
			continue
		}
		nt, ok := cur.Task(k)
		if !ok || nt.Fingerprint() != ot.Fingerprint() {
			continue
		}
		out[k] = st
	}
	return out
}
