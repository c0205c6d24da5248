package repository

// schedule.go holds the pure interval arithmetic behind task
// scheduling. Keeping it free of database access lets the overlap rule
// be tested directly against in-memory task sets; the transactional
// wrapper in task_repository.go feeds it locked rows.

// HasOverlap reports whether the half-open interval
// [start, start+duration) collides with any scheduled task in the set,
// ignoring the task identified by excludeID (pass 0 when creating).
// Tasks missing either start or duration are unscheduled and never
// collide. Touching endpoints do not count: a task ending at 11 and a
// task starting at 11 are back-to-back, not overlapping, and a zero
// or negative duration denotes an empty interval that overlaps
// nothing.
func HasOverlap(tasks []Task, excludeID uint64, start, duration float64) bool {
	if duration <= 0 || start < 0 {
		return false
	}
	end := start + duration
	for _, t := range tasks {
		if t.ID == excludeID && excludeID != 0 {
			continue
		}
		if t.StartTime == nil || t.Duration == nil {
			continue
		}
		s, d := *t.StartTime, *t.Duration
		if d <= 0 {
			continue
		}
		if s < end && s+d > start {
			return true
		}
	}
	return false
}
