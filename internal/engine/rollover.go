package engine

import (
	"fmt"
	"time"

	"github.com/kjelstad/chorebank/internal/metrics"
	"github.com/kjelstad/chorebank/internal/model"
	"github.com/kjelstad/chorebank/internal/repeat"
)

// Rollover runs the daily batch pass for the given wall-clock time. It is
// re-entrant: every task records the calendar date it last rolled, so running
// the pass twice on the same date changes nothing. A failure on one task is
// logged and skipped; the rest of the pass continues.
func (s *Store) Rollover(now time.Time) error {
	day := repeat.DayKey(now)

	err := s.mutate(func(st *state) ([]Event, error) {
		for _, t := range st.sortedTasks() {
			if !t.Recurring() {
				continue
			}
			if t.LastRollover == day {
				continue
			}
			if err := s.rollTask(st, t, now); err != nil {
				metrics.RolloverTaskErrors.Inc()
				s.logger.Error("rollover: task skipped",
					"task_id", t.ID, "title", t.Title, "error", err)
				continue
			}
			t.LastRollover = day
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("rollover for %s: %w", day, err)
	}

	metrics.RolloverRuns.Inc()
	s.logger.Info("rollover complete", "date", day)
	return nil
}

// rollTask regenerates or carries over a single recurring task.
func (s *Store) rollTask(st *state, t *model.Task, now time.Time) error {
	// Overdue display marker, orthogonal to regeneration.
	if t.MarkOverdue && t.Due != nil && now.After(*t.Due) && !t.Approved {
		t.CarriedOver = true
	}

	if !repeat.AnyMatches(t.RepeatDays, now, t.CreatedAt) {
		return nil
	}

	// A persistent instance that was never approved is carried over, not
	// duplicated: the open instance stays exactly as it is and shows as
	// overdue.
	if t.PersistUntilCompleted && !t.Approved {
		t.CarriedOver = true
		t.UpdatedAt = s.now()
		return nil
	}

	// Fresh instance for today.
	t.CarriedOver = false
	t.Approved = false
	t.BonusApproved = false
	t.CompletedTS = nil
	t.BonusCompletedTS = nil

	switch t.ScheduleMode {
	case model.ScheduleRotating:
		next := repeat.NextRotation(t.RepeatChildIDs, t.AssignedTo)
		if next != "" {
			if _, ok := st.children[next]; !ok {
				s.logger.Warn("rollover: rotation target unknown",
					"task_id", t.ID, "child_id", next)
			}
			t.AssignedTo = next
		}
	default:
		// Fixed schedule: the configured repeat assignee wins, otherwise
		// whoever held the task keeps it.
		if t.RepeatChildID != "" {
			t.AssignedTo = t.RepeatChildID
		}
	}

	if t.AssignedTo != "" {
		t.Status = model.StatusAssigned
	} else {
		t.Status = model.StatusUnassigned
	}
	t.UpdatedAt = s.now()
	return nil
}
