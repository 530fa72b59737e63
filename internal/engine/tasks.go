package engine

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kjelstad/chorebank/internal/metrics"
	"github.com/kjelstad/chorebank/internal/model"
	"github.com/kjelstad/chorebank/internal/repeat"
)

// TaskDraft carries the fields for a new task.
type TaskDraft struct {
	Title       string
	Description string
	Points      int
	Due         *time.Time
	AssignedTo  string
	Icon        string
	Categories  []string

	SkipApproval          bool
	PersistUntilCompleted bool
	QuickComplete         bool
	FastestWins           bool
	MarkOverdue           bool

	ScheduleMode   model.ScheduleMode
	RepeatDays     []string
	RepeatChildID  string
	RepeatChildIDs []string

	BonusEnabled bool
	BonusTitle   string
	BonusPoints  int

	EarlyBonusEnabled bool
	EarlyBonusDays    int
	EarlyBonusPoints  int
}

func (d *TaskDraft) validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("task title is required: %w", ErrValidation)
	}
	if d.Points < 0 || d.BonusPoints < 0 || d.EarlyBonusPoints < 0 {
		return fmt.Errorf("points must not be negative: %w", ErrValidation)
	}
	if d.EarlyBonusDays < 0 {
		return fmt.Errorf("early bonus days must not be negative: %w", ErrValidation)
	}
	if _, err := repeat.ParseAll(d.RepeatDays); err != nil {
		return fmt.Errorf("%v: %w", err, ErrValidation)
	}
	switch d.ScheduleMode {
	case "", model.ScheduleFixed, model.ScheduleRotating:
	default:
		return fmt.Errorf("unknown schedule mode %q: %w", d.ScheduleMode, ErrValidation)
	}
	return nil
}

// AddTask creates a task from the draft. An assigned task starts in the
// assigned state, otherwise unassigned.
func (s *Store) AddTask(draft TaskDraft) (*model.Task, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	mode := draft.ScheduleMode
	if mode == "" {
		mode = model.ScheduleFixed
	}

	var created *model.Task
	err := s.mutate(func(st *state) ([]Event, error) {
		now := s.now()
		status := model.StatusUnassigned
		if draft.AssignedTo != "" {
			if _, ok := st.children[draft.AssignedTo]; !ok {
				return nil, fmt.Errorf("child %s: %w", draft.AssignedTo, ErrNotFound)
			}
			status = model.StatusAssigned
		}
		t := &model.Task{
			ID:                    s.newID(),
			Title:                 strings.TrimSpace(draft.Title),
			Description:           draft.Description,
			Points:                draft.Points,
			Due:                   draft.Due,
			AssignedTo:            draft.AssignedTo,
			Status:                status,
			SkipApproval:          draft.SkipApproval,
			PersistUntilCompleted: draft.PersistUntilCompleted,
			QuickComplete:         draft.QuickComplete,
			FastestWins:           draft.FastestWins,
			MarkOverdue:           draft.MarkOverdue,
			Icon:                  draft.Icon,
			Categories:            slices.Clone(draft.Categories),
			ScheduleMode:          mode,
			RepeatDays:            slices.Clone(draft.RepeatDays),
			RepeatChildID:         draft.RepeatChildID,
			RepeatChildIDs:        slices.Clone(draft.RepeatChildIDs),
			BonusEnabled:          draft.BonusEnabled,
			BonusTitle:            draft.BonusTitle,
			BonusPoints:           draft.BonusPoints,
			EarlyBonusEnabled:     draft.EarlyBonusEnabled,
			EarlyBonusDays:        draft.EarlyBonusDays,
			EarlyBonusPoints:      draft.EarlyBonusPoints,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		st.tasks[t.ID] = t
		created = t.Clone()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// TaskUpdate patches task fields; nil fields are left unchanged. Recurrence
// fields are changed through SetTaskRepeat.
type TaskUpdate struct {
	Title       *string
	Description *string
	Points      *int
	Due         *time.Time
	Icon        *string
	Categories  []string

	SkipApproval          *bool
	PersistUntilCompleted *bool
	QuickComplete         *bool
	FastestWins           *bool
	MarkOverdue           *bool

	BonusEnabled *bool
	BonusTitle   *string
	BonusPoints  *int

	EarlyBonusEnabled *bool
	EarlyBonusDays    *int
	EarlyBonusPoints  *int
}

// UpdateTask applies the patch to an existing task.
func (s *Store) UpdateTask(taskID string, upd TaskUpdate) (*model.Task, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("task title is required: %w", ErrValidation)
	}
	for _, p := range []*int{upd.Points, upd.BonusPoints, upd.EarlyBonusPoints, upd.EarlyBonusDays} {
		if p != nil && *p < 0 {
			return nil, fmt.Errorf("points must not be negative: %w", ErrValidation)
		}
	}

	var updated *model.Task
	err := s.mutate(func(st *state) ([]Event, error) {
		t, ok := st.tasks[taskID]
		if !ok {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		if upd.Title != nil {
			t.Title = strings.TrimSpace(*upd.Title)
		}
		if upd.Description != nil {
			t.Description = *upd.Description
		}
		if upd.Points != nil {
			t.Points = *upd.Points
		}
		if upd.Due != nil {
			due := *upd.Due
			t.Due = &due
		}
		if upd.Icon != nil {
			t.Icon = *upd.Icon
		}
		if upd.Categories != nil {
			t.Categories = slices.Clone(upd.Categories)
		}
		if upd.SkipApproval != nil {
			t.SkipApproval = *upd.SkipApproval
		}
		if upd.PersistUntilCompleted != nil {
			t.PersistUntilCompleted = *upd.PersistUntilCompleted
		}
		if upd.QuickComplete != nil {
			t.QuickComplete = *upd.QuickComplete
		}
		if upd.FastestWins != nil {
			t.FastestWins = *upd.FastestWins
		}
		if upd.MarkOverdue != nil {
			t.MarkOverdue = *upd.MarkOverdue
		}
		if upd.BonusEnabled != nil {
			t.BonusEnabled = *upd.BonusEnabled
		}
		if upd.BonusTitle != nil {
			t.BonusTitle = *upd.BonusTitle
		}
		if upd.BonusPoints != nil {
			t.BonusPoints = *upd.BonusPoints
		}
		if upd.EarlyBonusEnabled != nil {
			t.EarlyBonusEnabled = *upd.EarlyBonusEnabled
		}
		if upd.EarlyBonusDays != nil {
			t.EarlyBonusDays = *upd.EarlyBonusDays
		}
		if upd.EarlyBonusPoints != nil {
			t.EarlyBonusPoints = *upd.EarlyBonusPoints
		}
		t.UpdatedAt = s.now()
		updated = t.Clone()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetTaskRepeat replaces a task's recurrence definition.
func (s *Store) SetTaskRepeat(taskID string, repeatDays []string, repeatChildID string, repeatChildIDs []string, mode model.ScheduleMode) error {
	if _, err := repeat.ParseAll(repeatDays); err != nil {
		return fmt.Errorf("%v: %w", err, ErrValidation)
	}
	switch mode {
	case "", model.ScheduleFixed, model.ScheduleRotating:
	default:
		return fmt.Errorf("unknown schedule mode %q: %w", mode, ErrValidation)
	}
	return s.mutate(func(st *state) ([]Event, error) {
		t, ok := st.tasks[taskID]
		if !ok {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		t.RepeatDays = slices.Clone(repeatDays)
		t.RepeatChildID = repeatChildID
		t.RepeatChildIDs = slices.Clone(repeatChildIDs)
		if mode != "" {
			t.ScheduleMode = mode
		}
		t.UpdatedAt = s.now()
		return nil, nil
	})
}

// SetTaskIcon changes a task's icon.
func (s *Store) SetTaskIcon(taskID, icon string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		t, ok := st.tasks[taskID]
		if !ok {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		t.Icon = icon
		t.UpdatedAt = s.now()
		return nil, nil
	})
}

// AssignTask sets the task's assignee. Reassigning an already-assigned task
// is allowed.
func (s *Store) AssignTask(taskID, childID string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		t, ok := st.tasks[taskID]
		if !ok {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		if _, ok := st.children[childID]; !ok {
			return nil, fmt.Errorf("child %s: %w", childID, ErrNotFound)
		}
		t.AssignedTo = childID
		if t.Status == model.StatusUnassigned {
			t.Status = model.StatusAssigned
		}
		t.UpdatedAt = s.now()
		return nil, nil
	})
}

// SetTaskStatus drives the main lifecycle. Moving to awaiting_approval stamps
// the completion time (completedTS or now) and emits a completion event; it
// is also the fastest-wins claim point. Moving directly to approved is the
// quick-complete path, only allowed when skip_approval is set, and pays out
// atomically. actorID names the child performing a completion; it is empty
// for caregiver-driven changes.
func (s *Store) SetTaskStatus(taskID string, status model.Status, completedTS *time.Time, actorID string) error {
	switch status {
	case model.StatusAssigned, model.StatusAwaitingApproval, model.StatusApproved:
	default:
		return fmt.Errorf("status %q: %w", status, ErrValidation)
	}

	return s.mutate(func(st *state) ([]Event, error) {
		t, ok := st.tasks[taskID]
		if !ok {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		if actorID != "" {
			if _, ok := st.children[actorID]; !ok {
				return nil, fmt.Errorf("child %s: %w", actorID, ErrNotFound)
			}
		}

		switch status {
		case model.StatusAssigned:
			// Reassign/reopen. Approved instances are terminal.
			if t.Status == model.StatusApproved {
				return nil, fmt.Errorf("task %s is approved: %w", taskID, ErrInvalidTransition)
			}
			if actorID != "" {
				t.AssignedTo = actorID
			}
			t.Status = model.StatusAssigned
			t.CompletedTS = nil
			t.UpdatedAt = s.now()
			return nil, nil

		case model.StatusAwaitingApproval:
			if t.Status == model.StatusApproved {
				return nil, fmt.Errorf("task %s is approved: %w", taskID, ErrInvalidTransition)
			}
			// Fastest-wins: the first completion claims the instance; a
			// different child arriving second loses the race.
			if t.FastestWins && t.Status == model.StatusAwaitingApproval && actorID != "" && actorID != t.AssignedTo {
				return nil, fmt.Errorf("task %s claimed by %s: %w", taskID, t.AssignedTo, ErrAlreadyClaimed)
			}
			if actorID != "" {
				t.AssignedTo = actorID
			}
			ts := s.now()
			if completedTS != nil {
				ts = *completedTS
			}
			t.Status = model.StatusAwaitingApproval
			t.CompletedTS = &ts
			t.UpdatedAt = s.now()
			return []Event{s.taskCompletedEvent(st, t)}, nil

		case model.StatusApproved:
			if t.Approved {
				return nil, nil
			}
			if t.Status != model.StatusAwaitingApproval && !t.SkipApproval {
				return nil, fmt.Errorf("task %s requires approval: %w", taskID, ErrInvalidTransition)
			}
			if t.CompletedTS == nil {
				ts := s.now()
				if completedTS != nil {
					ts = *completedTS
				}
				t.CompletedTS = &ts
			}
			if actorID != "" {
				t.AssignedTo = actorID
			}
			return []Event{s.approveLocked(st, t)}, nil
		}
		return nil, nil
	})
}

// ApproveTask approves a completed task and pays out. Calling it again on an
// already-approved task is a no-op, never a double payout.
func (s *Store) ApproveTask(taskID string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		t, ok := st.tasks[taskID]
		if !ok {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		if t.Approved {
			return nil, nil
		}
		if t.Status != model.StatusAwaitingApproval {
			return nil, fmt.Errorf("task %s is %s: %w", taskID, t.Status, ErrInvalidTransition)
		}
		return []Event{s.approveLocked(st, t)}, nil
	})
}

// CompleteBonus records the bonus sub-task as done. Repeat calls overwrite
// the timestamp; the main task status is untouched.
func (s *Store) CompleteBonus(taskID string, completedTS *time.Time) error {
	return s.mutate(func(st *state) ([]Event, error) {
		t, ok := st.tasks[taskID]
		if !ok {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		if !t.BonusEnabled {
			return nil, fmt.Errorf("task %s has no bonus: %w", taskID, ErrValidation)
		}
		ts := s.now()
		if completedTS != nil {
			ts = *completedTS
		}
		t.BonusCompletedTS = &ts
		t.UpdatedAt = s.now()
		ev := s.taskCompletedEvent(st, t)
		ev.Kind = EventBonusCompleted
		return []Event{ev}, nil
	})
}

// ApproveBonus approves a completed bonus sub-task and credits its points.
// Idempotent like ApproveTask.
func (s *Store) ApproveBonus(taskID string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		t, ok := st.tasks[taskID]
		if !ok {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		if t.BonusApproved {
			return nil, nil
		}
		if t.BonusCompletedTS == nil {
			return nil, fmt.Errorf("task %s bonus not completed: %w", taskID, ErrInvalidTransition)
		}
		return []Event{s.approveBonusLocked(st, t)}, nil
	})
}

// ApproveAll approves the task and, when a bonus is enabled, marks it
// completed (if it is not yet) and approves it too, as one atomic unit.
// Mirrors the "approve all" caregiver notification action.
func (s *Store) ApproveAll(taskID string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		t, ok := st.tasks[taskID]
		if !ok {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}

		var events []Event
		if !t.Approved {
			if t.Status != model.StatusAwaitingApproval {
				return nil, fmt.Errorf("task %s is %s: %w", taskID, t.Status, ErrInvalidTransition)
			}
			events = append(events, s.approveLocked(st, t))
		}
		if t.BonusEnabled && !t.BonusApproved {
			if t.BonusCompletedTS == nil {
				ts := s.now()
				t.BonusCompletedTS = &ts
			}
			events = append(events, s.approveBonusLocked(st, t))
		}
		return events, nil
	})
}

// DeleteTask removes a task unconditionally. Points already paid stay paid.
func (s *Store) DeleteTask(taskID string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		if _, ok := st.tasks[taskID]; !ok {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		delete(st.tasks, taskID)
		return nil, nil
	})
}

// Task returns a copy of one task.
func (s *Store) Task(taskID string) (*model.Task, error) {
	var t *model.Task
	s.view(func(st *state) {
		if found, ok := st.tasks[taskID]; ok {
			t = found.Clone()
		}
	})
	if t == nil {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return t, nil
}

// Tasks returns copies of all tasks, oldest first.
func (s *Store) Tasks() []model.Task {
	var out []model.Task
	s.view(func(st *state) {
		for _, t := range st.tasks {
			out = append(out, *t.Clone())
		}
	})
	slices.SortFunc(out, func(a, b model.Task) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// approveLocked performs the payout and terminal transition. Callers must
// have verified the task is approvable. An unknown assignee still transitions
// but pays nobody (caregiver override).
func (s *Store) approveLocked(st *state, t *model.Task) Event {
	points := t.Points
	if earlyBonusEligible(t) {
		points += t.EarlyBonusPoints
	}
	credit(st, t.AssignedTo, points)
	t.Status = model.StatusApproved
	t.Approved = true
	t.UpdatedAt = s.now()

	metrics.TasksApproved.Inc()
	metrics.PointsCredited.Add(float64(points))

	ev := s.taskCompletedEvent(st, t)
	ev.Kind = EventTaskApproved
	ev.Points = points
	return ev
}

func (s *Store) approveBonusLocked(st *state, t *model.Task) Event {
	credit(st, t.AssignedTo, t.BonusPoints)
	t.BonusApproved = true
	t.UpdatedAt = s.now()

	metrics.BonusesApproved.Inc()
	metrics.PointsCredited.Add(float64(t.BonusPoints))

	ev := s.taskCompletedEvent(st, t)
	ev.Kind = EventBonusApproved
	ev.Points = t.BonusPoints
	return ev
}

func (s *Store) taskCompletedEvent(st *state, t *model.Task) Event {
	ev := Event{
		Kind:         EventTaskCompleted,
		TaskID:       t.ID,
		TaskTitle:    t.Title,
		ChildID:      t.AssignedTo,
		Points:       t.Points,
		SkipApproval: t.SkipApproval,
		BonusEnabled: t.BonusEnabled,
		BonusTitle:   t.BonusTitle,
		BonusDone:    t.BonusCompletedTS != nil,
		TS:           s.now(),
	}
	if c, ok := st.children[t.AssignedTo]; ok {
		ev.ChildName = c.Name
	}
	return ev
}

// earlyBonusEligible reports whether the completion falls inside the early
// bonus window: completed on or before the due date, no more than
// EarlyBonusDays before it.
func earlyBonusEligible(t *model.Task) bool {
	if !t.EarlyBonusEnabled || t.Due == nil || t.CompletedTS == nil {
		return false
	}
	if t.CompletedTS.After(*t.Due) {
		return false
	}
	window := time.Duration(t.EarlyBonusDays) * 24 * time.Hour
	return t.Due.Sub(*t.CompletedTS) <= window
}
