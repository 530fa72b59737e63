package model

import (
	"slices"
	"time"
)

// Status is the lifecycle state of a task instance.
type Status string

const (
	StatusUnassigned       Status = "unassigned"
	StatusAssigned         Status = "assigned"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusApproved         Status = "approved"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusUnassigned, StatusAssigned, StatusAwaitingApproval, StatusApproved:
		return true
	}
	return false
}

// ScheduleMode selects how a recurring task picks its assignee on rollover.
type ScheduleMode string

const (
	// ScheduleFixed resets the task for its configured assignee.
	ScheduleFixed ScheduleMode = "fixed"
	// ScheduleRotating assigns the next child in RepeatChildIDs, round-robin.
	ScheduleRotating ScheduleMode = "rotating"
)

// Task is a chore instance with its recurrence definition and bonus sub-task.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`

	Due        *time.Time `json:"due,omitempty"`
	AssignedTo string     `json:"assigned_to,omitempty"`
	Status     Status     `json:"status"`

	CompletedTS *time.Time `json:"completed_ts,omitempty"`
	Approved    bool       `json:"approved"`

	SkipApproval          bool `json:"skip_approval"`
	PersistUntilCompleted bool `json:"persist_until_completed"`
	QuickComplete         bool `json:"quick_complete"`
	FastestWins           bool `json:"fastest_wins"`
	CarriedOver           bool `json:"carried_over"`
	MarkOverdue           bool `json:"mark_overdue"`

	Icon       string   `json:"icon,omitempty"`
	Categories []string `json:"categories,omitempty"`

	ScheduleMode   ScheduleMode `json:"schedule_mode,omitempty"`
	RepeatDays     []string     `json:"repeat_days,omitempty"`
	RepeatChildID  string       `json:"repeat_child_id,omitempty"`
	RepeatChildIDs []string     `json:"repeat_child_ids,omitempty"`

	BonusEnabled     bool       `json:"bonus_enabled"`
	BonusTitle       string     `json:"bonus_title,omitempty"`
	BonusPoints      int        `json:"bonus_points,omitempty"`
	BonusCompletedTS *time.Time `json:"bonus_completed_ts,omitempty"`
	BonusApproved    bool       `json:"bonus_approved"`

	EarlyBonusEnabled bool `json:"early_bonus_enabled"`
	EarlyBonusDays    int  `json:"early_bonus_days,omitempty"`
	EarlyBonusPoints  int  `json:"early_bonus_points,omitempty"`

	// LastRollover is the local calendar date ("2006-01-02") the daily rollover
	// last processed this task. It is the day-bucket identity that makes
	// rollover re-entrant.
	LastRollover string `json:"last_rollover,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recurring reports whether the task participates in daily rollover.
func (t *Task) Recurring() bool {
	return len(t.RepeatDays) > 0
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	cp := *t
	cp.Categories = slices.Clone(t.Categories)
	cp.RepeatDays = slices.Clone(t.RepeatDays)
	cp.RepeatChildIDs = slices.Clone(t.RepeatChildIDs)
	if t.Due != nil {
		due := *t.Due
		cp.Due = &due
	}
	if t.CompletedTS != nil {
		ts := *t.CompletedTS
		cp.CompletedTS = &ts
	}
	if t.BonusCompletedTS != nil {
		ts := *t.BonusCompletedTS
		cp.BonusCompletedTS = &ts
	}
	return &cp
}
